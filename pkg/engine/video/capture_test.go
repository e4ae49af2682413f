package video

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

// fakeSource hands out queued frames, then blocks until closed or, with
// endAfter set, reports EOF to simulate the user ending a screen share.
type fakeSource struct {
	frames   [][]byte
	endAfter bool

	mu     sync.Mutex
	idx    int
	closed chan struct{}
	once   sync.Once
}

func newFakeSource(endAfter bool, frames ...[]byte) *fakeSource {
	return &fakeSource{frames: frames, endAfter: endAfter, closed: make(chan struct{})}
}

func (s *fakeSource) Next() ([]byte, error) {
	s.mu.Lock()
	if s.idx < len(s.frames) {
		f := s.frames[s.idx]
		s.idx++
		s.mu.Unlock()
		return f, nil
	}
	s.mu.Unlock()
	if s.endAfter {
		return nil, io.EOF
	}
	<-s.closed
	return nil, io.EOF
}

func (s *fakeSource) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

type fakeOpener struct {
	mu     sync.Mutex
	src    FrameSource
	err    error
	opened []Mode
}

func (o *fakeOpener) Open(mode Mode) (FrameSource, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, mode)
	if o.err != nil {
		return nil, o.err
	}
	return o.src, nil
}

func collectFrames(out chan<- []byte) func([]byte) {
	return func(f []byte) {
		select {
		case out <- f:
		default:
		}
	}
}

func TestStartRejectsBadInput(t *testing.T) {
	c := NewCapturer(WithSourceOpener(&fakeOpener{src: newFakeSource(false)}))
	defer c.Stop()

	if err := c.Start(context.Background(), "hologram", func([]byte) {}, nil); err == nil {
		t.Error("unknown mode should fail")
	}
	if err := c.Start(context.Background(), ModeCamera, nil, nil); err == nil {
		t.Error("nil sendFrame should fail")
	}
}

func TestStartOpenFailure(t *testing.T) {
	c := NewCapturer(WithSourceOpener(&fakeOpener{err: ErrCaptureUnavailable}))

	ended := false
	err := c.Start(context.Background(), ModeCamera, func([]byte) {}, func() { ended = true })
	if !errors.Is(err, ErrCaptureUnavailable) {
		t.Fatalf("err = %v, want ErrCaptureUnavailable", err)
	}
	if ended {
		t.Error("onEnded must not fire for a failed start")
	}
	if c.Mode() != "" {
		t.Errorf("mode = %q, want idle", c.Mode())
	}
}

func TestCaptureDeliversFrames(t *testing.T) {
	frame := []byte{0xFF, 0xD8, 0x01, 0xFF, 0xD9}
	src := newFakeSource(false, frame)
	c := NewCapturer(WithSourceOpener(&fakeOpener{src: src}))
	defer c.Stop()

	got := make(chan []byte, 4)
	if err := c.Start(context.Background(), ModeCamera, collectFrames(got), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if c.Mode() != ModeCamera {
		t.Errorf("mode = %q, want camera", c.Mode())
	}

	select {
	case f := <-got:
		if string(f) != string(frame) {
			t.Errorf("frame = %v, want %v", f, frame)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
}

func TestStreamEndFiresOnEndedOnce(t *testing.T) {
	src := newFakeSource(true)
	c := NewCapturer(WithSourceOpener(&fakeOpener{src: src}))

	var mu sync.Mutex
	endCount := 0
	err := c.Start(context.Background(), ModeScreen, func([]byte) {}, func() {
		mu.Lock()
		endCount++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := endCount
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("onEnded never fired")
		case <-time.After(10 * time.Millisecond):
		}
	}
	mu.Lock()
	if endCount != 1 {
		t.Errorf("onEnded fired %d times, want 1", endCount)
	}
	mu.Unlock()
}

func TestStopDoesNotFireOnEnded(t *testing.T) {
	src := newFakeSource(false)
	c := NewCapturer(WithSourceOpener(&fakeOpener{src: src}))

	ended := make(chan struct{}, 1)
	if err := c.Start(context.Background(), ModeCamera, func([]byte) {}, func() { ended <- struct{}{} }); err != nil {
		t.Fatalf("start: %v", err)
	}
	c.Stop()

	select {
	case <-ended:
		t.Error("onEnded must not fire for an explicit stop")
	case <-time.After(100 * time.Millisecond):
	}
	if c.Mode() != "" {
		t.Errorf("mode = %q, want idle after stop", c.Mode())
	}
}

func TestStartWhileRunningFails(t *testing.T) {
	opener := &fakeOpener{src: newFakeSource(false)}
	c := NewCapturer(WithSourceOpener(opener))
	defer c.Stop()

	if err := c.Start(context.Background(), ModeCamera, func([]byte) {}, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := c.Start(context.Background(), ModeScreen, func([]byte) {}, nil); err == nil {
		t.Error("second start should fail while running")
	}
}

func TestSwitchModeRestartsSource(t *testing.T) {
	opener := &fakeOpener{src: newFakeSource(false)}
	c := NewCapturer(WithSourceOpener(opener))
	defer c.Stop()

	if err := c.Start(context.Background(), ModeCamera, func([]byte) {}, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	opener.mu.Lock()
	opener.src = newFakeSource(false)
	opener.mu.Unlock()

	if err := c.SwitchMode(context.Background(), ModeScreen, func([]byte) {}, nil); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if c.Mode() != ModeScreen {
		t.Errorf("mode = %q, want screen", c.Mode())
	}

	opener.mu.Lock()
	defer opener.mu.Unlock()
	want := []Mode{ModeCamera, ModeScreen}
	if len(opener.opened) != len(want) || opener.opened[0] != want[0] || opener.opened[1] != want[1] {
		t.Errorf("opened = %v, want %v", opener.opened, want)
	}
}

func TestSwitchToEmptyModeStops(t *testing.T) {
	c := NewCapturer(WithSourceOpener(&fakeOpener{src: newFakeSource(false)}))

	if err := c.Start(context.Background(), ModeCamera, func([]byte) {}, nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := c.SwitchMode(context.Background(), "", nil, nil); err != nil {
		t.Fatalf("switch to empty: %v", err)
	}
	if c.Mode() != "" {
		t.Errorf("mode = %q, want idle", c.Mode())
	}
}
