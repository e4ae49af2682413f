// Package video streams downsampled still frames from the screen or the
// camera while a visual session mode is active. Frames are JPEG, capped at
// one per second; the receiving service treats them as context, not video.
package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	// FrameInterval is the minimum spacing between uploaded frames.
	FrameInterval = time.Second
	// MaxFrameEdge is the longest allowed edge of an uploaded frame.
	MaxFrameEdge = 768
	// FrameMIME describes uploaded frames.
	FrameMIME = "image/jpeg"
)

// Mode selects the visual source.
type Mode string

const (
	ModeScreen Mode = "screen"
	ModeCamera Mode = "camera"
)

// ErrCaptureUnavailable is wrapped by source open failures.
var ErrCaptureUnavailable = errors.New("video: capture source unavailable")

// FrameSource produces JPEG frames. Next blocks until a frame is ready and
// returns io.EOF (or any other error) when the stream ends.
type FrameSource interface {
	Next() ([]byte, error)
	Close() error
}

// SourceOpener provisions a FrameSource for a mode. The default opener
// shells out to ffmpeg; tests substitute fakes.
type SourceOpener interface {
	Open(mode Mode) (FrameSource, error)
}

// Capturer runs at most one frame stream at a time. Start opens a source
// and uploads its latest frame once per second via sendFrame; when the
// source ends on its own (for screen shares, the user pressing the
// platform's stop control) onEnded fires exactly once.
type Capturer struct {
	log    *slog.Logger
	opener SourceOpener

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	current Mode
}

// CapturerOption configures a Capturer.
type CapturerOption func(*Capturer)

// WithCapturerLogger sets the logger.
func WithCapturerLogger(l *slog.Logger) CapturerOption {
	return func(c *Capturer) { c.log = l }
}

// WithSourceOpener substitutes the source opener.
func WithSourceOpener(o SourceOpener) CapturerOption {
	return func(c *Capturer) { c.opener = o }
}

// NewCapturer builds an idle capturer.
func NewCapturer(opts ...CapturerOption) *Capturer {
	c := &Capturer{
		log:    slog.Default(),
		opener: ffmpegSourceOpener{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins capturing in the given mode. It fails if a stream is
// already running or the source cannot be opened; onEnded does not fire
// for failed starts. onEnded may be nil.
func (c *Capturer) Start(ctx context.Context, mode Mode, sendFrame func(jpeg []byte), onEnded func()) error {
	if mode != ModeScreen && mode != ModeCamera {
		return fmt.Errorf("video: unsupported mode %q", mode)
	}
	if sendFrame == nil {
		return errors.New("video: sendFrame must not be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return errors.New("video: capture already running")
	}

	src, err := c.opener.Open(mode)
	if err != nil {
		return fmt.Errorf("open %s source: %w", mode, err)
	}

	capCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.current = mode

	go c.run(capCtx, src, sendFrame, onEnded, done)
	return nil
}

func (c *Capturer) run(ctx context.Context, src FrameSource, sendFrame func([]byte), onEnded func(), done chan struct{}) {
	defer close(done)

	var notifyEnd sync.Once
	fireEnd := func() {
		if onEnded == nil {
			return
		}
		notifyEnd.Do(onEnded)
	}

	// The reader drains the source at its native rate and keeps only the
	// newest frame; the ticker below uploads that frame once per second.
	var frameMu sync.Mutex
	var latest []byte
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			frame, err := src.Next()
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, io.EOF) {
					c.log.Warn("frame stream failed", "error", err)
				}
				return
			}
			frameMu.Lock()
			latest = frame
			frameMu.Unlock()
		}
	}()

	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()
	defer src.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-readerDone:
			// Stream ended without Stop being called.
			if ctx.Err() == nil {
				fireEnd()
			}
			return
		case <-ticker.C:
			frameMu.Lock()
			frame := latest
			latest = nil
			frameMu.Unlock()
			if frame != nil {
				sendFrame(frame)
			}
		}
	}
}

// SwitchMode stops the current stream, if any, and starts the new mode.
// An empty mode just stops capture.
func (c *Capturer) SwitchMode(ctx context.Context, mode Mode, sendFrame func(jpeg []byte), onEnded func()) error {
	c.Stop()
	if mode == "" {
		return nil
	}
	return c.Start(ctx, mode, sendFrame, onEnded)
}

// Mode returns the running mode, or "" when idle.
func (c *Capturer) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return ""
	}
	return c.current
}

// Stop ends the current stream without firing onEnded. Safe when idle.
func (c *Capturer) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.cancel = nil
	c.done = nil
	c.current = ""
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
