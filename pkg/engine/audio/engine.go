// Package audio owns the capture and playback halves of a live session:
// a microphone feed framed for streaming upload, and a gapless playback
// queue for the PCM the service streams back.
package audio

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	// CaptureRateHz is the microphone sample rate sent upstream.
	CaptureRateHz = 16000
	// PlaybackRateHz is the sample rate of audio the service streams back.
	PlaybackRateHz = 24000

	pcmBytesPerSample = 2
	captureFrameBytes = 1024
)

// CaptureMIME describes the mic chunks sent upstream.
const CaptureMIME = "audio/pcm;rate=16000"

// Engine coordinates the audio devices of one live session. Acquire opens
// the devices, BeginCapture streams mic frames to a callback, and
// EnqueuePlayback schedules returned audio gaplessly. All methods are safe
// for concurrent use. Engines are single-use: after Release, build a new one.
type Engine struct {
	log    *slog.Logger
	opener DeviceOpener
	sched  *scheduler
	meter  *Meter

	mu            sync.Mutex
	mic           MicSource
	player        PlaybackDevice
	captureCancel context.CancelFunc
	captureDone   chan struct{}
	released      bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets the engine's logger.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// WithOpener substitutes the device opener. Tests use this.
func WithOpener(o DeviceOpener) EngineOption {
	return func(e *Engine) { e.opener = o }
}

// WithEngineClock overrides the playback scheduler's time source.
func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.sched = newScheduler(now) }
}

// WithMeter makes the engine feed an externally owned meter, so level
// readings persist across engine rebuilds on reconnect.
func WithMeter(m *Meter) EngineOption {
	return func(e *Engine) { e.meter = m }
}

// NewEngine builds an engine. Devices are not opened until Acquire.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		log:    slog.Default(),
		opener: ffmpegOpener{},
		sched:  newScheduler(time.Now),
		meter:  NewMeter(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Acquire opens the microphone and the playback device. On failure nothing
// stays open and the error wraps ErrPermissionDenied or
// ErrDeviceUnavailable where the cause is known.
func (e *Engine) Acquire() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return errors.New("audio: engine already released")
	}
	if e.mic != nil {
		return errors.New("audio: devices already acquired")
	}

	mic, err := e.opener.OpenMic()
	if err != nil {
		return fmt.Errorf("open microphone: %w", err)
	}
	player, err := e.opener.OpenPlayback()
	if err != nil {
		mic.Close()
		return fmt.Errorf("open playback: %w", err)
	}
	e.mic = mic
	e.player = player
	return nil
}

// BeginCapture starts streaming mic frames to emit until ctx is cancelled,
// the mic closes, or Release is called. Each frame is raw PCM16 at
// CaptureRateHz. emit runs on the capture goroutine; it must not block for
// long or mic audio backs up.
func (e *Engine) BeginCapture(ctx context.Context, emit func(pcm []byte)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mic == nil {
		return errors.New("audio: devices not acquired")
	}
	if e.captureCancel != nil {
		return errors.New("audio: capture already running")
	}

	capCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.captureCancel = cancel
	e.captureDone = done
	mic := e.mic

	go func() {
		defer close(done)
		buf := make([]byte, captureFrameBytes)
		for {
			if capCtx.Err() != nil {
				return
			}
			n, err := mic.Read(buf)
			if n > 0 {
				frame := make([]byte, n)
				copy(frame, buf[:n])
				e.meter.feedInput(frame)
				emit(frame)
			}
			if err != nil {
				if capCtx.Err() == nil && !errors.Is(err, io.EOF) {
					e.log.Warn("mic read failed", "error", err)
				}
				return
			}
		}
	}()
	return nil
}

// EnqueuePlayback decodes a base64 PCM16 chunk and schedules it after any
// audio already queued. Malformed chunks are logged and dropped.
func (e *Engine) EnqueuePlayback(b64 string) error {
	pcm, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		e.log.Warn("playback chunk dropped", "error", err)
		return nil
	}
	if len(pcm) == 0 {
		return nil
	}

	e.mu.Lock()
	player := e.player
	e.mu.Unlock()
	if player == nil {
		return errors.New("audio: devices not acquired")
	}

	e.sched.schedule(PCMDuration(len(pcm)))
	e.meter.feedOutput(pcm)
	if err := player.Write(pcm); err != nil {
		return fmt.Errorf("write playback: %w", err)
	}
	return nil
}

// Interrupt discards all queued playback so the next chunk starts
// immediately. Used when the user barges in mid-reply.
func (e *Engine) Interrupt() {
	e.sched.reset()
	e.mu.Lock()
	player := e.player
	e.mu.Unlock()
	if player != nil {
		if err := player.Reset(); err != nil {
			e.log.Warn("playback reset failed", "error", err)
		}
	}
}

// Speaking reports whether scheduled playback extends past now.
func (e *Engine) Speaking() bool {
	return e.sched.playing()
}

// Buffered returns how much queued playback remains.
func (e *Engine) Buffered() time.Duration {
	return e.sched.buffered()
}

// Meter exposes the live input/output level meter for waveform rendering.
func (e *Engine) Meter() *Meter {
	return e.meter
}

// Release stops capture, flushes playback, and closes both devices.
// Safe to call more than once.
func (e *Engine) Release() {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return
	}
	e.released = true
	cancel := e.captureCancel
	done := e.captureDone
	mic := e.mic
	player := e.player
	e.captureCancel = nil
	e.mic = nil
	e.player = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if mic != nil {
		mic.Close()
	}
	if done != nil {
		<-done
	}
	if player != nil {
		player.Close()
	}
	e.sched.reset()
}

// PCMDuration converts a PCM16 byte count at PlaybackRateHz to wall time.
func PCMDuration(n int) time.Duration {
	samples := n / pcmBytesPerSample
	return time.Duration(samples) * time.Second / PlaybackRateHz
}
