// Package session runs the live conversation loop: it dials the service,
// streams microphone audio and optional video frames up, and routes status,
// subtitle, audio, speaker, tool, and interface frames coming back. A
// controller owns one logical session, surviving transport drops through
// bounded reconnection.
package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/veralabs/vera-live/pkg/engine/audio"
	"github.com/veralabs/vera-live/pkg/engine/protocol"
	"github.com/veralabs/vera-live/pkg/engine/toolevents"
	"github.com/veralabs/vera-live/pkg/engine/uiactions"
	"github.com/veralabs/vera-live/pkg/engine/video"
)

const (
	// maxMessages bounds the transcript; the oldest entries fall off first.
	maxMessages = 500
	// maxReconnect bounds reconnection attempts after an unexpected drop.
	maxReconnect = 5
	// turnFlushDelay is how long after turn_complete the subtitle is held
	// before it is committed to the transcript, absorbing a trailing
	// subtitle frame that races the status.
	turnFlushDelay = 500 * time.Millisecond
)

// reconnectDelays is the backoff ladder; attempts beyond its length reuse
// the last entry.
var reconnectDelays = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
	16 * time.Second,
}

// Status is the lifecycle state of a controller.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusConnecting Status = "connecting"
	StatusActive     Status = "active"
	StatusError      Status = "error"
)

// Mode selects what the session captures besides the microphone.
type Mode string

const (
	ModeVoice  Mode = "voice"
	ModeScreen Mode = "screen"
	ModeCamera Mode = "camera"
)

// Role tags a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry.
type Message struct {
	Role Role
	Text string
	At   time.Time
}

// Speaker is the latest speaker-recognition reading. Each update replaces
// the previous one wholesale.
type Speaker struct {
	Name        string
	Confidence  float64
	Emotion     string
	PitchHz     float64
	Energy      float64
	StressLevel float64
	IsNew       bool
}

// Hooks are optional observer callbacks. They run on the controller's
// internal goroutines and must return quickly.
type Hooks struct {
	OnStatus     func(Status)
	OnSubtitle   func(string)
	OnMessage    func(Message)
	OnSpeaker    func(Speaker)
	OnToolEvent  func(toolevents.Event)
	OnModeChange func(Mode)
}

// Config wires a controller to the service and the host application.
type Config struct {
	// BaseURL is the service's HTTP(S) base; the websocket endpoint is
	// derived from it.
	BaseURL string
	// SubjectID identifies the caller. It is normalized to bare digits
	// before being sent.
	SubjectID string
	// UI receives interface actions the service issues. The switch_mode
	// hook is chained after the controller's own mode handling.
	UI uiactions.Hooks
	// Hooks observe session activity.
	Hooks Hooks
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Controller runs one logical session. All exported methods are safe for
// concurrent use.
type Controller struct {
	log      *slog.Logger
	cfg      Config
	dialer   Dialer
	newAudio func() *audio.Engine
	capturer *video.Capturer
	tools    *toolevents.Bus
	actions  *uiactions.Dispatcher
	meter    *audio.Meter
	now      func() time.Time

	flushDelay time.Duration
	delays     []time.Duration

	mu         sync.Mutex
	status     Status
	mode       Mode
	messages   []Message
	subtitle   string
	speaker    *Speaker
	attempts   int
	cancelRun  context.CancelFunc
	runDone    chan struct{}
	aud        *audio.Engine
	flushTimer *time.Timer

	writeMu   sync.Mutex
	transport Transport
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithDialer substitutes the transport dialer.
func WithDialer(d Dialer) ControllerOption {
	return func(c *Controller) { c.dialer = d }
}

// WithAudioFactory substitutes how per-connection audio engines are built.
func WithAudioFactory(f func() *audio.Engine) ControllerOption {
	return func(c *Controller) { c.newAudio = f }
}

// WithCapturer substitutes the video capturer.
func WithCapturer(v *video.Capturer) ControllerOption {
	return func(c *Controller) { c.capturer = v }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// WithReconnectDelays overrides the backoff ladder. Tests use this.
func WithReconnectDelays(delays []time.Duration) ControllerOption {
	return func(c *Controller) { c.delays = delays }
}

// WithTurnFlushDelay overrides the subtitle flush grace period.
func WithTurnFlushDelay(d time.Duration) ControllerOption {
	return func(c *Controller) { c.flushDelay = d }
}

// New builds an idle controller.
func New(cfg Config, opts ...ControllerOption) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	c := &Controller{
		log:        cfg.Logger,
		cfg:        cfg,
		dialer:     WebSocketDialer{},
		capturer:   video.NewCapturer(),
		tools:      toolevents.NewBus(toolevents.WithLogger(cfg.Logger)),
		meter:      audio.NewMeter(),
		now:        time.Now,
		flushDelay: turnFlushDelay,
		delays:     reconnectDelays,
		status:     StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.newAudio == nil {
		// Each connection gets a fresh engine; they all feed the shared
		// meter so level readings survive reconnects.
		c.newAudio = func() *audio.Engine { return audio.NewEngine(audio.WithMeter(c.meter)) }
	}

	// The service's switch_mode action goes through the controller first so
	// capture follows the requested mode, then the host hook observes it.
	ui := cfg.UI
	hostSwitch := ui.SwitchMode
	ui.SwitchMode = func(m uiactions.CaptureMode) {
		if err := c.SwitchMode(Mode(m)); err != nil {
			c.log.Warn("mode switch rejected", "mode", m, "error", err)
			return
		}
		if hostSwitch != nil {
			hostSwitch(m)
		}
	}
	c.actions = uiactions.NewDispatcher(ui, cfg.Logger)
	return c
}

// Tools exposes the session's tool-event state.
func (c *Controller) Tools() *toolevents.Bus {
	return c.tools
}

// Status returns the current lifecycle state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Mode returns the current capture mode, or "" when idle.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Subtitle returns the in-flight assistant subtitle.
func (c *Controller) Subtitle() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subtitle
}

// Messages returns a copy of the transcript.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Speaker returns the latest speaker reading, or nil.
func (c *Controller) Speaker() *Speaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.speaker == nil {
		return nil
	}
	s := *c.speaker
	return &s
}

// Speaking reports whether assistant audio is currently scheduled.
func (c *Controller) Speaking() bool {
	c.mu.Lock()
	aud := c.aud
	c.mu.Unlock()
	return aud != nil && aud.Speaking()
}

// AudioLevels returns the current mic and playback meter levels in [0,1].
// Both read zero while no connection is live.
func (c *Controller) AudioLevels() (input, output float64) {
	c.mu.Lock()
	aud := c.aud
	c.mu.Unlock()
	if aud == nil {
		return 0, 0
	}
	return aud.Meter().Levels()
}

// Meter exposes the session's level meter for a waveform sampling loop
// (audio.Meter.Run). The meter outlives individual connections.
func (c *Controller) Meter() *audio.Meter {
	return c.meter
}

// Start brings the session up in the given mode. It returns once the
// connection loop is launched; status moves to active when the service
// acknowledges the session.
func (c *Controller) Start(ctx context.Context, mode Mode) error {
	switch mode {
	case ModeVoice, ModeScreen, ModeCamera:
	default:
		return fmt.Errorf("session: unsupported mode %q", mode)
	}

	c.mu.Lock()
	if c.cancelRun != nil {
		c.mu.Unlock()
		return errors.New("session: already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancelRun = cancel
	c.runDone = done
	c.mode = mode
	c.messages = nil
	c.subtitle = ""
	c.speaker = nil
	c.attempts = 0
	c.mu.Unlock()

	c.setStatus(StatusConnecting)
	go c.run(runCtx, mode, done)
	return nil
}

// run owns the connect/reconnect loop. Each pass acquires fresh devices and
// a fresh transport; an unexpected drop after the session was ever active
// retries on the backoff ladder, anything else ends the session.
func (c *Controller) run(ctx context.Context, mode Mode, done chan struct{}) {
	defer close(done)

	everActive := false
	for {
		becameActive, err := c.runOnce(ctx, mode)
		everActive = everActive || becameActive

		if ctx.Err() != nil {
			return
		}
		if !everActive {
			if err != nil {
				c.log.Error("session start failed", "error", err)
			}
			c.finish(StatusIdle)
			return
		}

		c.mu.Lock()
		attempt := c.attempts
		c.attempts++
		c.mu.Unlock()
		if attempt >= maxReconnect {
			c.log.Error("giving up after repeated disconnects", "attempts", attempt)
			c.finish(StatusError)
			return
		}

		delay := c.delays[min(attempt, len(c.delays)-1)]
		c.log.Warn("connection lost, reconnecting", "attempt", attempt+1, "delay", delay)
		c.setStatus(StatusConnecting)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// runOnce runs a single connection to completion. It reports whether the
// session reached active during this connection.
func (c *Controller) runOnce(ctx context.Context, mode Mode) (becameActive bool, err error) {
	aud := c.newAudio()
	defer aud.Release()
	if err := aud.Acquire(); err != nil {
		return false, err
	}
	c.mu.Lock()
	c.aud = aud
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.aud = nil
		c.mu.Unlock()
	}()

	if mode == ModeScreen || mode == ModeCamera {
		// A screen share ended by the user tears the session down; a camera
		// stream ending is just the device going away.
		var onEnded func()
		if mode == ModeScreen {
			onEnded = func() { go c.Stop() }
		}
		if err := c.capturer.Start(ctx, video.Mode(mode), c.sendFrame, onEnded); err != nil {
			return false, err
		}
		defer c.capturer.Stop()
	}

	endpoint, err := protocol.WebSocketEndpoint(c.cfg.BaseURL)
	if err != nil {
		return false, err
	}
	transport, err := c.dialer.Dial(ctx, endpoint)
	if err != nil {
		return false, err
	}
	c.setTransport(transport)
	defer func() {
		c.setTransport(nil)
		transport.Close()
	}()

	// Close the transport when ctx is cancelled so the read loop unblocks.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			transport.Close()
		case <-watchDone:
		}
	}()

	if err := c.send(protocol.ClientConfig{
		Type: "config",
		Data: protocol.NormalizeSubjectID(c.cfg.SubjectID),
	}); err != nil {
		return false, err
	}

	for {
		data, err := transport.ReadMessage()
		if err != nil {
			return becameActive, err
		}
		msg, err := protocol.DecodeServerMessage(data)
		if err != nil {
			c.log.Warn("undecodable frame dropped", "error", err)
			continue
		}
		if c.handleFrame(ctx, msg, aud) {
			becameActive = true
		}
	}
}

// handleFrame routes one inbound frame. It reports whether the frame moved
// the session to active.
func (c *Controller) handleFrame(ctx context.Context, msg any, aud *audio.Engine) bool {
	switch m := msg.(type) {
	case protocol.ServerStatus:
		return c.handleStatus(ctx, m, aud)

	case protocol.ServerText:
		if m.Text == "" {
			return false
		}
		if m.Data == protocol.TextOriginUser {
			c.appendMessage(Message{Role: RoleUser, Text: m.Text, At: c.now()})
		} else {
			c.setSubtitle(m.Text)
		}

	case protocol.ServerAudio:
		if err := aud.EnqueuePlayback(m.Data); err != nil {
			c.log.Warn("playback enqueue failed", "error", err)
		}

	case protocol.ServerSpeaker:
		sp := Speaker{
			Name:        m.Name,
			Confidence:  m.Confidence,
			Emotion:     m.Emotion,
			PitchHz:     m.PitchHz,
			Energy:      m.Energy,
			StressLevel: m.StressLevel,
			IsNew:       m.IsNew,
		}
		if sp.Name == "" {
			sp.Name = "unknown"
		}
		c.mu.Lock()
		c.speaker = &sp
		c.mu.Unlock()
		if c.cfg.Hooks.OnSpeaker != nil {
			c.cfg.Hooks.OnSpeaker(sp)
		}

	case protocol.ServerToolEvent:
		ev := c.tools.Record(m)
		if c.cfg.Hooks.OnToolEvent != nil {
			c.cfg.Hooks.OnToolEvent(ev)
		}

	case protocol.ServerUIAction:
		c.actions.Execute(m)

	case protocol.ServerUnknown:
		c.log.Debug("ignoring unknown frame type", "type", m.Type)
	}
	return false
}

func (c *Controller) handleStatus(ctx context.Context, m protocol.ServerStatus, aud *audio.Engine) bool {
	switch {
	case m.Text == protocol.StatusReady:
		c.mu.Lock()
		c.attempts = 0
		c.mu.Unlock()
		c.setStatus(StatusActive)
		if err := aud.Chime(); err != nil {
			c.log.Warn("connected chime skipped", "error", err)
		}
		if err := aud.BeginCapture(ctx, c.sendMicFrame); err != nil {
			c.log.Error("mic capture failed to start", "error", err)
		}
		return true

	case m.Text == protocol.StatusInterrupted:
		aud.Interrupt()

	case m.Text == protocol.StatusTurnComplete:
		c.scheduleTurnFlush()

	case m.IsError():
		c.log.Error("service reported an error", "status", m.Text)
		c.setStatus(StatusError)
	}
	return false
}

// scheduleTurnFlush commits the subtitle to the transcript after a short
// grace period so a subtitle frame that trails turn_complete still lands in
// the same turn.
func (c *Controller) scheduleTurnFlush() {
	c.mu.Lock()
	if c.flushTimer != nil {
		c.flushTimer.Stop()
	}
	c.flushTimer = time.AfterFunc(c.flushDelay, c.flushSubtitle)
	c.mu.Unlock()
}

func (c *Controller) flushSubtitle() {
	c.mu.Lock()
	text := c.subtitle
	c.subtitle = ""
	c.mu.Unlock()

	if c.cfg.Hooks.OnSubtitle != nil {
		c.cfg.Hooks.OnSubtitle("")
	}
	if text != "" {
		c.appendMessage(Message{Role: RoleAssistant, Text: text, At: c.now()})
	}
}

// SendText sends typed user text. It fails when no connection is open.
func (c *Controller) SendText(text string) error {
	if text == "" {
		return nil
	}
	err := c.send(protocol.ClientText{Type: "text", Text: text, Data: protocol.TextOriginTyped})
	if err != nil {
		return err
	}
	c.appendMessage(Message{Role: RoleUser, Text: text, At: c.now()})
	return nil
}

// SwitchMode changes what the session captures. Only an active session can
// switch; switching to voice stops video capture.
func (c *Controller) SwitchMode(mode Mode) error {
	switch mode {
	case ModeVoice, ModeScreen, ModeCamera:
	default:
		return fmt.Errorf("session: unsupported mode %q", mode)
	}

	c.mu.Lock()
	if c.status != StatusActive {
		c.mu.Unlock()
		return errors.New("session: not active")
	}
	if c.mode == mode {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	var target video.Mode
	var onEnded func()
	if mode != ModeVoice {
		target = video.Mode(mode)
		if mode == ModeScreen {
			onEnded = func() {
				// The user ended the share from the platform control; fall
				// back to voice rather than tearing the session down.
				if err := c.SwitchMode(ModeVoice); err != nil {
					c.log.Warn("fallback to voice failed", "error", err)
				}
			}
		}
	}
	if err := c.capturer.SwitchMode(context.Background(), target, c.sendFrame, onEnded); err != nil {
		return err
	}

	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()
	if c.cfg.Hooks.OnModeChange != nil {
		c.cfg.Hooks.OnModeChange(mode)
	}
	return nil
}

// Stop tears the session down and resets all per-session state. Safe to
// call at any time, including repeatedly.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancelRun
	done := c.runDone
	timer := c.flushTimer
	c.cancelRun = nil
	c.runDone = nil
	c.flushTimer = nil
	c.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if cancel != nil {
		cancel()
		<-done
	}
	c.capturer.Stop()

	c.mu.Lock()
	c.mode = ""
	c.messages = nil
	c.subtitle = ""
	c.speaker = nil
	c.attempts = 0
	c.mu.Unlock()
	c.tools.Clear()
	c.setStatus(StatusIdle)
}

// finish is the run loop's terminal teardown for sessions that end on their
// own rather than via Stop. Ending idle clears the per-session view state;
// ending in error keeps it around for inspection until the next Start.
func (c *Controller) finish(status Status) {
	c.mu.Lock()
	cancel := c.cancelRun
	c.cancelRun = nil
	c.runDone = nil
	if status == StatusIdle {
		c.mode = ""
		c.subtitle = ""
		c.speaker = nil
	}
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.capturer.Stop()
	c.setStatus(status)
}

func (c *Controller) sendMicFrame(pcm []byte) {
	if c.Status() != StatusActive {
		return
	}
	err := c.send(protocol.ClientAudio{
		Type: "audio",
		Data: base64.StdEncoding.EncodeToString(pcm),
	})
	if err != nil {
		c.log.Debug("mic frame dropped", "error", err)
	}
}

func (c *Controller) sendFrame(jpeg []byte) {
	// Frame upload starts only once the service has acknowledged the session.
	if c.Status() != StatusActive {
		return
	}
	err := c.send(protocol.ClientVideo{
		Type: "video",
		Data: base64.StdEncoding.EncodeToString(jpeg),
	})
	if err != nil {
		c.log.Debug("video frame dropped", "error", err)
	}
}

func (c *Controller) send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.transport == nil {
		return errors.New("session: no open connection")
	}
	return c.transport.WriteJSON(v)
}

func (c *Controller) setTransport(t Transport) {
	c.writeMu.Lock()
	c.transport = t
	c.writeMu.Unlock()
}

func (c *Controller) setStatus(s Status) {
	c.mu.Lock()
	if c.status == s {
		c.mu.Unlock()
		return
	}
	c.status = s
	c.mu.Unlock()
	if c.cfg.Hooks.OnStatus != nil {
		c.cfg.Hooks.OnStatus(s)
	}
}

func (c *Controller) setSubtitle(text string) {
	c.mu.Lock()
	c.subtitle = text
	c.mu.Unlock()
	if c.cfg.Hooks.OnSubtitle != nil {
		c.cfg.Hooks.OnSubtitle(text)
	}
}

func (c *Controller) appendMessage(m Message) {
	c.mu.Lock()
	c.messages = append(c.messages, m)
	if len(c.messages) > maxMessages {
		c.messages = c.messages[len(c.messages)-maxMessages:]
	}
	c.mu.Unlock()
	if c.cfg.Hooks.OnMessage != nil {
		c.cfg.Hooks.OnMessage(m)
	}
}
