package toolevents

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/veralabs/vera-live/pkg/engine/protocol"
)

// maxLogEntries bounds the event log; the oldest entries fall off first.
const maxLogEntries = 256

// Event is a classified tool result.
type Event struct {
	ID       string
	Tool     string
	Category Category
	Data     map[string]any
	Status   string
	At       time.Time
}

// Bus classifies incoming tool results and maintains the presentation
// state derived from them: a bounded event log, the latest music and
// timer events, and a sticky emergency flag.
//
// All methods are safe for concurrent use.
type Bus struct {
	log *slog.Logger
	now func() time.Time

	mu          sync.Mutex
	seq         int64
	events      []Event
	activeMusic *Event
	activeTimer *Event
	emergency   bool
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for classification diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) { b.log = l }
}

// WithClock overrides the time source. Tests use this.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) { b.now = now }
}

// NewBus returns an empty bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		log: slog.Default(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Record classifies a tool result, appends it to the log, and updates the
// persistent slots. Music and timer slots are latest-wins; any emergency
// event latches the emergency flag until Clear or SetEmergency(false).
func (b *Bus) Record(msg protocol.ServerToolEvent) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	ev := Event{
		ID:       fmt.Sprintf("tool_%d", b.seq),
		Tool:     msg.Tool,
		Category: Classify(msg.Tool),
		Data:     msg.Data,
		Status:   msg.Status,
		At:       b.now(),
	}
	if ev.Data == nil {
		ev.Data = map[string]any{}
	}

	switch ev.Category {
	case CategoryMusic:
		b.activeMusic = &ev
	case CategoryTimer:
		b.activeTimer = &ev
	case CategoryEmergency:
		b.emergency = true
	}

	b.events = append(b.events, ev)
	if len(b.events) > maxLogEntries {
		b.events = b.events[len(b.events)-maxLogEntries:]
	}

	b.log.Debug("tool event recorded",
		"id", ev.ID, "tool", ev.Tool, "category", ev.Category, "status", ev.Status)
	return ev
}

// Dismiss removes a single event from the log. Persistent slots and the
// emergency flag are untouched; dismissing a music event does not stop the
// music control it produced.
func (b *Bus) Dismiss(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ev := range b.events {
		if ev.ID == id {
			b.events = append(b.events[:i], b.events[i+1:]...)
			return
		}
	}
}

// Clear empties the log, drops both persistent slots, and resets the
// emergency flag.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
	b.activeMusic = nil
	b.activeTimer = nil
	b.emergency = false
}

// SetEmergency overrides the emergency flag, e.g. after the caregiver
// acknowledges an alert.
func (b *Bus) SetEmergency(active bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.emergency = active
}

// Events returns a copy of the event log in arrival order.
func (b *Bus) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// ActiveMusic returns the most recent music event, or nil.
func (b *Bus) ActiveMusic() *Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.activeMusic == nil {
		return nil
	}
	ev := *b.activeMusic
	return &ev
}

// ActiveTimer returns the most recent timer event, or nil.
func (b *Bus) ActiveTimer() *Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.activeTimer == nil {
		return nil
	}
	ev := *b.activeTimer
	return &ev
}

// EmergencyActive reports whether an emergency event has been recorded and
// not yet cleared or acknowledged.
func (b *Bus) EmergencyActive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.emergency
}
