package toolevents

import (
	"fmt"
	"testing"
	"time"

	"github.com/veralabs/vera-live/pkg/engine/protocol"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestClassify(t *testing.T) {
	cases := []struct {
		tool string
		want Category
	}{
		{"web_search", CategorySearch},
		{"play_radio_station", CategoryMusic},
		{"pomodoro_timer", CategoryTimer},
		{"alert_family", CategoryEmergency},
		{"suicide_risk_detected", CategoryEmergency},
		{"kids_story", CategoryKids},
		{"llm_response", CategorySelfAware},
		{"never_heard_of_it", CategoryGeneric},
		{"", CategoryGeneric},
	}
	for _, c := range cases {
		if got := Classify(c.tool); got != c.want {
			t.Errorf("Classify(%q) = %q, want %q", c.tool, got, c.want)
		}
	}
}

func TestRecordPlainEventLeavesSlotsAlone(t *testing.T) {
	b := NewBus(WithClock(fixedClock(time.Unix(1000, 0))))

	ev := b.Record(protocol.ServerToolEvent{Tool: "web_search", Status: "completed"})
	if ev.Category != CategorySearch {
		t.Fatalf("category = %q, want search", ev.Category)
	}
	if b.ActiveMusic() != nil || b.ActiveTimer() != nil {
		t.Error("search event should not touch music/timer slots")
	}
	if b.EmergencyActive() {
		t.Error("search event should not latch emergency")
	}
	if got := b.Events(); len(got) != 1 || got[0].ID != "tool_1" {
		t.Errorf("events = %+v, want single tool_1", got)
	}
}

func TestMusicAndEmergencyTogether(t *testing.T) {
	b := NewBus()

	b.Record(protocol.ServerToolEvent{Tool: "play_radio_station", Status: "completed"})
	b.Record(protocol.ServerToolEvent{Tool: "alert_family", Status: "completed"})

	music := b.ActiveMusic()
	if music == nil || music.Tool != "play_radio_station" {
		t.Fatalf("activeMusic = %+v, want play_radio_station", music)
	}
	if !b.EmergencyActive() {
		t.Error("emergency should be latched")
	}
	if got := len(b.Events()); got != 2 {
		t.Errorf("event log has %d entries, want 2", got)
	}
}

func TestMusicSlotLatestWins(t *testing.T) {
	b := NewBus()

	b.Record(protocol.ServerToolEvent{Tool: "play_radio_station", Status: "completed"})
	b.Record(protocol.ServerToolEvent{Tool: "play_spotify", Status: "completed"})

	music := b.ActiveMusic()
	if music == nil || music.Tool != "play_spotify" {
		t.Fatalf("activeMusic = %+v, want play_spotify", music)
	}
	if got := len(b.Events()); got != 2 {
		t.Errorf("both music events should remain in the log, got %d", got)
	}
}

func TestDismissRemovesFromLogOnly(t *testing.T) {
	b := NewBus()

	ev := b.Record(protocol.ServerToolEvent{Tool: "play_music", Status: "completed"})
	b.Record(protocol.ServerToolEvent{Tool: "alert_family", Status: "completed"})

	b.Dismiss(ev.ID)

	if got := b.Events(); len(got) != 1 || got[0].Tool != "alert_family" {
		t.Fatalf("events after dismiss = %+v", got)
	}
	if b.ActiveMusic() == nil {
		t.Error("dismiss should not drop the music slot")
	}
	if !b.EmergencyActive() {
		t.Error("dismiss should not reset emergency")
	}
}

func TestDismissUnknownIDIsNoop(t *testing.T) {
	b := NewBus()
	b.Record(protocol.ServerToolEvent{Tool: "web_search", Status: "completed"})
	b.Dismiss("tool_999")
	if got := len(b.Events()); got != 1 {
		t.Errorf("log has %d entries, want 1", got)
	}
}

func TestClearResetsEverything(t *testing.T) {
	b := NewBus()
	b.Record(protocol.ServerToolEvent{Tool: "play_music", Status: "completed"})
	b.Record(protocol.ServerToolEvent{Tool: "pomodoro_timer", Status: "completed"})
	b.Record(protocol.ServerToolEvent{Tool: "alert_family", Status: "completed"})

	b.Clear()

	if len(b.Events()) != 0 {
		t.Error("log should be empty after clear")
	}
	if b.ActiveMusic() != nil || b.ActiveTimer() != nil {
		t.Error("slots should be empty after clear")
	}
	if b.EmergencyActive() {
		t.Error("emergency should reset after clear")
	}
}

func TestSetEmergencyAcknowledge(t *testing.T) {
	b := NewBus()
	b.Record(protocol.ServerToolEvent{Tool: "critical_alert", Status: "completed"})
	b.SetEmergency(false)
	if b.EmergencyActive() {
		t.Error("acknowledged emergency should read false")
	}
}

func TestLogBounded(t *testing.T) {
	b := NewBus()
	for i := 0; i < maxLogEntries+10; i++ {
		b.Record(protocol.ServerToolEvent{Tool: "web_search", Status: "completed"})
	}
	got := b.Events()
	if len(got) != maxLogEntries {
		t.Fatalf("log has %d entries, want %d", len(got), maxLogEntries)
	}
	wantOldest := fmt.Sprintf("tool_%d", 11)
	if got[0].ID != wantOldest {
		t.Errorf("oldest surviving id = %s, want %s", got[0].ID, wantOldest)
	}
}
