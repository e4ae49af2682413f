package uiactions

import (
	"testing"

	"github.com/veralabs/vera-live/pkg/engine/protocol"
)

type recorder struct {
	navigated []string
	opened    []string
	modes     []CaptureMode
	media     []string
	mediaType []MediaType
	notified  []string
	scrolled  []string
	fullscr   int
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		Navigate:   func(route string) { r.navigated = append(r.navigated, route) },
		OpenURL:    func(url, _ string) { r.opened = append(r.opened, url) },
		SwitchMode: func(mode CaptureMode) { r.modes = append(r.modes, mode) },
		PlayMedia: func(url string, typ MediaType) {
			r.media = append(r.media, url)
			r.mediaType = append(r.mediaType, typ)
		},
		ShowNotification: func(msg string) { r.notified = append(r.notified, msg) },
		ScrollTo:         func(target string) { r.scrolled = append(r.scrolled, target) },
		ToggleFullscreen: func() { r.fullscr++ },
	}
}

func TestNavigateAllowedRoute(t *testing.T) {
	var r recorder
	d := NewDispatcher(r.hooks(), nil)

	d.Execute(protocol.ServerUIAction{Action: "navigate", Target: "/dashboard"})

	if len(r.navigated) != 1 || r.navigated[0] != "/dashboard" {
		t.Fatalf("navigated = %v, want [/dashboard]", r.navigated)
	}
}

func TestNavigateDisallowedRouteIgnored(t *testing.T) {
	var r recorder
	d := NewDispatcher(r.hooks(), nil)

	d.Execute(protocol.ServerUIAction{Action: "navigate", Target: "/admin/secrets"})
	d.Execute(protocol.ServerUIAction{Action: "navigate"})

	if len(r.navigated) != 0 {
		t.Fatalf("navigated = %v, want none", r.navigated)
	}
}

func TestSwitchModeValidatesMode(t *testing.T) {
	var r recorder
	d := NewDispatcher(r.hooks(), nil)

	d.Execute(protocol.ServerUIAction{Action: "switch_mode", Mode: "camera"})
	d.Execute(protocol.ServerUIAction{Action: "switch_mode", Mode: "x-ray"})

	if len(r.modes) != 1 || r.modes[0] != ModeCamera {
		t.Fatalf("modes = %v, want [camera]", r.modes)
	}
}

func TestPlayMediaClassifiesByExtension(t *testing.T) {
	var r recorder
	d := NewDispatcher(r.hooks(), nil)

	d.Execute(protocol.ServerUIAction{Action: "play_media", URL: "https://cdn.example/clip.mp4"})
	d.Execute(protocol.ServerUIAction{Action: "play_media", URL: "https://cdn.example/song.mp3"})
	d.Execute(protocol.ServerUIAction{Action: "play_media"})

	if len(r.media) != 2 {
		t.Fatalf("media = %v, want 2 entries", r.media)
	}
	if r.mediaType[0] != MediaVideo || r.mediaType[1] != MediaAudio {
		t.Errorf("mediaType = %v, want [video audio]", r.mediaType)
	}
}

func TestShowNotificationFallsBackToTitle(t *testing.T) {
	var r recorder
	d := NewDispatcher(r.hooks(), nil)

	d.Execute(protocol.ServerUIAction{Action: "show_notification", Message: "hello"})
	d.Execute(protocol.ServerUIAction{Action: "show_notification", Title: "heads up"})
	d.Execute(protocol.ServerUIAction{Action: "show_notification"})

	want := []string{"hello", "heads up"}
	if len(r.notified) != len(want) {
		t.Fatalf("notified = %v, want %v", r.notified, want)
	}
	for i := range want {
		if r.notified[i] != want[i] {
			t.Errorf("notified[%d] = %q, want %q", i, r.notified[i], want[i])
		}
	}
}

func TestUnknownActionIsNoop(t *testing.T) {
	var r recorder
	d := NewDispatcher(r.hooks(), nil)

	d.Execute(protocol.ServerUIAction{Action: "self_destruct"})

	if len(r.navigated)+len(r.opened)+len(r.modes)+len(r.media)+len(r.notified)+len(r.scrolled)+r.fullscr != 0 {
		t.Fatal("unknown action must not trigger any hook")
	}
}

func TestNilHooksAreSafe(t *testing.T) {
	d := NewDispatcher(Hooks{}, nil)

	d.Execute(protocol.ServerUIAction{Action: "navigate", Target: "/eva"})
	d.Execute(protocol.ServerUIAction{Action: "fullscreen"})
	d.Execute(protocol.ServerUIAction{Action: "scroll_to", Target: "#results"})
}

func TestRouteAllowed(t *testing.T) {
	if !RouteAllowed("/settings") {
		t.Error("expected /settings to be allowed")
	}
	if RouteAllowed("/settings/../etc") {
		t.Error("unexpected route allowed")
	}
}
