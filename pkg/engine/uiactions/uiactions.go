// Package uiactions executes assistant-requested interface actions against
// host-provided hooks. Actions are untrusted input: navigation is restricted
// to an allow-list and unknown actions are logged and dropped.
package uiactions

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/veralabs/vera-live/pkg/engine/protocol"
)

// MediaType distinguishes play_media payloads by URL extension.
type MediaType string

const (
	MediaAudio MediaType = "audio"
	MediaVideo MediaType = "video"
)

// CaptureMode is the visual capture mode a switch_mode action selects.
type CaptureMode string

const (
	ModeVoice  CaptureMode = "voice"
	ModeScreen CaptureMode = "screen"
	ModeCamera CaptureMode = "camera"
)

// allowedRoutes is the fixed set of application routes the assistant may
// navigate to. Anything else is ignored.
var allowedRoutes = map[string]struct{}{
	"/dashboard":         {},
	"/detection":         {},
	"/patients":          {},
	"/samples":           {},
	"/zoom":              {},
	"/microscopy":        {},
	"/tuberculose":       {},
	"/esquistossomose":   {},
	"/doenca-sono":       {},
	"/anemia-falciforme": {},
	"/epidemio/mapa":     {},
	"/galeria":           {},
	"/reports":           {},
	"/clinics":           {},
	"/users":             {},
	"/settings":          {},
	"/profile":           {},
	"/comunicacoes":      {},
	"/eva":               {},
}

var videoExtRe = regexp.MustCompile(`\.(mp4|webm|ogg|mov)`)

// Hooks are the host callbacks a Dispatcher drives. Nil hooks make the
// corresponding action a no-op.
type Hooks struct {
	Navigate         func(route string)
	OpenURL          func(url, title string)
	SwitchMode       func(mode CaptureMode)
	PlayMedia        func(url string, typ MediaType)
	ShowNotification func(message string)
	ScrollTo         func(target string)
	ToggleFullscreen func()
}

// Dispatcher validates and executes server-driven interface actions.
type Dispatcher struct {
	hooks Hooks
	log   *slog.Logger
}

// NewDispatcher builds a dispatcher over the given hooks. A nil logger
// falls back to slog.Default.
func NewDispatcher(hooks Hooks, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{hooks: hooks, log: log}
}

// RouteAllowed reports whether the assistant may navigate to route.
func RouteAllowed(route string) bool {
	_, ok := allowedRoutes[route]
	return ok
}

// Execute runs a single action. Malformed or disallowed actions are logged
// and ignored; Execute never fails.
func (d *Dispatcher) Execute(a protocol.ServerUIAction) {
	switch a.Action {
	case "navigate":
		if a.Target == "" || !RouteAllowed(a.Target) {
			d.log.Warn("navigation to disallowed route ignored", "target", a.Target)
			return
		}
		if d.hooks.Navigate != nil {
			d.hooks.Navigate(a.Target)
		}

	case "open_url":
		if a.URL == "" {
			return
		}
		if d.hooks.OpenURL != nil {
			d.hooks.OpenURL(a.URL, a.Title)
		}

	case "switch_mode":
		mode := CaptureMode(a.Mode)
		switch mode {
		case ModeVoice, ModeScreen, ModeCamera:
		default:
			d.log.Warn("unknown capture mode ignored", "mode", a.Mode)
			return
		}
		if d.hooks.SwitchMode != nil {
			d.hooks.SwitchMode(mode)
		}

	case "play_media":
		if a.URL == "" {
			return
		}
		if d.hooks.PlayMedia != nil {
			d.hooks.PlayMedia(a.URL, ClassifyMedia(a.URL))
		}

	case "show_notification":
		msg := a.Message
		if msg == "" {
			msg = a.Title
		}
		if msg == "" {
			return
		}
		if d.hooks.ShowNotification != nil {
			d.hooks.ShowNotification(msg)
		}

	case "scroll_to":
		if a.Target == "" {
			return
		}
		if d.hooks.ScrollTo != nil {
			d.hooks.ScrollTo(a.Target)
		}

	case "fullscreen":
		if d.hooks.ToggleFullscreen != nil {
			d.hooks.ToggleFullscreen()
		}

	default:
		d.log.Warn("unknown interface action ignored", "action", a.Action)
	}
}

// ClassifyMedia guesses audio vs video from the URL's extension.
func ClassifyMedia(url string) MediaType {
	if videoExtRe.MatchString(strings.ToLower(url)) {
		return MediaVideo
	}
	return MediaAudio
}
