// Package protocol defines the JSON frames exchanged with the assistant
// service over its live WebSocket endpoint, plus helpers to derive the
// endpoint URL from an HTTP base.
package protocol

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// LivePath is the fixed WebSocket path on the assistant service.
const LivePath = "/ws/browser"

// Session lifecycle signals carried by status frames.
const (
	StatusReady        = "ready"
	StatusInterrupted  = "interrupted"
	StatusTurnComplete = "turn_complete"
)

// TextOriginTyped marks user-typed outbound text; TextOriginUser marks an
// inbound echo of recognized user speech.
const (
	TextOriginTyped = "user_typed"
	TextOriginUser  = "user"
)

type DecodeError struct {
	Code    string
	Message string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func badFrame(message string) *DecodeError {
	return &DecodeError{Code: "bad_frame", Message: message}
}

// ClientConfig is sent once, immediately after the transport opens. Data
// carries the caller's subject identifier.
type ClientConfig struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Data string `json:"data"`
}

// ClientAudio carries one base64 PCM16 microphone chunk.
type ClientAudio struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// ClientVideo carries one base64 JPEG frame.
type ClientVideo struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// ClientText carries user-originated text input.
type ClientText struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Data string `json:"data"`
}

// ServerStatus is a session lifecycle signal. Text values beginning with
// "error" are terminal for the session.
type ServerStatus struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// IsError reports whether the status signals a server-side failure.
func (s ServerStatus) IsError() bool {
	return strings.HasPrefix(strings.TrimSpace(s.Text), "error")
}

// ServerText is either an echo of recognized user speech (Data == "user")
// or a live assistant subtitle.
type ServerText struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Data string `json:"data"`
}

// ServerAudio carries one base64 PCM16 assistant speech chunk at 24 kHz.
type ServerAudio struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// ServerSpeaker is a speaker-recognition update; each frame replaces the
// previous one wholesale.
type ServerSpeaker struct {
	Type        string  `json:"type"`
	Name        string  `json:"name"`
	Confidence  float64 `json:"confidence"`
	Emotion     string  `json:"emotion"`
	PitchHz     float64 `json:"pitch_hz"`
	Energy      float64 `json:"energy"`
	StressLevel float64 `json:"stress_level"`
	IsNew       bool    `json:"is_new"`
}

// ServerToolEvent is an asynchronous tool result.
type ServerToolEvent struct {
	Type   string         `json:"type"`
	Tool   string         `json:"tool"`
	Data   map[string]any `json:"tool_data"`
	Status string         `json:"status"`
}

// ServerUIAction is a UI command issued by the service. Action is the
// command kind; the remaining fields are kind-specific.
type ServerUIAction struct {
	Type    string `json:"type"`
	Action  string `json:"action"`
	Target  string `json:"target,omitempty"`
	URL     string `json:"url,omitempty"`
	Mode    string `json:"mode,omitempty"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}

// ServerUnknown wraps a frame whose type this client does not recognize.
// The protocol is forward compatible: callers must ignore these.
type ServerUnknown struct {
	Type string
	Raw  json.RawMessage
}

// DecodeServerMessage decodes one inbound text frame into its typed form.
// Unknown frame types decode into ServerUnknown rather than failing.
func DecodeServerMessage(data []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, badFrame("invalid json frame")
	}
	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, badFrame("frame missing type")
	}

	switch typ {
	case "status":
		var msg ServerStatus
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badFrame("invalid status frame")
		}
		return msg, nil
	case "text":
		var msg ServerText
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badFrame("invalid text frame")
		}
		return msg, nil
	case "audio":
		var msg ServerAudio
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badFrame("invalid audio frame")
		}
		if strings.TrimSpace(msg.Data) == "" {
			return nil, badFrame("audio.data is required")
		}
		return msg, nil
	case "speaker":
		var msg ServerSpeaker
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badFrame("invalid speaker frame")
		}
		return msg, nil
	case "tool_event":
		var msg ServerToolEvent
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badFrame("invalid tool_event frame")
		}
		if strings.TrimSpace(msg.Tool) == "" {
			return nil, badFrame("tool_event.tool is required")
		}
		return msg, nil
	case "ui_action":
		var msg ServerUIAction
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badFrame("invalid ui_action frame")
		}
		return msg, nil
	default:
		return ServerUnknown{Type: typ, Raw: append(json.RawMessage(nil), data...)}, nil
	}
}

// NormalizeSubjectID strips everything but digits from a subject identifier
// (the service expects the bare document number).
func NormalizeSubjectID(id string) string {
	var b strings.Builder
	for _, r := range id {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WebSocketEndpoint derives the live WebSocket URL from an HTTP(S) base URL:
// wss iff the base is served over TLS.
func WebSocketEndpoint(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(u.Scheme)) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
		// already websocket scheme.
	default:
		return "", fmt.Errorf("base url must use http(s) or ws(s), got %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url must include a host")
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + LivePath
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
