package audio

import (
	"errors"
	"io"
)

// Audio device errors. Adapters wrap these so callers can distinguish a
// denied capture permission from missing hardware.
var (
	ErrPermissionDenied  = errors.New("audio: capture permission denied")
	ErrDeviceUnavailable = errors.New("audio: device unavailable")
)

// MicSource delivers raw little-endian PCM16 mono samples at CaptureRateHz.
type MicSource interface {
	io.ReadCloser
}

// PlaybackDevice accepts raw little-endian PCM16 mono samples at
// PlaybackRateHz. Reset discards any buffered audio and prepares the device
// for the next write.
type PlaybackDevice interface {
	Write(pcm []byte) error
	Reset() error
	Close() error
}

// DeviceOpener provisions the capture and playback endpoints. The default
// opener shells out to ffmpeg and ffplay; tests substitute fakes.
type DeviceOpener interface {
	OpenMic() (MicSource, error)
	OpenPlayback() (PlaybackDevice, error)
}
