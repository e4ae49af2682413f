package video

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
)

// ffmpegSourceOpener shells out to ffmpeg, which grabs the screen or the
// camera at one frame per second and emits an MJPEG stream on stdout. The
// scale filter keeps the longest edge at MaxFrameEdge without upscaling.
type ffmpegSourceOpener struct{}

func (ffmpegSourceOpener) Open(mode Mode) (FrameSource, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found in PATH", ErrCaptureUnavailable)
	}
	in, err := inputArgs(mode, runtime.GOOS)
	if err != nil {
		return nil, err
	}
	args := append([]string{"-hide_banner", "-loglevel", "error"}, in...)
	args = append(args,
		"-r", "1",
		"-vf", fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease", MaxFrameEdge, MaxFrameEdge),
		"-q:v", "7",
		"-f", "mjpeg", "-",
	)
	cmd := exec.Command("ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open ffmpeg stdout: %w", err)
	}
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %v", ErrCaptureUnavailable, err)
	}
	return &ffmpegSource{cmd: cmd, stdout: stdout, frames: newFrameScanner(stdout)}, nil
}

func inputArgs(mode Mode, goos string) ([]string, error) {
	switch {
	case mode == ModeCamera && goos == "linux":
		return []string{"-f", "v4l2", "-i", "/dev/video0"}, nil
	case mode == ModeCamera && goos == "darwin":
		return []string{"-f", "avfoundation", "-framerate", "30", "-i", "0:none"}, nil
	case mode == ModeScreen && goos == "linux":
		return []string{"-f", "x11grab", "-i", ":0.0"}, nil
	case mode == ModeScreen && goos == "darwin":
		return []string{"-f", "avfoundation", "-framerate", "30", "-i", "1:none"}, nil
	default:
		return nil, fmt.Errorf("%w: %s capture not implemented for %s", ErrCaptureUnavailable, mode, goos)
	}
}

type ffmpegSource struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	frames *frameScanner
}

func (s *ffmpegSource) Next() ([]byte, error) {
	return s.frames.Next()
}

func (s *ffmpegSource) Close() error {
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	return nil
}
