package audio

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"
)

// ffmpegOpener provisions devices by shelling out: ffmpeg captures the mic
// and ffplay sinks playback PCM via stdin.
type ffmpegOpener struct{}

func (ffmpegOpener) OpenMic() (MicSource, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found in PATH", ErrDeviceUnavailable)
	}
	args, err := micArgs(runtime.GOOS)
	if err != nil {
		return nil, err
	}
	cmd := exec.Command("ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open ffmpeg stdout: %w", err)
	}
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %v", ErrDeviceUnavailable, err)
	}
	return &ffmpegMic{cmd: cmd, stdout: stdout}, nil
}

func (ffmpegOpener) OpenPlayback() (PlaybackDevice, error) {
	if _, err := exec.LookPath("ffplay"); err != nil {
		return nil, fmt.Errorf("%w: ffplay not found in PATH", ErrDeviceUnavailable)
	}
	p := &ffplayPlayer{}
	if err := p.startLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

func micArgs(goos string) ([]string, error) {
	switch goos {
	case "darwin":
		return []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "avfoundation", "-i", ":0",
			"-ac", "1", "-ar", fmt.Sprintf("%d", CaptureRateHz),
			"-f", "s16le", "-",
		}, nil
	case "linux":
		return []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "pulse", "-i", "default",
			"-ac", "1", "-ar", fmt.Sprintf("%d", CaptureRateHz),
			"-f", "s16le", "-",
		}, nil
	default:
		return nil, fmt.Errorf("%w: mic capture not implemented for %s", ErrDeviceUnavailable, goos)
	}
}

type ffmpegMic struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

func (m *ffmpegMic) Read(p []byte) (int, error) {
	if m.stdout == nil {
		return 0, io.EOF
	}
	return m.stdout.Read(p)
}

func (m *ffmpegMic) Close() error {
	if m.cmd != nil && m.cmd.Process != nil {
		_ = m.cmd.Process.Kill()
		_ = m.cmd.Wait()
	}
	return nil
}

// ffplayPlayer streams PCM16 into a long-lived ffplay process. Reset kills
// and restarts the process, which discards anything ffplay had buffered.
type ffplayPlayer struct {
	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

func (p *ffplayPlayer) startLocked() error {
	p.cmd = exec.Command("ffplay",
		"-nodisp",
		"-autoexit",
		"-loglevel", "error",
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", PlaybackRateHz),
		"-ac", "1",
		"-i", "pipe:0",
	)
	stdin, err := p.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open ffplay stdin: %w", err)
	}
	p.cmd.Stdout = io.Discard
	p.cmd.Stderr = io.Discard
	if err := p.cmd.Start(); err != nil {
		return fmt.Errorf("%w: start ffplay: %v", ErrDeviceUnavailable, err)
	}
	p.stdin = stdin
	return nil
}

func (p *ffplayPlayer) Write(pcm []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stdin == nil {
		return errors.New("audio: ffplay stdin is not initialized")
	}
	_, err := p.stdin.Write(pcm)
	return err
}

func (p *ffplayPlayer) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killLocked()
	return p.startLocked()
}

func (p *ffplayPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killLocked()
	return nil
}

func (p *ffplayPlayer) killLocked() {
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
		_ = p.cmd.Wait()
	}
	p.stdin = nil
}
