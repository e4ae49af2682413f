package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"time"
)

// Connected chime: two short sine tones, C5 then G5, at low volume.
const (
	chimeLowHz   = 523.0
	chimeHighHz  = 784.0
	chimeToneLen = 180 * time.Millisecond
	chimeVolume  = 0.12
)

// Chime plays the connected notification sound through the playback path.
// It is scheduled like any other chunk, so it never overlaps queued speech.
func (e *Engine) Chime() error {
	e.mu.Lock()
	player := e.player
	e.mu.Unlock()
	if player == nil {
		return errors.New("audio: devices not acquired")
	}

	pcm := append(sineTone(chimeLowHz, chimeToneLen), sineTone(chimeHighHz, chimeToneLen)...)
	e.sched.schedule(PCMDuration(len(pcm)))
	return player.Write(pcm)
}

// sineTone renders a fading sine wave as PCM16 at PlaybackRateHz.
func sineTone(freq float64, d time.Duration) []byte {
	n := int(d.Milliseconds()) * PlaybackRateHz / 1000
	out := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		fade := 1 - float64(i)/float64(n)
		v := chimeVolume * fade * math.Sin(2*math.Pi*freq*float64(i)/PlaybackRateHz)
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(v*math.MaxInt16)))
	}
	return out
}
