package audio

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"time"
)

// meterDecay pulls a level back toward silence on every sample tick so a
// burst of audio fades out instead of sticking at its peak.
const meterDecay = 0.85

// Meter tracks normalized peak levels of the mic feed and the playback
// feed, for rendering a live waveform or level bar.
type Meter struct {
	mu  sync.Mutex
	in  float64
	out float64
}

// NewMeter returns a silent meter. Engines feed one automatically; a
// shared meter (see WithMeter) outlives the engines that feed it.
func NewMeter() *Meter {
	return &Meter{}
}

func (m *Meter) feedInput(pcm []byte) {
	lvl := peakLevel(pcm)
	m.mu.Lock()
	if lvl > m.in {
		m.in = lvl
	}
	m.mu.Unlock()
}

func (m *Meter) feedOutput(pcm []byte) {
	lvl := peakLevel(pcm)
	m.mu.Lock()
	if lvl > m.out {
		m.out = lvl
	}
	m.mu.Unlock()
}

// Levels returns the current input and output levels in [0, 1] and decays
// both for the next reading.
func (m *Meter) Levels() (in, out float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, out = m.in, m.out
	m.in *= meterDecay
	m.out *= meterDecay
	return in, out
}

// Run polls the meter at the given interval and hands each reading to fn
// until ctx is cancelled. fn runs on the sampling goroutine.
func (m *Meter) Run(ctx context.Context, interval time.Duration, fn func(in, out float64)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(m.Levels())
		}
	}
}

// peakLevel returns the largest absolute sample in a PCM16 buffer,
// normalized to [0, 1].
func peakLevel(pcm []byte) float64 {
	var peak int16
	for i := 0; i+1 < len(pcm); i += 2 {
		s := int16(binary.LittleEndian.Uint16(pcm[i:]))
		if s == math.MinInt16 {
			return 1
		}
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return float64(peak) / math.MaxInt16
}
