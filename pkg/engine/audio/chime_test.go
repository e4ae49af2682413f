package audio

import (
	"testing"
	"time"
)

func TestChimeWritesTwoTones(t *testing.T) {
	player := &fakePlayer{}
	e := newTestEngine(t, fakeOpener{mic: newFakeMic(), player: player})
	if err := e.Acquire(); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if err := e.Chime(); err != nil {
		t.Fatalf("chime: %v", err)
	}

	player.mu.Lock()
	defer player.mu.Unlock()
	if len(player.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(player.writes))
	}
	want := 2 * len(sineTone(chimeLowHz, chimeToneLen))
	if len(player.writes[0]) != want {
		t.Errorf("chime PCM = %d bytes, want %d", len(player.writes[0]), want)
	}
	if got := e.Buffered(); got != 2*chimeToneLen {
		t.Errorf("buffered = %v, want %v", got, 2*chimeToneLen)
	}
}

func TestChimeRequiresAcquiredDevices(t *testing.T) {
	e := newTestEngine(t, fakeOpener{mic: newFakeMic(), player: &fakePlayer{}})
	if err := e.Chime(); err == nil {
		t.Fatal("chime without devices should fail")
	}
}

func TestSineToneIsBoundedAndFades(t *testing.T) {
	pcm := sineTone(chimeLowHz, 50*time.Millisecond)
	if len(pcm) != 2*50*PlaybackRateHz/1000 {
		t.Fatalf("tone length = %d bytes", len(pcm))
	}
	vol := float64(chimeVolume)
	limit := int16(vol*32767) + 1
	for i := 0; i < len(pcm); i += 2 {
		v := int16(uint16(pcm[i]) | uint16(pcm[i+1])<<8)
		if v > limit || v < -limit {
			t.Fatalf("sample %d = %d exceeds volume limit %d", i/2, v, limit)
		}
	}
}
