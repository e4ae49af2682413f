package audio

import (
	"sync"
	"time"
)

// maxScheduledSources caps how many queued chunks the scheduler tracks at
// once. When the cap is exceeded the oldest chunk is evicted; its audio is
// already in flight, eviction only drops the bookkeeping.
const maxScheduledSources = 64

// scheduledSource is one queued playback chunk.
type scheduledSource struct {
	id    int64
	start time.Time
	end   time.Time
}

// scheduler assigns gapless start times to playback chunks. Each chunk
// starts at the later of the previous chunk's end and the current time, so
// back-to-back chunks play seamlessly and a chunk arriving after a silence
// starts immediately.
type scheduler struct {
	now func() time.Time

	mu      sync.Mutex
	seq     int64
	nextAt  time.Time
	sources []scheduledSource
}

func newScheduler(now func() time.Time) *scheduler {
	if now == nil {
		now = time.Now
	}
	return &scheduler{now: now}
}

// schedule reserves a playback slot for a chunk of the given duration and
// returns its start time.
func (s *scheduler) schedule(d time.Duration) scheduledSource {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	if s.nextAt.After(start) {
		start = s.nextAt
	}
	s.seq++
	src := scheduledSource{id: s.seq, start: start, end: start.Add(d)}
	s.nextAt = src.end

	s.sources = append(s.sources, src)
	if len(s.sources) > maxScheduledSources {
		s.sources = s.sources[1:]
	}
	s.pruneLocked()
	return src
}

// reset drops every queued chunk and rewinds the gapless pointer to now, so
// the next chunk starts immediately.
func (s *scheduler) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = nil
	s.nextAt = s.now()
}

// playing reports whether scheduled audio extends past the current time.
func (s *scheduler) playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return len(s.sources) > 0
}

// pending returns how many chunks are still tracked.
func (s *scheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return len(s.sources)
}

// buffered returns how much scheduled audio remains past the current time.
func (s *scheduler) buffered() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	rem := s.nextAt.Sub(s.now())
	if rem < 0 {
		return 0
	}
	return rem
}

func (s *scheduler) pruneLocked() {
	now := s.now()
	i := 0
	for i < len(s.sources) && !s.sources[i].end.After(now) {
		i++
	}
	if i > 0 {
		s.sources = s.sources[i:]
	}
}
