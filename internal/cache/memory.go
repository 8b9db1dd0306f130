package cache

import (
	"context"
	"sync"
	"time"
)

const memorySweepInterval = time.Minute

// MemoryCounter keeps windows in process memory, so limits are per instance.
// Closed windows are swept lazily while hits arrive.
type MemoryCounter struct {
	mu        sync.Mutex
	windows   map[string]memoryWindow
	now       func() time.Time
	nextSweep time.Time
}

type memoryWindow struct {
	hits int64
	end  time.Time
}

// NewMemoryCounter returns an empty in-process counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{windows: make(map[string]memoryWindow), now: time.Now}
}

// Hit records one hit for key.
func (m *MemoryCounter) Hit(_ context.Context, key string, window time.Duration) (Window, error) {
	if m == nil {
		return Window{}, errNilCounter
	}
	window = windowOrDefault(window)

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if !now.Before(m.nextSweep) {
		for k, w := range m.windows {
			if !now.Before(w.end) {
				delete(m.windows, k)
			}
		}
		m.nextSweep = now.Add(memorySweepInterval)
	}

	w, ok := m.windows[key]
	if !ok || !now.Before(w.end) {
		w = memoryWindow{end: now.Add(window)}
	}
	w.hits++
	m.windows[key] = w

	return Window{Hits: w.hits, ResetIn: w.end.Sub(now)}, nil
}
