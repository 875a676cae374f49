package telegram

import (
	"sync"
	"time"
)

// Tracker records, per client, the remaining flood-wait cooldown. An entry
// exists exactly while its client is rate-limited: recorded on a FLOOD_WAIT
// error, counted down by a background goroutine, deleted when it reaches
// zero. Reads never observe a negative value.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*floodEntry

	// countdown resolution: every interval, step seconds are subtracted
	interval time.Duration
	step     int
}

type floodEntry struct {
	remaining int
	gen       uint64
}

// NewTracker creates a tracker with the production 10 second countdown tick.
func NewTracker() *Tracker {
	return newTracker(10*time.Second, 10)
}

func newTracker(interval time.Duration, step int) *Tracker {
	return &Tracker{
		entries:  make(map[string]*floodEntry),
		interval: interval,
		step:     step,
	}
}

// Flood records a cooldown for a client and starts its countdown. A second
// flood for the same client supersedes the running countdown: the entry gets
// a new generation and the stale goroutine exits on its next tick.
func (t *Tracker) Flood(name string, seconds int) {
	t.mu.Lock()
	e, ok := t.entries[name]
	if !ok {
		e = &floodEntry{}
		t.entries[name] = e
	}
	e.remaining = seconds
	e.gen++
	gen := e.gen
	t.mu.Unlock()

	go t.countdown(name, gen)
}

// countdown ticks until the entry expires or a newer flood takes over.
func (t *Tracker) countdown(name string, gen uint64) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for range ticker.C {
		t.mu.Lock()
		e, ok := t.entries[name]
		if !ok || e.gen != gen {
			t.mu.Unlock()
			return
		}
		e.remaining -= t.step
		if e.remaining <= 0 {
			delete(t.entries, name)
			t.mu.Unlock()
			return
		}
		t.mu.Unlock()
	}
}

// Flooded reports whether a client is currently in cooldown.
func (t *Tracker) Flooded(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[name]
	return ok
}

// Remaining returns the remaining cooldown for a client.
func (t *Tracker) Remaining(name string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[name]
	if !ok {
		return 0, false
	}
	return e.remaining, true
}

// Min returns the smallest remaining cooldown across all flooded clients.
func (t *Tracker) Min() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	min, found := 0, false
	for _, e := range t.entries {
		if !found || e.remaining < min {
			min = e.remaining
			found = true
		}
	}
	return min, found
}

// Snapshot returns a copy of the flood state, used for diagnostics when the
// whole pool is exhausted.
func (t *Tracker) Snapshot() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(t.entries))
	for name, e := range t.entries {
		out[name] = e.remaining
	}
	return out
}
