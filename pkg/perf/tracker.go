// Package perf keeps rolling per-operation timing statistics for the live
// engine and the test runner.
package perf

import (
	"sync"
	"time"
)

const defaultWindow = 256

// Stats summarizes the retained samples of one operation.
type Stats struct {
	Operation string        `json:"operation"`
	Count     int           `json:"count"`
	Min       time.Duration `json:"min"`
	Max       time.Duration `json:"max"`
	Mean      time.Duration `json:"mean"`
	Last      time.Duration `json:"last"`
}

// Tracker records durations per operation in a fixed-size ring. Safe for
// concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	window  int
	samples map[string]*ring
}

type ring struct {
	values []time.Duration
	next   int
	filled bool
}

func NewTracker() *Tracker {
	return NewTrackerWithWindow(defaultWindow)
}

func NewTrackerWithWindow(window int) *Tracker {
	if window <= 0 {
		window = defaultWindow
	}

	return &Tracker{
		window:  window,
		samples: make(map[string]*ring),
	}
}

// Observe records one sample for the operation.
func (t *Tracker) Observe(operation string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.samples[operation]
	if !ok {
		r = &ring{values: make([]time.Duration, t.window)}
		t.samples[operation] = r
	}

	r.values[r.next] = d
	r.next++

	if r.next == t.window {
		r.next = 0
		r.filled = true
	}
}

// Track measures fn and records its duration under the operation name.
func (t *Tracker) Track(operation string, fn func()) {
	start := time.Now()
	fn()
	t.Observe(operation, time.Since(start))
}

// Stats returns the rolling statistics for one operation.
func (t *Tracker) Stats(operation string) (Stats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.samples[operation]
	if !ok {
		return Stats{}, false
	}

	return r.stats(operation), true
}

// Snapshot returns statistics for every tracked operation.
func (t *Tracker) Snapshot() map[string]Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snapshot := make(map[string]Stats, len(t.samples))
	for operation, r := range t.samples {
		snapshot[operation] = r.stats(operation)
	}

	return snapshot
}

func (r *ring) stats(operation string) Stats {
	count := r.next
	if r.filled {
		count = len(r.values)
	}

	if count == 0 {
		return Stats{Operation: operation}
	}

	stats := Stats{
		Operation: operation,
		Count:     count,
		Min:       r.values[0],
		Max:       r.values[0],
	}

	var total time.Duration

	for i := range count {
		v := r.values[i]
		total += v

		if v < stats.Min {
			stats.Min = v
		}

		if v > stats.Max {
			stats.Max = v
		}
	}

	stats.Mean = total / time.Duration(count)

	last := r.next - 1
	if last < 0 {
		last = len(r.values) - 1
	}

	stats.Last = r.values[last]

	return stats
}
