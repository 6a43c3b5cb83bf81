package perf

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAndStats(t *testing.T) {
	tracker := NewTracker()

	tracker.Observe("action_execute", 10*time.Millisecond)
	tracker.Observe("action_execute", 30*time.Millisecond)
	tracker.Observe("action_execute", 20*time.Millisecond)

	stats, ok := tracker.Stats("action_execute")
	require.True(t, ok)

	assert.Equal(t, "action_execute", stats.Operation)
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, 10*time.Millisecond, stats.Min)
	assert.Equal(t, 30*time.Millisecond, stats.Max)
	assert.Equal(t, 20*time.Millisecond, stats.Mean)
	assert.Equal(t, 20*time.Millisecond, stats.Last)
}

func TestStatsForUnknownOperation(t *testing.T) {
	tracker := NewTracker()

	_, ok := tracker.Stats("never_observed")
	assert.False(t, ok)
}

func TestWindowEviction(t *testing.T) {
	tracker := NewTrackerWithWindow(4)

	for i := 1; i <= 6; i++ {
		tracker.Observe("op", time.Duration(i)*time.Millisecond)
	}

	stats, ok := tracker.Stats("op")
	require.True(t, ok)

	// Only the last 4 samples are retained: 3, 4, 5, 6 ms.
	assert.Equal(t, 4, stats.Count)
	assert.Equal(t, 3*time.Millisecond, stats.Min)
	assert.Equal(t, 6*time.Millisecond, stats.Max)
	assert.Equal(t, 6*time.Millisecond, stats.Last)
}

func TestTrack(t *testing.T) {
	tracker := NewTracker()

	ran := false
	tracker.Track("op", func() { ran = true })

	assert.True(t, ran)

	stats, ok := tracker.Stats("op")
	require.True(t, ok)
	assert.Equal(t, 1, stats.Count)
}

func TestSnapshot(t *testing.T) {
	tracker := NewTracker()

	tracker.Observe("trigger_match", time.Millisecond)
	tracker.Observe("action_execute", 2*time.Millisecond)

	snapshot := tracker.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, 1, snapshot["trigger_match"].Count)
	assert.Equal(t, 1, snapshot["action_execute"].Count)
}

func TestConcurrentObserve(t *testing.T) {
	tracker := NewTrackerWithWindow(64)

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 100 {
				tracker.Observe("op", time.Millisecond)
			}
		}()
	}

	wg.Wait()

	stats, ok := tracker.Stats("op")
	require.True(t, ok)
	assert.Equal(t, 64, stats.Count)
}
