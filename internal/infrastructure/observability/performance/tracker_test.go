package performance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkerLifecycle(t *testing.T) {
	tracker := NewTracker(nil)

	marker := tracker.StartOperation("editor:add", "session-1")
	marker.AddMetadata("spotlights", 3)
	require.Len(t, tracker.GetActiveOperations(), 1)

	marker.Complete()
	marker.Complete()

	assert.Empty(t, tracker.GetActiveOperations())
	recent := tracker.GetRecentRecords(time.Minute)
	require.Len(t, recent, 1)
	assert.Equal(t, "editor:add", recent[0].Operation)
	assert.True(t, recent[0].Success)
	assert.True(t, recent[0].Completed)
	assert.Equal(t, 3, recent[0].Metadata["spotlights"])
}

func TestMarkerError(t *testing.T) {
	tracker := NewTracker(nil)

	marker := tracker.StartOperation("preview:png", "")
	marker.SetError(nil)
	assert.True(t, marker.Snapshot().Success)

	marker.SetError(errors.New("encode failed"))
	marker.Complete()

	stats := tracker.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].Failures)
	assert.Equal(t, HealthUnhealthy, tracker.Health())
}

func TestStatsAggregate(t *testing.T) {
	tracker := NewTracker(nil)
	for i := 0; i < 3; i++ {
		tracker.StartOperation("render:project", "").Complete()
	}
	tracker.StartOperation("codegen:generate", "").Complete()

	stats := tracker.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, "codegen:generate", stats[0].Operation)
	assert.Equal(t, 3, stats[1].Count)
	assert.Equal(t, HealthHealthy, tracker.Health())
}

func TestMaxRecords(t *testing.T) {
	cfg := DefaultTrackerConfig()
	cfg.MaxRecords = 5
	tracker := NewTracker(cfg)

	for i := 0; i < 12; i++ {
		tracker.StartOperation("editor:update", "").Complete()
	}
	assert.Len(t, tracker.GetRecentRecords(time.Hour), 5)
}

func TestThresholdFor(t *testing.T) {
	tracker := NewTracker(nil)
	assert.Equal(t, 20*time.Millisecond, tracker.ThresholdFor("editor:add"))
	assert.Equal(t, time.Second, tracker.ThresholdFor("preview:webp"))
	assert.Equal(t, 500*time.Millisecond, tracker.ThresholdFor("http:health"))
}

func TestSlowOperationAlerts(t *testing.T) {
	cfg := DefaultTrackerConfig()
	cfg.PrefixThresholds = map[string]time.Duration{"editor:": time.Nanosecond}
	tracker := NewTracker(cfg)

	marker := tracker.StartOperation("editor:mirror", "")
	time.Sleep(time.Millisecond)
	marker.Complete()

	alerts := tracker.GetAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertWarning, alerts[0].Severity)
	assert.Equal(t, "editor:mirror", alerts[0].Operation)
}

func TestContextCompletion(t *testing.T) {
	tracker := NewTracker(nil)
	ctx, cancel := context.WithCancel(context.Background())

	tracker.StartOperationWithContext(ctx, "preview:webp", "")
	cancel()

	require.Eventually(t, func() bool {
		return len(tracker.GetActiveOperations()) == 0
	}, 2*time.Second, 5*time.Millisecond)

	rec := tracker.GetRecentRecords(time.Minute)[0]
	assert.False(t, rec.Success)
	assert.Equal(t, context.Canceled.Error(), rec.Error)
}

func TestCleanup(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.StartOperation("editor:add", "").Complete()

	assert.Equal(t, 0, tracker.Cleanup(time.Hour))
	time.Sleep(2 * time.Millisecond)
	assert.Equal(t, 1, tracker.Cleanup(time.Millisecond))
	assert.Empty(t, tracker.Stats())

	snap := tracker.TakeSnapshot()
	assert.Equal(t, HealthUnknown, snap.Health)
}
