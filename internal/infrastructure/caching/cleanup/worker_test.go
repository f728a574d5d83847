package cleanup

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/AtRiskMedia/spotlight-go/internal/domain/entities/scene"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepExpiresIdleSessions(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store := stores.NewEditorSessionStore(0, nil)
	store.SetClock(func() time.Time { return now })

	_, err := store.Create("idle", scene.NewScene())
	require.NoError(t, err)
	now = now.Add(50 * time.Minute)
	_, err = store.Create("busy", scene.NewScene())
	require.NoError(t, err)
	now = now.Add(20 * time.Minute)

	var notified []string
	w := NewWorker(store, &Config{CleanupInterval: time.Minute, SessionTTL: time.Hour, VerboseReporting: true},
		logging.NewDiscardLogger(), func(ids []string) { notified = append(notified, ids...) })
	var out bytes.Buffer
	w.out = &out
	w.SetReportCapacity(10)

	assert.Equal(t, []string{"idle"}, w.Sweep())
	assert.Equal(t, []string{"idle"}, notified)
	assert.Equal(t, []string{"busy"}, store.IDs())
	assert.Contains(t, out.String(), "PERIODIC SESSION CLEANUP")
	assert.Contains(t, out.String(), "expired:")
	assert.Contains(t, out.String(), "1 expired")
	assert.NotContains(t, out.String(), "WARNING")
}

func TestSweepReportsNearCapacity(t *testing.T) {
	store := stores.NewEditorSessionStore(0, nil)
	for _, id := range []string{"a", "b", "c"} {
		_, err := store.Create(id, scene.NewScene())
		require.NoError(t, err)
	}

	w := NewWorker(store, &Config{CleanupInterval: time.Minute, SessionTTL: time.Hour, VerboseReporting: true},
		logging.NewDiscardLogger(), nil)
	var out bytes.Buffer
	w.out = &out

	w.SetReportCapacity(3)
	assert.Empty(t, w.Sweep())
	assert.Contains(t, out.String(), "no expired sessions")
	assert.Contains(t, out.String(), "WARNING: ")
	assert.Contains(t, out.String(), "3 of 3 editor sessions in use")

	out.Reset()
	w.SetReportCapacity(10)
	w.Sweep()
	assert.NotContains(t, out.String(), "WARNING")
}

func TestStartStopsOnCancel(t *testing.T) {
	store := stores.NewEditorSessionStore(0, nil)
	w := NewWorker(store, &Config{CleanupInterval: time.Millisecond, SessionTTL: time.Hour}, logging.NewDiscardLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
