package cleanup

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/logging"
)

// nearCapacity is the share of the session cap that triggers a warning.
const nearCapacity = 0.9

// ExpireFunc is told which sessions a sweep removed.
type ExpireFunc func(sessionIDs []string)

// Worker expires idle editor sessions in the background
type Worker struct {
	store    *stores.EditorSessionStore
	config   *Config
	logger   *logging.ChanneledLogger
	onExpire ExpireFunc
	capacity int
	out      io.Writer
}

// NewWorker creates a new cleanup worker with injected configuration
func NewWorker(store *stores.EditorSessionStore, config *Config, logger *logging.ChanneledLogger, onExpire ExpireFunc) *Worker {
	return &Worker{
		store:    store,
		config:   config,
		logger:   logger,
		onExpire: onExpire,
		out:      os.Stdout,
	}
}

// SetReportCapacity includes the session cap in verbose reports.
func (w *Worker) SetReportCapacity(capacity int) { w.capacity = capacity }

// Start runs sweeps at the configured interval until ctx is cancelled
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.CleanupInterval)
	defer ticker.Stop()

	w.logger.Session().Info("Session cleanup worker started",
		"interval", w.config.CleanupInterval, "ttl", w.config.SessionTTL, "verbose", w.config.VerboseReporting)

	for {
		select {
		case <-ctx.Done():
			w.logger.Shutdown().Info("Session cleanup worker stopping")
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep removes expired sessions once and returns their ids.
func (w *Worker) Sweep() []string {
	start := time.Now()
	expired := w.store.PurgeExpired(w.config.SessionTTL)

	if len(expired) > 0 && w.onExpire != nil {
		w.onExpire(expired)
	}

	for _, id := range expired {
		w.logger.LogSessionEvent("expired", id, w.store.Count())
	}

	if w.config.VerboseReporting {
		active := w.store.Count()
		reporter := NewReporter(w.out)
		reporter.LogStage("PERIODIC SESSION CLEANUP")
		io.WriteString(w.out, reporter.SessionReport(active, len(expired), w.capacity, time.Now()))
		if len(expired) == 0 {
			reporter.LogInfo("Session cleanup completed - no expired sessions (%v)", time.Since(start))
		} else {
			reporter.LogSuccess("Session cleanup completed - %d expired (%v)", len(expired), time.Since(start))
		}
		if w.capacity > 0 && float64(active) >= nearCapacity*float64(w.capacity) {
			reporter.LogWarning("%d of %d editor sessions in use", active, w.capacity)
		}
	}
	if len(expired) > 0 {
		w.logger.Session().Info("Session cleanup finished", "expired", len(expired), "duration", time.Since(start))
	}
	return expired
}
