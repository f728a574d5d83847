package performance

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// Tracker keeps in-flight markers and a bounded history of completed ones.
type Tracker struct {
	active    map[uint64]*Marker
	completed []Record
	alerts    []Alert
	nextID    uint64
	config    *TrackerConfig
	started   time.Time
	mu        sync.RWMutex
}

// TrackerConfig contains configuration options for the performance tracker
type TrackerConfig struct {
	MaxRecords   int  `json:"maxRecords"`
	MaxAlerts    int  `json:"maxAlerts"`
	EnableAlerts bool `json:"enableAlerts"`

	// SlowThreshold applies to every operation.
	SlowThreshold time.Duration `json:"slowThreshold"`
	// CriticalThreshold marks an operation as a critical alert.
	CriticalThreshold time.Duration `json:"criticalThreshold"`
	// PrefixThresholds override SlowThreshold for operations whose name
	// starts with the key, e.g. "editor:".
	PrefixThresholds map[string]time.Duration `json:"prefixThresholds"`
}

// DefaultTrackerConfig returns a sensible default configuration
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		MaxRecords:        2000,
		MaxAlerts:         200,
		EnableAlerts:      true,
		SlowThreshold:     500 * time.Millisecond,
		CriticalThreshold: 2 * time.Second,
		PrefixThresholds: map[string]time.Duration{
			"editor:":  20 * time.Millisecond,
			"render:":  20 * time.Millisecond,
			"codegen:": 50 * time.Millisecond,
			"preview:": time.Second,
		},
	}
}

// NewTracker creates a new performance tracker with the given configuration
func NewTracker(config *TrackerConfig) *Tracker {
	if config == nil {
		config = DefaultTrackerConfig()
	}
	return &Tracker{
		active:  make(map[uint64]*Marker),
		config:  config,
		started: time.Now(),
	}
}

// StartOperation creates and tracks a new marker. The marker assumes success
// until told otherwise.
func (t *Tracker) StartOperation(operation, sessionID string) *Marker {
	t.mu.Lock()
	t.nextID++
	marker := &Marker{
		id:      t.nextID,
		tracker: t,
		rec: Record{
			Operation: operation,
			SessionID: sessionID,
			StartTime: time.Now(),
			Success:   true,
		},
	}
	t.active[marker.id] = marker
	t.mu.Unlock()

	return marker
}

// StartOperationWithContext completes the marker with ctx's error if ctx
// ends before the caller completes it.
func (t *Tracker) StartOperationWithContext(ctx context.Context, operation, sessionID string) *Marker {
	marker := t.StartOperation(operation, sessionID)

	go func() {
		<-ctx.Done()
		if !marker.Snapshot().Completed {
			marker.SetError(ctx.Err())
			marker.Complete()
		}
	}()

	return marker
}

func (t *Tracker) finish(id uint64, rec Record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.active, id)
	t.completed = append(t.completed, rec)
	if over := len(t.completed) - t.config.MaxRecords; t.config.MaxRecords > 0 && over > 0 {
		t.completed = append([]Record(nil), t.completed[over:]...)
	}

	if t.config.EnableAlerts {
		if alert, ok := t.evaluate(rec); ok {
			t.alerts = append(t.alerts, alert)
			if over := len(t.alerts) - t.config.MaxAlerts; t.config.MaxAlerts > 0 && over > 0 {
				t.alerts = append([]Alert(nil), t.alerts[over:]...)
			}
		}
	}
}

// ThresholdFor returns the slow threshold that applies to operation.
func (t *Tracker) ThresholdFor(operation string) time.Duration {
	best, threshold := "", t.config.SlowThreshold
	for prefix, d := range t.config.PrefixThresholds {
		if strings.HasPrefix(operation, prefix) && len(prefix) > len(best) {
			best, threshold = prefix, d
		}
	}
	return threshold
}

func (t *Tracker) evaluate(rec Record) (Alert, bool) {
	alert := Alert{
		Timestamp: rec.EndTime,
		Operation: rec.Operation,
		Actual:    rec.Duration,
	}

	switch slow := t.ThresholdFor(rec.Operation); {
	case t.config.CriticalThreshold > 0 && rec.Duration > t.config.CriticalThreshold:
		alert.Severity = AlertCritical
		alert.Threshold = t.config.CriticalThreshold
		alert.Message = "Operation exceeded critical response time threshold"
	case slow > 0 && rec.Duration > slow:
		alert.Severity = AlertWarning
		alert.Threshold = slow
		alert.Message = fmt.Sprintf("Operation exceeded %s threshold", slow)
	default:
		return Alert{}, false
	}
	return alert, true
}

// GetRecentRecords returns records completed within the given window, oldest first.
func (t *Tracker) GetRecentRecords(within time.Duration) []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cutoff := time.Now().Add(-within)
	var out []Record
	for _, rec := range t.completed {
		if rec.EndTime.After(cutoff) {
			out = append(out, rec)
		}
	}
	return out
}

// GetActiveOperations returns markers that have not completed yet.
func (t *Tracker) GetActiveOperations() []Record {
	t.mu.RLock()
	markers := make([]*Marker, 0, len(t.active))
	for _, m := range t.active {
		markers = append(markers, m)
	}
	t.mu.RUnlock()

	out := make([]Record, 0, len(markers))
	for _, m := range markers {
		out = append(out, m.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// GetAlerts returns a copy of the retained alerts.
func (t *Tracker) GetAlerts() []Alert {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Alert(nil), t.alerts...)
}

// Stats aggregates retained records per operation, sorted by name.
func (t *Tracker) Stats() []OperationStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	byOp := make(map[string]*OperationStats)
	totals := make(map[string]time.Duration)
	for _, rec := range t.completed {
		s, ok := byOp[rec.Operation]
		if !ok {
			s = &OperationStats{Operation: rec.Operation}
			byOp[rec.Operation] = s
		}
		s.Count++
		if !rec.Success {
			s.Failures++
		}
		if rec.Duration > s.Max {
			s.Max = rec.Duration
		}
		if rec.EndTime.After(s.Last) {
			s.Last = rec.EndTime
		}
		totals[rec.Operation] += rec.Duration
	}

	out := make([]OperationStats, 0, len(byOp))
	for op, s := range byOp {
		s.Average = totals[op] / time.Duration(s.Count)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Operation < out[j].Operation })
	return out
}

// Health rates the last five minutes of operations.
func (t *Tracker) Health() HealthStatus {
	return t.health(t.GetRecentRecords(5*time.Minute), t.GetActiveOperations())
}

func (t *Tracker) health(recent, active []Record) HealthStatus {
	total := len(recent) + len(active)
	if total == 0 {
		return HealthUnknown
	}

	critical, warning := 0, 0
	for _, rec := range append(append([]Record(nil), recent...), active...) {
		switch {
		case !rec.Success && rec.Completed:
			critical++
		case t.config.CriticalThreshold > 0 && rec.Duration > t.config.CriticalThreshold:
			critical++
		case rec.Duration > t.ThresholdFor(rec.Operation):
			warning++
		}
	}

	criticalRatio := float64(critical) / float64(total)
	warningRatio := float64(warning) / float64(total)
	switch {
	case criticalRatio > 0.1:
		return HealthUnhealthy
	case criticalRatio > 0.05 || warningRatio > 0.2:
		return HealthDegraded
	}
	return HealthHealthy
}

// TakeSnapshot returns the tracker's current state.
func (t *Tracker) TakeSnapshot() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	active := t.GetActiveOperations()
	return Snapshot{
		Timestamp:  time.Now(),
		Uptime:     time.Since(t.started),
		Health:     t.health(t.GetRecentRecords(5*time.Minute), active),
		Active:     active,
		Operations: t.Stats(),
		Alerts:     t.GetAlerts(),
		MemoryMB:   mem.Alloc / (1024 * 1024),
	}
}

// Cleanup drops completed records older than maxAge.
func (t *Tracker) Cleanup(maxAge time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	kept := t.completed[:0]
	for _, rec := range t.completed {
		if rec.EndTime.After(cutoff) {
			kept = append(kept, rec)
		}
	}
	removed := len(t.completed) - len(kept)
	t.completed = kept
	return removed
}
