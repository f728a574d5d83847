// Package performance tracks operation timings for the editor and its
// HTTP surface.
package performance

import (
	"sync"
	"time"
)

// Record is the immutable result of one measured operation.
type Record struct {
	Operation string         `json:"operation"` // e.g. "editor:add", "preview:png"
	SessionID string         `json:"sessionId,omitempty"`
	StartTime time.Time      `json:"startTime"`
	EndTime   time.Time      `json:"endTime"`
	Duration  time.Duration  `json:"duration"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Completed bool           `json:"completed"`
}

// Marker measures a single in-flight operation. It is safe to use from the
// goroutine that started it while the tracker reads it concurrently.
type Marker struct {
	mu      sync.Mutex
	id      uint64
	rec     Record
	tracker *Tracker
}

// Complete marks the operation as finished. Later calls are ignored.
func (m *Marker) Complete() {
	m.mu.Lock()
	if m.rec.Completed {
		m.mu.Unlock()
		return
	}
	m.rec.EndTime = time.Now()
	m.rec.Duration = m.rec.EndTime.Sub(m.rec.StartTime)
	m.rec.Completed = true
	rec := m.copyLocked()
	m.mu.Unlock()

	if m.tracker != nil {
		m.tracker.finish(m.id, rec)
	}
}

// SetSuccess marks the operation as successful or failed
func (m *Marker) SetSuccess(success bool) {
	m.mu.Lock()
	m.rec.Success = success
	m.mu.Unlock()
}

// SetError records err and marks the operation as failed
func (m *Marker) SetError(err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	m.rec.Error = err.Error()
	m.rec.Success = false
	m.mu.Unlock()
}

// AddMetadata adds key-value metadata to the marker
func (m *Marker) AddMetadata(key string, value any) {
	m.mu.Lock()
	if m.rec.Metadata == nil {
		m.rec.Metadata = make(map[string]any)
	}
	m.rec.Metadata[key] = value
	m.mu.Unlock()
}

// Snapshot returns a copy of the marker's current state.
func (m *Marker) Snapshot() Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.copyLocked()
	if !rec.Completed {
		rec.Duration = time.Since(rec.StartTime)
	}
	return rec
}

func (m *Marker) copyLocked() Record {
	rec := m.rec
	if m.rec.Metadata != nil {
		rec.Metadata = make(map[string]any, len(m.rec.Metadata))
		for k, v := range m.rec.Metadata {
			rec.Metadata[k] = v
		}
	}
	return rec
}

// HealthStatus represents the overall health of the service
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
	HealthUnknown   HealthStatus = "unknown"
)

// AlertSeverity represents the severity level of a performance alert
type AlertSeverity string

const (
	AlertWarning  AlertSeverity = "warning"
	AlertCritical AlertSeverity = "critical"
)

// Alert is a threshold violation.
type Alert struct {
	Timestamp time.Time     `json:"timestamp"`
	Severity  AlertSeverity `json:"severity"`
	Operation string        `json:"operation"`
	Threshold time.Duration `json:"threshold"`
	Actual    time.Duration `json:"actual"`
	Message   string        `json:"message"`
}

// OperationStats aggregates completed records of one operation.
type OperationStats struct {
	Operation string        `json:"operation"`
	Count     int           `json:"count"`
	Failures  int           `json:"failures"`
	Average   time.Duration `json:"average"`
	Max       time.Duration `json:"max"`
	Last      time.Time     `json:"last"`
}

// Snapshot is a point-in-time view of the tracker.
type Snapshot struct {
	Timestamp  time.Time        `json:"timestamp"`
	Uptime     time.Duration    `json:"uptime"`
	Health     HealthStatus     `json:"health"`
	Active     []Record         `json:"active"`
	Operations []OperationStats `json:"operations"`
	Alerts     []Alert          `json:"alerts"`
	MemoryMB   uint64           `json:"memoryMB"`
}
