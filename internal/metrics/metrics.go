package metrics

import (
	"sync"
	"time"
)

// Metrics holds the counters of a single run. A fresh value is created per
// invocation and passed to the components that record into it.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	ModelRequests      int64
	MalformedReplies   int64
	DuplicatesRejected int64
	TransportFailures  int64
	EntriesPublished   int64

	// Timings
	ProcessingTime time.Duration

	// Status
	StartedAt time.Time
	LastError string
	IsHealthy bool
}

func New() *Metrics {
	return &Metrics{StartedAt: time.Now(), IsHealthy: true}
}

func (m *Metrics) IncrementModelRequests() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ModelRequests++
}

func (m *Metrics) IncrementMalformedReplies() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MalformedReplies++
}

func (m *Metrics) IncrementDuplicatesRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesRejected++
}

func (m *Metrics) IncrementTransportFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TransportFailures++
}

func (m *Metrics) IncrementEntriesPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EntriesPublished++
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProcessingTime = duration
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.IsHealthy = false
}

// LogArgs flattens the counters into slog key/value pairs.
func (m *Metrics) LogArgs() []any {
	stats := m.GetStats()
	return []any{
		"model_requests", stats["model_requests"],
		"malformed_replies", stats["malformed_replies"],
		"duplicates_rejected", stats["duplicates_rejected"],
		"transport_failures", stats["transport_failures"],
		"entries_published", stats["entries_published"],
		"processing_time_ms", stats["processing_time_ms"],
		"healthy", stats["is_healthy"],
	}
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"model_requests":      m.ModelRequests,
		"malformed_replies":   m.MalformedReplies,
		"duplicates_rejected": m.DuplicatesRejected,
		"transport_failures":  m.TransportFailures,
		"entries_published":   m.EntriesPublished,
		"processing_time_ms":  m.ProcessingTime.Milliseconds(),
		"started_at":          m.StartedAt.Format(time.RFC3339),
		"last_error":          m.LastError,
		"is_healthy":          m.IsHealthy,
	}
}
