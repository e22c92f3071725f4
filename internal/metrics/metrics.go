// Package metrics tracks service-level counters for the HTTP API.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// ServiceMetrics collects request counters since process start. All methods
// are safe for concurrent use.
type ServiceMetrics struct {
	startedAt time.Time

	uploads        atomic.Int64
	uploadErrors   atomic.Int64
	queries        atomic.Int64
	queryErrors    atomic.Int64
	queriesNoMatch atomic.Int64
	resets         atomic.Int64

	mu             sync.Mutex
	uploadDuration time.Duration
	queryDuration  time.Duration
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	UptimeSeconds  float64 `json:"uptime_seconds"`
	Uploads        int64   `json:"uploads"`
	UploadErrors   int64   `json:"upload_errors"`
	Queries        int64   `json:"queries"`
	QueryErrors    int64   `json:"query_errors"`
	QueriesNoMatch int64   `json:"queries_no_match"`
	Resets         int64   `json:"resets"`
	AvgUploadMS    float64 `json:"avg_upload_ms"`
	AvgQueryMS     float64 `json:"avg_query_ms"`
}

// New starts tracking from now.
func New() *ServiceMetrics {
	return &ServiceMetrics{startedAt: time.Now()}
}

// RecordUpload records a completed upload attempt.
func (m *ServiceMetrics) RecordUpload(d time.Duration, err error) {
	if err != nil {
		m.uploadErrors.Add(1)
		return
	}
	m.uploads.Add(1)
	m.mu.Lock()
	m.uploadDuration += d
	m.mu.Unlock()
}

// RecordQuery records a completed query attempt. noMatch marks queries that
// returned the fallback answer without reaching the LLM.
func (m *ServiceMetrics) RecordQuery(d time.Duration, noMatch bool, err error) {
	if err != nil {
		m.queryErrors.Add(1)
		return
	}
	m.queries.Add(1)
	if noMatch {
		m.queriesNoMatch.Add(1)
	}
	m.mu.Lock()
	m.queryDuration += d
	m.mu.Unlock()
}

// RecordReset records a knowledge base reset.
func (m *ServiceMetrics) RecordReset() {
	m.resets.Add(1)
}

// Snapshot returns a copy of the current counters.
func (m *ServiceMetrics) Snapshot() Snapshot {
	uploads := m.uploads.Load()
	queries := m.queries.Load()

	m.mu.Lock()
	uploadDur := m.uploadDuration
	queryDur := m.queryDuration
	m.mu.Unlock()

	s := Snapshot{
		UptimeSeconds:  time.Since(m.startedAt).Seconds(),
		Uploads:        uploads,
		UploadErrors:   m.uploadErrors.Load(),
		Queries:        queries,
		QueryErrors:    m.queryErrors.Load(),
		QueriesNoMatch: m.queriesNoMatch.Load(),
		Resets:         m.resets.Load(),
	}
	if uploads > 0 {
		s.AvgUploadMS = float64(uploadDur.Milliseconds()) / float64(uploads)
	}
	if queries > 0 {
		s.AvgQueryMS = float64(queryDur.Milliseconds()) / float64(queries)
	}
	return s
}

// JSON returns the snapshot as formatted JSON.
func (m *ServiceMetrics) JSON() ([]byte, error) {
	return json.MarshalIndent(m.Snapshot(), "", "  ")
}
