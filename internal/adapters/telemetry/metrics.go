package telemetry

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"
)

// durationBuckets are the histogram upper bounds in seconds.
var durationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}

// MetricsTelemetry keeps per-table counters and a duration histogram in
// memory. Snapshot exposes them.
type MetricsTelemetry struct {
	mu          sync.RWMutex
	tables      map[string]*tableStats
	connections map[string]int64
	started     time.Time
}

type tableStats struct {
	runs     int64
	failures int64
	errors   int64
	rows     int64
	total    time.Duration
	buckets  []int64
}

// NewMetricsTelemetry creates an empty metrics collector.
func NewMetricsTelemetry() *MetricsTelemetry {
	return &MetricsTelemetry{
		tables:      make(map[string]*tableStats),
		connections: make(map[string]int64),
		started:     time.Now(),
	}
}

func (m *MetricsTelemetry) stats(table string) *tableStats {
	s, ok := m.tables[table]
	if !ok {
		s = &tableStats{buckets: make([]int64, len(durationBuckets)+1)}
		m.tables[table] = s
	}
	return s
}

// RecordQuery records a report run.
func (m *MetricsTelemetry) RecordQuery(ctx context.Context, info QueryInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stats(info.Table)
	s.runs++
	if !info.Success {
		s.failures++
	}
	s.rows += int64(info.Rows)
	s.total += info.Duration

	secs := info.Duration.Seconds()
	i := sort.SearchFloat64s(durationBuckets, secs)
	s.buckets[i]++
}

// RecordError records an error.
func (m *MetricsTelemetry) RecordError(ctx context.Context, info ErrorInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats(info.Table).errors++
}

// RecordConnection records a connection event.
func (m *MetricsTelemetry) RecordConnection(ctx context.Context, info ConnectionInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event := info.Event
	if !info.Success {
		event += "_failed"
	}
	m.connections[event]++
}

func (m *MetricsTelemetry) Flush(ctx context.Context) error {
	return nil
}

func (m *MetricsTelemetry) Close(ctx context.Context) error {
	return nil
}

// Snapshot is a point-in-time copy of the collected metrics.
type Snapshot struct {
	Since       time.Time             `json:"since"`
	Tables      map[string]TableStats `json:"tables"`
	Connections map[string]int64      `json:"connections"`
}

// TableStats summarizes report runs against one table.
type TableStats struct {
	Runs     int64 `json:"runs"`
	Failures int64 `json:"failures"`
	Errors   int64 `json:"errors"`
	Rows     int64 `json:"rows"`
	// AvgMillis is the mean run duration.
	AvgMillis float64 `json:"avgMillis"`
	// Histogram maps bucket upper bounds ("0.005", "+Inf") to run counts.
	Histogram map[string]int64 `json:"histogram"`
}

// Snapshot copies the current metrics.
func (m *MetricsTelemetry) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		Since:       m.started,
		Tables:      make(map[string]TableStats, len(m.tables)),
		Connections: make(map[string]int64, len(m.connections)),
	}
	for name, s := range m.tables {
		ts := TableStats{
			Runs:      s.runs,
			Failures:  s.failures,
			Errors:    s.errors,
			Rows:      s.rows,
			Histogram: make(map[string]int64, len(s.buckets)),
		}
		if s.runs > 0 {
			ts.AvgMillis = float64(s.total.Milliseconds()) / float64(s.runs)
		}
		for i, n := range s.buckets {
			ts.Histogram[bucketLabel(i)] = n
		}
		snap.Tables[name] = ts
	}
	for k, v := range m.connections {
		snap.Connections[k] = v
	}
	return snap
}

func bucketLabel(i int) string {
	if i >= len(durationBuckets) {
		return "+Inf"
	}
	return strconv.FormatFloat(durationBuckets[i], 'g', -1, 64)
}

var _ Telemetry = (*MetricsTelemetry)(nil)
