package bench

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// histogram range: 1us to 60s, 3 significant digits.
const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Metrics aggregates outcomes and latencies across a run.
type Metrics struct {
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram

	total     atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64

	startTime time.Time
	endTime   time.Time
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
	}
}

// Start marks the beginning of the run.
func (m *Metrics) Start() {
	m.startTime = time.Now()
}

// Stop marks the end of the run.
func (m *Metrics) Stop() {
	m.endTime = time.Now()
}

// Record adds one completed dispatch.
func (m *Metrics) Record(duration time.Duration, success bool) {
	m.total.Add(1)
	if success {
		m.successes.Add(1)
	} else {
		m.failures.Add(1)
	}

	latencyUs := duration.Microseconds()
	if latencyUs < minLatencyUs {
		latencyUs = minLatencyUs
	}
	if latencyUs > maxLatencyUs {
		latencyUs = maxLatencyUs
	}

	m.mu.Lock()
	_ = m.histogram.RecordValue(latencyUs)
	m.mu.Unlock()
}

// Summary is the final aggregate of a run.
type Summary struct {
	Duration  time.Duration
	Total     int64
	Successes int64
	Failures  int64

	RPS         float64
	SuccessRate float64

	P50  time.Duration
	P90  time.Duration
	P99  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// Summary computes the aggregate over everything recorded so far.
func (m *Metrics) Summary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.endTime.Sub(m.startTime)
	if m.endTime.IsZero() {
		duration = time.Since(m.startTime)
	}

	total := m.total.Load()
	successes := m.successes.Load()

	rps := float64(0)
	if duration.Seconds() > 0 {
		rps = float64(total) / duration.Seconds()
	}

	successRate := float64(0)
	if total > 0 {
		successRate = float64(successes) / float64(total)
	}

	return &Summary{
		Duration:    duration,
		Total:       total,
		Successes:   successes,
		Failures:    m.failures.Load(),
		RPS:         rps,
		SuccessRate: successRate,
		P50:         time.Duration(m.histogram.ValueAtQuantile(50)) * time.Microsecond,
		P90:         time.Duration(m.histogram.ValueAtQuantile(90)) * time.Microsecond,
		P99:         time.Duration(m.histogram.ValueAtQuantile(99)) * time.Microsecond,
		Max:         time.Duration(m.histogram.Max()) * time.Microsecond,
		Mean:        time.Duration(m.histogram.Mean()) * time.Microsecond,
	}
}
