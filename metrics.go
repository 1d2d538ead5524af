package goSession

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or histogram.
type MetricID uint16

const (
	MetricSignInSuccess MetricID = iota
	MetricSignInFailure
	MetricAccountCreationSuccess
	MetricAccountCreationDuplicate
	MetricAccountCreationFailure
	MetricRefreshSuccess
	MetricRefreshFailure
	// MetricRefreshReplayRejected counts refresh tokens rejected because they
	// were no longer the mirrored value. Replays and lost races both count.
	MetricRefreshReplayRejected
	MetricSignOut
	MetricVerifyAccepted
	MetricVerifyRejected
	// MetricMirrorFailure counts mirror errors that turned an operation into ErrServer.
	MetricMirrorFailure
	MetricOwnerCheck
	MetricVerifyLatency
	MetricRefreshLatency
	metricIDCount
)

// latencyBounds are the inclusive upper bounds of the first seven histogram
// buckets. The eighth bucket takes everything slower.
var latencyBounds = [...]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

const histBucketCount = len(latencyBounds) + 1

// latencySlot maps a histogram MetricID to its row in Metrics.latency.
func latencySlot(id MetricID) (int, bool) {
	switch id {
	case MetricVerifyLatency:
		return 0, true
	case MetricRefreshLatency:
		return 1, true
	}
	return 0, false
}

// counter sits alone on its cache line so hot counters do not contend.
type counter struct {
	atomic.Uint64
	_ [56]byte
}

// Metrics is a fixed table of lock-free counters and latency histograms.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]counter
	latency       [2][histBucketCount]atomic.Uint64
	latencySum    [2]atomic.Int64 // nanoseconds
}

// MetricsSnapshot is a point-in-time copy of every counter. Histograms hold
// non-cumulative bucket counts and LatencySums the total observed time per
// histogram; both are present only when latency tracking is on.
type MetricsSnapshot struct {
	Counters    map[MetricID]uint64
	Histograms  map[MetricID][]uint64
	LatencySums map[MetricID]time.Duration
}

// NewMetrics returns a Metrics table configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter id. Histogram IDs are ignored.
func (m *Metrics) Inc(id MetricID) {
	if !m.Enabled() || id >= metricIDCount {
		return
	}
	if _, hist := latencySlot(id); hist {
		return
	}
	m.counters[id].Add(1)
}

// Observe records d in the histogram id. Only latency metrics accept samples.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if !m.LatencyEnabled() {
		return
	}
	slot, ok := latencySlot(id)
	if !ok {
		return
	}
	if d < 0 {
		d = 0
	}
	m.latency[slot][bucketIndex(d)].Add(1)
	m.latencySum[slot].Add(int64(d))
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot copies all counters and, when enabled, both latency histograms.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Counters:    map[MetricID]uint64{},
		Histograms:  map[MetricID][]uint64{},
		LatencySums: map[MetricID]time.Duration{},
	}
	if !m.Enabled() {
		return s
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if _, hist := latencySlot(id); hist {
			continue
		}
		s.Counters[id] = m.counters[id].Load()
	}

	if m.enableLatency {
		for _, id := range []MetricID{MetricVerifyLatency, MetricRefreshLatency} {
			slot, _ := latencySlot(id)
			buckets := make([]uint64, histBucketCount)
			for i := range buckets {
				buckets[i] = m.latency[slot][i].Load()
			}
			s.Histograms[id] = buckets
			s.LatencySums[id] = time.Duration(m.latencySum[slot].Load())
		}
	}
	return s
}

func bucketIndex(d time.Duration) int {
	for i, bound := range latencyBounds {
		if d <= bound {
			return i
		}
	}
	return len(latencyBounds)
}
