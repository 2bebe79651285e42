package backend

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/skybi/compliance-console/internal/compliance"
	"github.com/skybi/compliance-console/internal/hashmap"
)

// latencyWindow is the amount of audit requests the average latency is computed over
const latencyWindow = 100

// metrics tracks the operational counters of the backend process.
// They live in memory and start from zero with every process.
type metrics struct {
	started time.Time

	totalAudits            atomic.Int64
	reasoningFailures      atomic.Int64
	interpretationFailures atomic.Int64

	latencyMtx sync.Mutex
	latencies  []float64

	coverage hashmap.Map[string, int]
}

func newMetrics(started time.Time) *metrics {
	return &metrics{
		started:   started,
		latencies: make([]float64, 0, latencyWindow),
		coverage:  hashmap.NewNormal[string, int](),
	}
}

func (m *metrics) recordLatency(duration time.Duration) {
	m.latencyMtx.Lock()
	defer m.latencyMtx.Unlock()
	if len(m.latencies) == latencyWindow {
		m.latencies = append(m.latencies[:0], m.latencies[1:]...)
	}
	m.latencies = append(m.latencies, float64(duration.Microseconds())/1000)
}

func (m *metrics) averageLatency() float64 {
	m.latencyMtx.Lock()
	defer m.latencyMtx.Unlock()
	if len(m.latencies) == 0 {
		return 0
	}
	sum := 0.0
	for _, latency := range m.latencies {
		sum += latency
	}
	return sum / float64(len(m.latencies))
}

func (m *metrics) cover(ruleID string) {
	m.coverage.Update(ruleID, func(current int, _ bool) int {
		return current + 1
	})
}

func (m *metrics) uptime() float64 {
	return time.Since(m.started).Seconds()
}

func (m *metrics) ai() compliance.AIMetrics {
	return compliance.AIMetrics{
		TotalAudits:            int(m.totalAudits.Load()),
		ReasoningFailures:      int(m.reasoningFailures.Load()),
		InterpretationFailures: int(m.interpretationFailures.Load()),
	}
}

func (m *metrics) system() *compliance.SystemMetrics {
	return &compliance.SystemMetrics{
		AIMetrics:        m.ai(),
		AverageLatencyMS: m.averageLatency(),
		UptimeSeconds:    m.uptime(),
		RuleCoverage:     m.coverage.Snapshot(),
	}
}
