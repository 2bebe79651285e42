package compliance

import "time"

// Decision represents a compliance verdict for a workflow together with the reasoning that led to it
type Decision struct {
	ID             int64             `json:"id"`
	WorkflowID     string            `json:"workflow_id"`
	Decision       Outcome           `json:"decision"`
	ViolatedRules  []string          `json:"violated_rules"`
	ReasoningTrace []TraceEntry      `json:"reasoning_trace"`
	RuleVersions   map[string]string `json:"rule_versions"`
	CreatedAt      time.Time         `json:"created_at"`
}

// TraceEntry represents the evaluation of a single rule inside a reasoning trace.
// Entries that do not belong to a rule carry an informational message instead.
type TraceEntry struct {
	RuleID string      `json:"rule_id,omitempty"`
	Steps  []TraceStep `json:"steps,omitempty"`
	Info   string      `json:"info,omitempty"`
}

// TraceStep represents one step of the rule evaluation protocol
type TraceStep struct {
	Step   string `json:"step"`
	Result string `json:"result"`
	Detail string `json:"detail,omitempty"`
}

// DashboardStats represents the aggregate audit counters shown on the dashboard
type DashboardStats struct {
	TotalAudits     int             `json:"total_audits"`
	ComplianceStats map[Outcome]int `json:"compliance_stats"`
	RecentAudits    []*Decision     `json:"recent_audits"`
	Alerts          []*Decision     `json:"alerts"`
}

// AIMetrics represents the reasoning service counters
type AIMetrics struct {
	TotalAudits            int `json:"total_audits"`
	ReasoningFailures      int `json:"reasoning_failures"`
	InterpretationFailures int `json:"interpretation_failures"`
}

// SystemMetrics represents the operational metrics of the backend
type SystemMetrics struct {
	AIMetrics        AIMetrics      `json:"ai_metrics"`
	AverageLatencyMS float64        `json:"average_latency_ms"`
	UptimeSeconds    float64        `json:"uptime_seconds"`
	RuleCoverage     map[string]int `json:"rule_coverage"`
}

// Health represents the public health report of the backend
type Health struct {
	Status        string            `json:"status"`
	BackendUptime float64           `json:"backend_uptime"`
	AIServices    map[string]string `json:"ai_services"`
}
