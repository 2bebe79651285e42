package backend

import (
	"net/http"

	"github.com/skybi/compliance-console/internal/compliance"
)

const (
	dashboardRecentAudits = 10
	dashboardAlerts       = 5
)

// EndpointGetDashboardStats handles the 'GET /dashboard/stats' endpoint
func (service *Service) EndpointGetDashboardStats(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	decisions := service.Storage.Decisions()

	counts, total, err := decisions.Count(ctx)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	stats := make(map[compliance.Outcome]int, len(compliance.Outcomes))
	for _, outcome := range compliance.Outcomes {
		stats[outcome] = counts[outcome]
	}

	recent, err := decisions.Get(ctx, 0, dashboardRecentAudits)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	alerts, err := decisions.GetByOutcome(ctx, compliance.OutcomeNonCompliant, dashboardAlerts)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}

	service.writer.WriteJSON(writer, &compliance.DashboardStats{
		TotalAudits:     total,
		ComplianceStats: stats,
		RecentAudits:    recent,
		Alerts:          alerts,
	})
}

// EndpointGetSystemMetrics handles the 'GET /dashboard/metrics' endpoint
func (service *Service) EndpointGetSystemMetrics(writer http.ResponseWriter, _ *http.Request) {
	service.writer.WriteJSON(writer, service.metrics.system())
}

// EndpointGetAIMetrics handles the 'GET /metrics' endpoint
func (service *Service) EndpointGetAIMetrics(writer http.ResponseWriter, _ *http.Request) {
	service.writer.WriteJSON(writer, service.metrics.ai())
}

// EndpointHealth handles the public 'GET /health' endpoint
func (service *Service) EndpointHealth(writer http.ResponseWriter, _ *http.Request) {
	service.writer.WriteJSON(writer, &compliance.Health{
		Status:        "healthy",
		BackendUptime: service.metrics.uptime(),
		AIServices: map[string]string{
			"policy_interpreter":  "available",
			"compliance_reasoner": "available",
		},
	})
}
