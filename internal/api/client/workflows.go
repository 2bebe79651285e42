package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/skybi/compliance-console/internal/compliance"
)

// ListWorkflows retrieves all workflow events
func (client *Client) ListWorkflows(ctx context.Context) (*Response, error) {
	return client.Do(ctx, Request{Method: http.MethodGet, Path: "/workflows/"})
}

// GetWorkflow retrieves all events of a single workflow
func (client *Client) GetWorkflow(ctx context.Context, workflowID string) (*Response, error) {
	return client.Do(ctx, Request{Method: http.MethodGet, Path: "/workflows/" + pathSegment(workflowID)})
}

// CreateWorkflow submits a new workflow event.
// The attributes must be a valid JSON object; this is checked before any request is made.
func (client *Client) CreateWorkflow(ctx context.Context, draft compliance.WorkflowDraft) (*Response, error) {
	if err := draft.Validate(); err != nil {
		return nil, validationErrorOf(err)
	}
	return client.Do(ctx, Request{Method: http.MethodPost, Path: "/workflows/", Body: draft})
}

// AuditWorkflow runs a compliance audit on the latest event of a workflow
func (client *Client) AuditWorkflow(ctx context.Context, workflowID string) (*Response, error) {
	return client.Do(ctx, Request{Method: http.MethodPost, Path: "/workflows/" + pathSegment(workflowID) + "/audit"})
}

// ListDecisions retrieves decisions, newest first.
// If workflowID is empty, decisions of all workflows are returned.
func (client *Client) ListDecisions(ctx context.Context, workflowID string) (*Response, error) {
	path := "/decisions/"
	if workflowID != "" {
		path += pathSegment(workflowID)
	}
	return client.Do(ctx, Request{Method: http.MethodGet, Path: path})
}

// ReplayDecision re-evaluates a past decision using the rule versions it recorded.
// The backend appends the result as a new decision; the original stays untouched.
func (client *Client) ReplayDecision(ctx context.Context, workflowID string, decisionID int64) (*Response, error) {
	path := "/workflows/" + pathSegment(workflowID) + "/replay/" + strconv.FormatInt(decisionID, 10)
	return client.Do(ctx, Request{Method: http.MethodPost, Path: path})
}

// DashboardStats retrieves the aggregate audit counters
func (client *Client) DashboardStats(ctx context.Context) (*Response, error) {
	return client.Do(ctx, Request{Method: http.MethodGet, Path: "/dashboard/stats"})
}

// SystemMetrics retrieves the operational metrics of the backend
func (client *Client) SystemMetrics(ctx context.Context) (*Response, error) {
	return client.Do(ctx, Request{Method: http.MethodGet, Path: "/dashboard/metrics"})
}

// AIMetrics retrieves the reasoning service counters
func (client *Client) AIMetrics(ctx context.Context) (*Response, error) {
	return client.Do(ctx, Request{Method: http.MethodGet, Path: "/metrics"})
}
