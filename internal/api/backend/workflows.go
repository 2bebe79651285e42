package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/skybi/compliance-console/internal/api/schema"
	"github.com/skybi/compliance-console/internal/api/validation"
	"github.com/skybi/compliance-console/internal/compliance"
	"github.com/skybi/compliance-console/internal/reasoning"
)

type workflowCreatePayload struct {
	WorkflowID   *string                  `json:"workflow_id" required:"true"`
	WorkflowType *compliance.WorkflowType `json:"workflow_type" required:"true"`
	Attributes   map[string]any           `json:"attributes" required:"true"`
	ActorID      *string                  `json:"actor_id" required:"true"`
	SourceSystem *string                  `json:"source_system" required:"true"`
}

// EndpointGetWorkflows handles the 'GET /workflows/' endpoint
func (service *Service) EndpointGetWorkflows(writer http.ResponseWriter, request *http.Request) {
	skip, limit, issues := validation.Pagination(request)
	if len(issues) > 0 {
		service.writer.WriteIssues(writer, http.StatusUnprocessableEntity, issues...)
		return
	}

	workflows, err := service.Storage.Workflows().Get(request.Context(), skip, limit)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	service.writer.WriteJSON(writer, workflows)
}

// EndpointGetWorkflow handles the 'GET /workflows/{workflow_id}' endpoint.
// It responds with every event submitted for the workflow.
func (service *Service) EndpointGetWorkflow(writer http.ResponseWriter, request *http.Request) {
	workflows, err := service.Storage.Workflows().GetByWorkflowID(request.Context(), urlParam(request, "workflow_id"))
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if len(workflows) == 0 {
		service.writer.WriteDetail(writer, http.StatusNotFound, "Workflow not found")
		return
	}
	service.writer.WriteJSON(writer, workflows)
}

// EndpointCreateWorkflow handles the 'POST /workflows/' endpoint
func (service *Service) EndpointCreateWorkflow(writer http.ResponseWriter, request *http.Request) {
	payload, issues, err := schema.UnmarshalBody[workflowCreatePayload](request)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if len(issues) > 0 {
		service.writer.WriteIssues(writer, http.StatusUnprocessableEntity, issues...)
		return
	}

	attributes, err := json.Marshal(payload.Attributes)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	draft := &compliance.WorkflowDraft{
		WorkflowID:   *payload.WorkflowID,
		WorkflowType: *payload.WorkflowType,
		Attributes:   attributes,
		ActorID:      *payload.ActorID,
		SourceSystem: *payload.SourceSystem,
	}
	if err := draft.Validate(); err != nil {
		service.writer.WriteDetail(writer, http.StatusBadRequest, err.Error())
		return
	}

	workflow, err := service.Storage.Workflows().Create(request.Context(), draft)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	service.writer.WriteJSON(writer, workflow)
}

// EndpointAuditWorkflow handles the 'POST /workflows/{workflow_id}/audit' endpoint.
// It evaluates the newest event of the workflow against the newest interpretation of every active rule.
func (service *Service) EndpointAuditWorkflow(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	workflowID := urlParam(request, "workflow_id")

	workflow, err := service.Storage.Workflows().GetLatest(ctx, workflowID, nil)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if workflow == nil {
		service.writer.WriteDetail(writer, http.StatusNotFound, "Workflow event not found")
		return
	}
	service.metrics.totalAudits.Add(1)

	// Collect the newest interpretation of every active rule
	active, err := service.Storage.Rules().GetActive(ctx)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if len(active) == 0 {
		service.writer.WriteJSON(writer, &compliance.Decision{
			WorkflowID:     workflowID,
			Decision:       compliance.OutcomeCompliant,
			ViolatedRules:  []string{},
			ReasoningTrace: []compliance.TraceEntry{{Info: "No active rules found"}},
			RuleVersions:   map[string]string{},
			CreatedAt:      time.Now(),
		})
		return
	}
	rules := make([]*compliance.StructuredRule, 0, len(active))
	for _, rule := range active {
		structured, err := service.Storage.StructuredRules().GetLatest(ctx, rule.RuleID)
		if err != nil {
			service.writer.WriteInternalError(writer, err)
			return
		}
		if structured != nil {
			rules = append(rules, structured)
		}
	}

	decision, err := service.decide(ctx, workflow, rules)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	service.writer.WriteJSON(writer, decision)
}

// EndpointReplayDecision handles the 'POST /workflows/{workflow_id}/replay/{decision_id}' endpoint.
// The replay evaluates the workflow state and rule versions that were in effect for the original decision and
// appends the result as a new decision.
func (service *Service) EndpointReplayDecision(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	workflowID := urlParam(request, "workflow_id")
	decisionID, err := strconv.ParseInt(urlParam(request, "decision_id"), 10, 64)
	if err != nil {
		service.writer.WriteIssues(writer, http.StatusUnprocessableEntity, &schema.Issue{
			Loc:  []any{"path", "decision_id"},
			Msg:  "Input should be a valid integer",
			Type: "int_parsing",
		})
		return
	}

	original, err := service.Storage.Decisions().GetByID(ctx, decisionID)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if original == nil || original.WorkflowID != workflowID {
		service.writer.WriteDetail(writer, http.StatusNotFound, "Decision not found")
		return
	}

	workflow, err := service.Storage.Workflows().GetLatest(ctx, workflowID, &original.CreatedAt)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if workflow == nil {
		service.writer.WriteDetail(writer, http.StatusNotFound, "Workflow event not found")
		return
	}

	// Look up the exact rule versions the original decision was based on
	ruleIDs := make([]string, 0, len(original.RuleVersions))
	for ruleID := range original.RuleVersions {
		ruleIDs = append(ruleIDs, ruleID)
	}
	sort.Strings(ruleIDs)
	rules := make([]*compliance.StructuredRule, 0, len(ruleIDs))
	for _, ruleID := range ruleIDs {
		structured, err := service.Storage.StructuredRules().GetByVersion(ctx, ruleID, original.RuleVersions[ruleID])
		if err != nil {
			service.writer.WriteInternalError(writer, err)
			return
		}
		if structured != nil {
			rules = append(rules, structured)
		}
	}

	decision, err := service.decide(ctx, workflow, rules)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	service.Logger.Info().
		Str("workflow_id", workflowID).
		Int64("original", original.ID).
		Int64("replay", decision.ID).
		Msg("replayed a decision")
	service.writer.WriteJSON(writer, decision)
}

// decide evaluates the workflow event against the rules and persists the resulting decision.
// A failing evaluation is recorded as a decision requiring a manual review.
func (service *Service) decide(ctx context.Context, workflow *compliance.Workflow, rules []*compliance.StructuredRule) (*compliance.Decision, error) {
	versions := make(map[string]string, len(rules))
	for _, rule := range rules {
		versions[rule.RuleID] = rule.Version
	}

	decision := &compliance.Decision{
		WorkflowID:   workflow.WorkflowID,
		RuleVersions: versions,
	}
	evaluations, err := service.Reasoner.Evaluate(workflow, rules)
	if err != nil {
		service.metrics.reasoningFailures.Add(1)
		service.Logger.Warn().Err(err).Str("workflow_id", workflow.WorkflowID).Msg("reasoning failed; the decision requires a review")
		decision.Decision = compliance.OutcomeRequiresReview
		decision.ViolatedRules = []string{}
		decision.ReasoningTrace = reasoning.FailureTrace(err)
	} else {
		decision.Decision = reasoning.Decide(evaluations)
		decision.ViolatedRules = reasoning.ViolatedRules(evaluations)
		decision.ReasoningTrace = reasoning.Trace(evaluations)
		for _, evaluation := range evaluations {
			service.metrics.cover(evaluation.RuleID)
		}
	}

	return service.Storage.Decisions().Create(ctx, decision)
}
