package backend

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/skybi/compliance-console/internal/api/schema"
	"github.com/skybi/compliance-console/internal/api/validation"
	"github.com/skybi/compliance-console/internal/compliance"
)

type ruleCreatePayload struct {
	RuleID        *string                  `json:"rule_id" required:"true"`
	Category      *compliance.RuleCategory `json:"category" required:"true"`
	RuleText      *string                  `json:"rule_text" required:"true"`
	Severity      *compliance.Severity     `json:"severity" required:"true"`
	Version       *string                  `json:"version" required:"true"`
	Status        *compliance.RuleStatus   `json:"status"`
	EffectiveFrom *time.Time               `json:"effective_from"`
}

func (payload *ruleCreatePayload) draft() *compliance.RuleDraft {
	draft := &compliance.RuleDraft{
		RuleID:        *payload.RuleID,
		Category:      *payload.Category,
		RuleText:      *payload.RuleText,
		Severity:      *payload.Severity,
		Version:       *payload.Version,
		Status:        compliance.RuleStatusActive,
		EffectiveFrom: payload.EffectiveFrom,
	}
	if payload.Status != nil {
		draft.Status = *payload.Status
	}
	return draft
}

type ruleUpdatePayload struct {
	Category      *compliance.RuleCategory `json:"category"`
	RuleText      *string                  `json:"rule_text"`
	Severity      *compliance.Severity     `json:"severity"`
	Version       *string                  `json:"version"`
	Status        *compliance.RuleStatus   `json:"status"`
	EffectiveFrom *time.Time               `json:"effective_from"`
}

func (payload *ruleUpdatePayload) draft() *compliance.RuleDraft {
	draft := &compliance.RuleDraft{EffectiveFrom: payload.EffectiveFrom}
	if payload.Category != nil {
		draft.Category = *payload.Category
	}
	if payload.RuleText != nil {
		draft.RuleText = *payload.RuleText
	}
	if payload.Severity != nil {
		draft.Severity = *payload.Severity
	}
	if payload.Version != nil {
		draft.Version = *payload.Version
	}
	if payload.Status != nil {
		draft.Status = *payload.Status
	}
	return draft
}

// EndpointGetRules handles the 'GET /rules/' endpoint
func (service *Service) EndpointGetRules(writer http.ResponseWriter, request *http.Request) {
	skip, limit, issues := validation.Pagination(request)
	if len(issues) > 0 {
		service.writer.WriteIssues(writer, http.StatusUnprocessableEntity, issues...)
		return
	}

	rules, err := service.Storage.Rules().Get(request.Context(), skip, limit)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	service.writer.WriteJSON(writer, rules)
}

// EndpointGetRule handles the 'GET /rules/{rule_id}' endpoint
func (service *Service) EndpointGetRule(writer http.ResponseWriter, request *http.Request) {
	rule, err := service.Storage.Rules().GetByRuleID(request.Context(), urlParam(request, "rule_id"))
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if rule == nil {
		service.writer.WriteDetail(writer, http.StatusNotFound, "Rule not found")
		return
	}
	service.writer.WriteJSON(writer, rule)
}

// EndpointCreateRule handles the 'POST /rules/' endpoint.
// The rule is interpreted right away; a rule that cannot be interpreted is not kept.
func (service *Service) EndpointCreateRule(writer http.ResponseWriter, request *http.Request) {
	payload, issues, err := schema.UnmarshalBody[ruleCreatePayload](request)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if len(issues) > 0 {
		service.writer.WriteIssues(writer, http.StatusUnprocessableEntity, issues...)
		return
	}

	rule, status, detail, err := service.createRule(request.Context(), payload.draft())
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if detail != "" {
		service.writer.WriteDetail(writer, status, detail)
		return
	}
	service.writer.WriteJSON(writer, rule)
}

// createRule stores and interprets a new rule.
// A non-empty detail describes a client error that should be answered with the returned status code.
func (service *Service) createRule(ctx context.Context, draft *compliance.RuleDraft) (*compliance.Rule, int, string, error) {
	if err := draft.Validate(); err != nil {
		return nil, http.StatusBadRequest, err.Error(), nil
	}

	rule, err := service.Storage.Rules().Create(ctx, draft)
	if err != nil {
		if errors.Is(err, compliance.ErrRuleIDTaken) {
			return nil, http.StatusBadRequest, "Rule ID already registered", nil
		}
		return nil, 0, "", err
	}

	structured, err := service.Reasoner.Interpret(rule)
	if err != nil {
		service.metrics.interpretationFailures.Add(1)
		service.Logger.Warn().Err(err).Str("rule_id", rule.RuleID).Msg("could not interpret a new rule")
		if err := service.Storage.Rules().Delete(ctx, rule.ID); err != nil {
			return nil, 0, "", err
		}
		return nil, http.StatusUnprocessableEntity, "Rule interpretation failed: " + err.Error(), nil
	}
	if _, err := service.Storage.StructuredRules().Create(ctx, structured); err != nil {
		return nil, 0, "", err
	}

	service.Logger.Info().Str("rule_id", rule.RuleID).Str("version", rule.Version).Msg("created a rule")
	return rule, http.StatusOK, "", nil
}

// EndpointUpdateRule handles the 'PUT /rules/{rule_id}' endpoint.
// The rule is re-interpreted; if that fails, its previous state is restored.
func (service *Service) EndpointUpdateRule(writer http.ResponseWriter, request *http.Request) {
	payload, issues, err := schema.UnmarshalBody[ruleUpdatePayload](request)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if len(issues) > 0 {
		service.writer.WriteIssues(writer, http.StatusUnprocessableEntity, issues...)
		return
	}

	ctx := request.Context()
	ruleID := urlParam(request, "rule_id")
	previous, err := service.Storage.Rules().GetByRuleID(ctx, ruleID)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if previous == nil {
		service.writer.WriteDetail(writer, http.StatusNotFound, "Rule not found")
		return
	}

	updated, err := service.Storage.Rules().Update(ctx, ruleID, payload.draft())
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if updated == nil {
		service.writer.WriteDetail(writer, http.StatusNotFound, "Rule not found")
		return
	}

	structured, err := service.Reasoner.Interpret(updated)
	if err != nil {
		service.metrics.interpretationFailures.Add(1)
		service.Logger.Warn().Err(err).Str("rule_id", ruleID).Msg("could not re-interpret an updated rule")
		effectiveFrom := previous.EffectiveFrom
		if _, restoreErr := service.Storage.Rules().Update(ctx, ruleID, &compliance.RuleDraft{
			Category:      previous.Category,
			RuleText:      previous.RuleText,
			Severity:      previous.Severity,
			Version:       previous.Version,
			Status:        previous.Status,
			EffectiveFrom: &effectiveFrom,
		}); restoreErr != nil {
			service.writer.WriteInternalError(writer, restoreErr)
			return
		}
		service.writer.WriteDetail(writer, http.StatusUnprocessableEntity, "Rule re-interpretation failed: "+err.Error())
		return
	}
	if _, err := service.Storage.StructuredRules().Create(ctx, structured); err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}

	service.Logger.Info().Str("rule_id", updated.RuleID).Str("version", updated.Version).Msg("updated a rule")
	service.writer.WriteJSON(writer, updated)
}

// EndpointGetStructuredRules handles the 'GET /rules/{rule_id}/structured' endpoint
func (service *Service) EndpointGetStructuredRules(writer http.ResponseWriter, request *http.Request) {
	structured, err := service.Storage.StructuredRules().GetByRuleID(request.Context(), urlParam(request, "rule_id"))
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if structured == nil {
		structured = []*compliance.StructuredRule{}
	}
	service.writer.WriteJSON(writer, structured)
}
