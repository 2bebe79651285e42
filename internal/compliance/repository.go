package compliance

import (
	"context"
	"errors"
	"time"
)

// ErrRuleIDTaken is returned when a rule is created with a rule ID that is already registered
var ErrRuleIDTaken = errors.New("rule ID already registered")

// RuleRepository defines the rule repository API.
// Single-entity lookups of every repository in this package return nil without an error if nothing was found.
type RuleRepository interface {
	// Get retrieves multiple rules ordered by their internal ID
	Get(ctx context.Context, offset, limit uint64) ([]*Rule, error)

	// GetByRuleID retrieves a rule by its public rule ID
	GetByRuleID(ctx context.Context, ruleID string) (*Rule, error)

	// GetActive retrieves all rules with the ACTIVE status
	GetActive(ctx context.Context) ([]*Rule, error)

	// Create creates a new rule.
	// ErrRuleIDTaken is returned if the rule ID is already registered.
	Create(ctx context.Context, draft *RuleDraft) (*Rule, error)

	// Update replaces the fields of an existing rule.
	// Empty fields of the draft keep their current value; the rule ID itself is never changed.
	// A nil rule is returned if no rule with the given ID exists.
	Update(ctx context.Context, ruleID string, draft *RuleDraft) (*Rule, error)

	// Delete deletes a rule by its internal ID
	Delete(ctx context.Context, id int64) error
}

// StructuredRuleRepository defines the structured rule repository API.
// Structured rules are append-only; every interpretation creates a new entry.
type StructuredRuleRepository interface {
	// GetByRuleID retrieves all interpretations of a rule, oldest first
	GetByRuleID(ctx context.Context, ruleID string) ([]*StructuredRule, error)

	// GetLatest retrieves the newest interpretation of a rule
	GetLatest(ctx context.Context, ruleID string) (*StructuredRule, error)

	// GetByVersion retrieves the first interpretation of a specific rule version
	GetByVersion(ctx context.Context, ruleID, version string) (*StructuredRule, error)

	// Create stores a new interpretation
	Create(ctx context.Context, rule *StructuredRule) (*StructuredRule, error)
}

// WorkflowRepository defines the workflow event repository API.
// Workflow events are immutable; there is no update or delete operation.
type WorkflowRepository interface {
	// Get retrieves multiple workflow events ordered by their internal ID
	Get(ctx context.Context, offset, limit uint64) ([]*Workflow, error)

	// GetByWorkflowID retrieves all events of a workflow, oldest first
	GetByWorkflowID(ctx context.Context, workflowID string) ([]*Workflow, error)

	// GetLatest retrieves the newest event of a workflow.
	// If before is not nil, only events submitted at or before that time are considered.
	GetLatest(ctx context.Context, workflowID string, before *time.Time) (*Workflow, error)

	// Create stores a new workflow event
	Create(ctx context.Context, draft *WorkflowDraft) (*Workflow, error)
}

// DecisionRepository defines the decision repository API.
// Decisions are append-only; replays create new entries.
type DecisionRepository interface {
	// Get retrieves multiple decisions, newest first
	Get(ctx context.Context, offset, limit uint64) ([]*Decision, error)

	// GetByID retrieves a decision by its ID
	GetByID(ctx context.Context, id int64) (*Decision, error)

	// GetByWorkflowID retrieves all decisions of a workflow, newest first
	GetByWorkflowID(ctx context.Context, workflowID string) ([]*Decision, error)

	// GetByOutcome retrieves the newest decisions with a specific outcome
	GetByOutcome(ctx context.Context, outcome Outcome, limit uint64) ([]*Decision, error)

	// Count returns the amount of decisions per outcome and in total
	Count(ctx context.Context) (map[Outcome]int, int, error)

	// Create stores a new decision
	Create(ctx context.Context, decision *Decision) (*Decision, error)
}
