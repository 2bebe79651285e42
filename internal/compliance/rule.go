package compliance

import (
	"strings"
	"time"
)

// Rule represents a human-readable compliance rule as stored by the backend
type Rule struct {
	ID            int64        `json:"id"`
	RuleID        string       `json:"rule_id"`
	Category      RuleCategory `json:"category"`
	RuleText      string       `json:"rule_text"`
	Severity      Severity     `json:"severity"`
	Version       string       `json:"version"`
	Status        RuleStatus   `json:"status"`
	EffectiveFrom time.Time    `json:"effective_from"`
}

// RuleDraft is used to create a new rule or to replace the fields of an existing one
type RuleDraft struct {
	RuleID        string       `json:"rule_id"`
	Category      RuleCategory `json:"category"`
	RuleText      string       `json:"rule_text"`
	Severity      Severity     `json:"severity"`
	Version       string       `json:"version"`
	Status        RuleStatus   `json:"status,omitempty"`
	EffectiveFrom *time.Time   `json:"effective_from,omitempty"`
}

// Validate checks the draft for missing fields and unknown enum values.
// An empty status is allowed and defaults to ACTIVE on the backend.
func (draft *RuleDraft) Validate() error {
	if strings.TrimSpace(draft.RuleID) == "" {
		return errFieldMissing("rule_id")
	}
	if !draft.Category.Valid() {
		return errFieldInvalid("category", string(draft.Category))
	}
	if strings.TrimSpace(draft.RuleText) == "" {
		return errFieldMissing("rule_text")
	}
	if !draft.Severity.Valid() {
		return errFieldInvalid("severity", string(draft.Severity))
	}
	if strings.TrimSpace(draft.Version) == "" {
		return errFieldMissing("version")
	}
	if draft.Status != "" && !draft.Status.Valid() {
		return errFieldInvalid("status", string(draft.Status))
	}
	return nil
}

// StructuredRule represents one machine-evaluable interpretation of a rule version
type StructuredRule struct {
	ID                      int64     `json:"id"`
	RuleID                  string    `json:"rule_id"`
	Version                 string    `json:"version"`
	ApplicabilityConditions []string  `json:"applicability_conditions"`
	Obligations             []string  `json:"obligations"`
	Exceptions              []string  `json:"exceptions"`
	Severity                Severity  `json:"severity"`
	RawOutput               string    `json:"-"`
	CreatedAt               time.Time `json:"created_at"`
}
