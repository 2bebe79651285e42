package compliance

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRuleDraftValidate(t *testing.T) {
	valid := func() RuleDraft {
		return RuleDraft{
			RuleID:   "NYDFS-500.12",
			Category: RuleCategorySecurity,
			RuleText: "must: attributes.mfa == true",
			Severity: SeverityHigh,
			Version:  "1.0",
		}
	}

	t.Run("valid draft", func(t *testing.T) {
		draft := valid()
		if err := draft.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	cases := map[string]struct {
		mutate func(*RuleDraft)
		field  string
	}{
		"missing rule id":  {func(d *RuleDraft) { d.RuleID = " " }, "rule_id"},
		"unknown category": {func(d *RuleDraft) { d.Category = "TAX" }, "category"},
		"missing text":     {func(d *RuleDraft) { d.RuleText = "" }, "rule_text"},
		"unknown severity": {func(d *RuleDraft) { d.Severity = "CRITICAL" }, "severity"},
		"missing version":  {func(d *RuleDraft) { d.Version = "" }, "version"},
		"unknown status":   {func(d *RuleDraft) { d.Status = "RETIRED" }, "status"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			draft := valid()
			tc.mutate(&draft)
			err := draft.Validate()
			var fieldErr *FieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("expected *FieldError, got %v", err)
			}
			if fieldErr.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, fieldErr.Field)
			}
		})
	}
}

func TestWorkflowDraftValidate(t *testing.T) {
	draft := func(attributes string) WorkflowDraft {
		return WorkflowDraft{
			WorkflowID:   "WF-1",
			WorkflowType: WorkflowTypeClaimProcessing,
			Attributes:   json.RawMessage(attributes),
			ActorID:      "adjuster-7",
			SourceSystem: "INTERNAL_PORTAL",
		}
	}

	t.Run("valid object", func(t *testing.T) {
		d := draft(`{"amount": 1200, "approved": true}`)
		if err := d.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		attributes, err := d.ParseAttributes()
		if err != nil {
			t.Fatalf("ParseAttributes failed: %v", err)
		}
		if attributes["amount"] != float64(1200) {
			t.Errorf("unexpected amount: %v", attributes["amount"])
		}
	})

	for _, attributes := range []string{`{invalid`, ``, `[1, 2]`, `null`, `"text"`} {
		t.Run("rejects "+attributes, func(t *testing.T) {
			d := draft(attributes)
			var fieldErr *FieldError
			if err := d.Validate(); !errors.As(err, &fieldErr) || fieldErr.Field != "attributes" {
				t.Fatalf("expected attributes error, got %v", err)
			}
		})
	}

	t.Run("unknown workflow type", func(t *testing.T) {
		d := draft(`{}`)
		d.WorkflowType = "REFUND"
		var fieldErr *FieldError
		if err := d.Validate(); !errors.As(err, &fieldErr) || fieldErr.Field != "workflow_type" {
			t.Fatalf("expected workflow_type error, got %v", err)
		}
	})
}
