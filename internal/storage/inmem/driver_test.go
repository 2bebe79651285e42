package inmem

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/skybi/compliance-console/internal/compliance"
	"github.com/skybi/compliance-console/internal/user"
)

func newDriver(t *testing.T) *Driver {
	t.Helper()
	driver := New()
	if err := driver.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(driver.Close)
	return driver
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := newDriver(t).Users()

	created, err := repo.Create(ctx, &user.Create{Username: "alice", PasswordHash: []byte("hash")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID != 1 {
		t.Errorf("ID = %d, want 1", created.ID)
	}

	if _, err := repo.Create(ctx, &user.Create{Username: "alice"}); !errors.Is(err, user.ErrUsernameTaken) {
		t.Errorf("duplicate Create() error = %v, want ErrUsernameTaken", err)
	}

	found, err := repo.GetByUsername(ctx, "alice")
	if err != nil || found == nil || string(found.PasswordHash) != "hash" {
		t.Fatalf("GetByUsername() = %+v, %v", found, err)
	}
	missing, err := repo.GetByUsername(ctx, "bob")
	if err != nil || missing != nil {
		t.Errorf("GetByUsername(bob) = %+v, %v; want nil, nil", missing, err)
	}
}

func TestRuleRepository(t *testing.T) {
	ctx := context.Background()
	repo := newDriver(t).Rules()

	draft := &compliance.RuleDraft{
		RuleID:   "PRV-001",
		Category: compliance.RuleCategoryPrivacy,
		RuleText: "must: consent == true",
		Severity: compliance.SeverityMedium,
		Version:  "1.0",
	}
	rule, err := repo.Create(ctx, draft)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rule.Status != compliance.RuleStatusActive {
		t.Errorf("status = %s, want ACTIVE by default", rule.Status)
	}
	if _, err := repo.Create(ctx, draft); !errors.Is(err, compliance.ErrRuleIDTaken) {
		t.Errorf("duplicate Create() error = %v, want ErrRuleIDTaken", err)
	}

	updated, err := repo.Update(ctx, "PRV-001", &compliance.RuleDraft{Version: "1.1", Status: compliance.RuleStatusDeprecated})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Version != "1.1" || updated.RuleText != draft.RuleText || updated.Status != compliance.RuleStatusDeprecated {
		t.Errorf("Update() = %+v", updated)
	}
	if missing, err := repo.Update(ctx, "NOPE", draft); err != nil || missing != nil {
		t.Errorf("Update(NOPE) = %+v, %v; want nil, nil", missing, err)
	}

	active, err := repo.GetActive(ctx)
	if err != nil || len(active) != 0 {
		t.Errorf("GetActive() = %d rules, %v; want 0", len(active), err)
	}

	if err := repo.Delete(ctx, rule.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if gone, _ := repo.GetByRuleID(ctx, "PRV-001"); gone != nil {
		t.Error("rule still exists after Delete")
	}
}

func TestRuleRepositoryPaging(t *testing.T) {
	ctx := context.Background()
	repo := newDriver(t).Rules()

	for _, id := range []string{"A", "B", "C", "D"} {
		_, err := repo.Create(ctx, &compliance.RuleDraft{
			RuleID:   id,
			Category: compliance.RuleCategoryOperational,
			RuleText: "must: true",
			Severity: compliance.SeverityLow,
			Version:  "1",
		})
		if err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	rules, err := repo.Get(ctx, 1, 2)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(rules) != 2 || rules[0].RuleID != "B" || rules[1].RuleID != "C" {
		t.Errorf("Get(1, 2) = %v", rules)
	}
	if rules, _ := repo.Get(ctx, 10, 2); len(rules) != 0 {
		t.Errorf("Get(10, 2) returned %d rules, want 0", len(rules))
	}
}

func TestStructuredRuleRepository(t *testing.T) {
	ctx := context.Background()
	repo := newDriver(t).StructuredRules()

	for _, version := range []string{"1.0", "1.0", "2.0"} {
		_, err := repo.Create(ctx, &compliance.StructuredRule{RuleID: "R", Version: version, Obligations: []string{"true"}})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	all, err := repo.GetByRuleID(ctx, "R")
	if err != nil || len(all) != 3 {
		t.Fatalf("GetByRuleID() = %d entries, %v; want 3", len(all), err)
	}
	latest, _ := repo.GetLatest(ctx, "R")
	if latest == nil || latest.Version != "2.0" {
		t.Errorf("GetLatest() = %+v, want version 2.0", latest)
	}
	first, _ := repo.GetByVersion(ctx, "R", "1.0")
	if first == nil || first.ID != all[0].ID {
		t.Errorf("GetByVersion() = %+v, want the first 1.0 interpretation", first)
	}
	if none, _ := repo.GetByRuleID(ctx, "X"); len(none) != 0 {
		t.Errorf("GetByRuleID(X) = %v, want empty", none)
	}
}

func TestWorkflowRepositoryGetLatest(t *testing.T) {
	ctx := context.Background()
	driver := newDriver(t)
	repo := driver.workflows

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	offset := 0
	repo.now = func() time.Time {
		offset++
		return base.Add(time.Duration(offset) * time.Minute)
	}

	for _, amount := range []int{1, 2, 3} {
		_, err := repo.Create(ctx, &compliance.WorkflowDraft{
			WorkflowID:   "WF-1",
			WorkflowType: compliance.WorkflowTypeClaimProcessing,
			Attributes:   json.RawMessage(`{"amount": ` + strconv.Itoa(amount) + `}`),
			ActorID:      "actor",
			SourceSystem: "test",
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	latest, err := repo.GetLatest(ctx, "WF-1", nil)
	if err != nil || latest == nil || latest.Attributes["amount"] != 3.0 {
		t.Fatalf("GetLatest() = %+v, %v", latest, err)
	}

	before := base.Add(2 * time.Minute)
	earlier, err := repo.GetLatest(ctx, "WF-1", &before)
	if err != nil || earlier == nil || earlier.Attributes["amount"] != 2.0 {
		t.Errorf("GetLatest(before) = %+v, %v", earlier, err)
	}

	if missing, _ := repo.GetLatest(ctx, "WF-2", nil); missing != nil {
		t.Errorf("GetLatest(WF-2) = %+v, want nil", missing)
	}
}

func TestDecisionRepository(t *testing.T) {
	ctx := context.Background()
	repo := newDriver(t).Decisions()

	outcomes := []compliance.Outcome{
		compliance.OutcomeCompliant,
		compliance.OutcomeNonCompliant,
		compliance.OutcomeNonCompliant,
		compliance.OutcomeRequiresReview,
	}
	for i, outcome := range outcomes {
		workflowID := "WF-A"
		if i%2 == 1 {
			workflowID = "WF-B"
		}
		_, err := repo.Create(ctx, &compliance.Decision{
			WorkflowID:   workflowID,
			Decision:     outcome,
			RuleVersions: map[string]string{"R": "1"},
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	all, err := repo.Get(ctx, 0, 0)
	if err != nil || len(all) != 4 || all[0].ID != 4 {
		t.Fatalf("Get() = %v, %v; want 4 decisions newest first", all, err)
	}

	byWorkflow, _ := repo.GetByWorkflowID(ctx, "WF-B")
	if len(byWorkflow) != 2 || byWorkflow[0].ID != 4 || byWorkflow[1].ID != 2 {
		t.Errorf("GetByWorkflowID(WF-B) = %v", byWorkflow)
	}

	alerts, _ := repo.GetByOutcome(ctx, compliance.OutcomeNonCompliant, 1)
	if len(alerts) != 1 || alerts[0].ID != 3 {
		t.Errorf("GetByOutcome() = %v, want decision 3", alerts)
	}

	counts, total, err := repo.Count(ctx)
	if err != nil || total != 4 || counts[compliance.OutcomeNonCompliant] != 2 || counts[compliance.OutcomeRequiresReview] != 1 {
		t.Errorf("Count() = %v, %d, %v", counts, total, err)
	}

	decision, _ := repo.GetByID(ctx, 1)
	decision.RuleVersions["R"] = "changed"
	stored, _ := repo.GetByID(ctx, 1)
	if stored.RuleVersions["R"] != "1" {
		t.Error("modifying a returned decision changed the stored one")
	}
	if missing, err := repo.GetByID(ctx, 99); err != nil || missing != nil {
		t.Errorf("GetByID(99) = %+v, %v; want nil, nil", missing, err)
	}
}
