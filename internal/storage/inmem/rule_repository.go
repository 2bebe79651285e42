package inmem

import (
	"context"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/skybi/compliance-console/internal/compliance"
)

// RuleRepository implements the compliance.RuleRepository interface using go-memdb
type RuleRepository struct {
	db  *memdb.MemDB
	ids sequence
}

var _ compliance.RuleRepository = (*RuleRepository)(nil)

// Get retrieves multiple rules ordered by their internal ID
func (repo *RuleRepository) Get(_ context.Context, offset, limit uint64) ([]*compliance.Rule, error) {
	txn := repo.db.Txn(false)
	iterator, err := txn.Get(tableRules, "id")
	if err != nil {
		return nil, err
	}
	rules := collect[*compliance.Rule](iterator)
	sortByID(rules, ruleID, false)
	return copyRules(page(rules, offset, limit)), nil
}

// GetByRuleID retrieves a rule by its public rule ID
func (repo *RuleRepository) GetByRuleID(_ context.Context, id string) (*compliance.Rule, error) {
	txn := repo.db.Txn(false)
	obj, err := txn.First(tableRules, "rule_id", id)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	cpy := *obj.(*compliance.Rule)
	return &cpy, nil
}

// GetActive retrieves all rules with the ACTIVE status
func (repo *RuleRepository) GetActive(_ context.Context) ([]*compliance.Rule, error) {
	txn := repo.db.Txn(false)
	iterator, err := txn.Get(tableRules, "status", string(compliance.RuleStatusActive))
	if err != nil {
		return nil, err
	}
	rules := collect[*compliance.Rule](iterator)
	sortByID(rules, ruleID, false)
	return copyRules(rules), nil
}

// Create creates a new rule
func (repo *RuleRepository) Create(_ context.Context, draft *compliance.RuleDraft) (*compliance.Rule, error) {
	txn := repo.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tableRules, "rule_id", draft.RuleID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, compliance.ErrRuleIDTaken
	}

	obj := &compliance.Rule{
		ID:            repo.ids.next(),
		RuleID:        draft.RuleID,
		Category:      draft.Category,
		RuleText:      draft.RuleText,
		Severity:      draft.Severity,
		Version:       draft.Version,
		Status:        draft.Status,
		EffectiveFrom: time.Now().UTC(),
	}
	if obj.Status == "" {
		obj.Status = compliance.RuleStatusActive
	}
	if draft.EffectiveFrom != nil {
		obj.EffectiveFrom = draft.EffectiveFrom.UTC()
	}
	if err := txn.Insert(tableRules, obj); err != nil {
		return nil, err
	}
	txn.Commit()

	cpy := *obj
	return &cpy, nil
}

// Update replaces the fields of an existing rule
func (repo *RuleRepository) Update(_ context.Context, id string, draft *compliance.RuleDraft) (*compliance.Rule, error) {
	txn := repo.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tableRules, "rule_id", id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	// memdb objects must not be modified in place
	obj := *existing.(*compliance.Rule)
	if draft.Category != "" {
		obj.Category = draft.Category
	}
	if draft.RuleText != "" {
		obj.RuleText = draft.RuleText
	}
	if draft.Severity != "" {
		obj.Severity = draft.Severity
	}
	if draft.Version != "" {
		obj.Version = draft.Version
	}
	if draft.Status != "" {
		obj.Status = draft.Status
	}
	if draft.EffectiveFrom != nil {
		obj.EffectiveFrom = draft.EffectiveFrom.UTC()
	}
	if err := txn.Insert(tableRules, &obj); err != nil {
		return nil, err
	}
	txn.Commit()

	cpy := obj
	return &cpy, nil
}

// Delete deletes a rule by its internal ID
func (repo *RuleRepository) Delete(_ context.Context, id int64) error {
	txn := repo.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll(tableRules, "id", id); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func ruleID(rule *compliance.Rule) int64 {
	return rule.ID
}

func copyRules(rules []*compliance.Rule) []*compliance.Rule {
	copies := make([]*compliance.Rule, 0, len(rules))
	for _, rule := range rules {
		cpy := *rule
		copies = append(copies, &cpy)
	}
	return copies
}
