package inmem

import (
	"context"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/skybi/compliance-console/internal/compliance"
)

// StructuredRuleRepository implements the compliance.StructuredRuleRepository interface using go-memdb
type StructuredRuleRepository struct {
	db  *memdb.MemDB
	ids sequence
}

var _ compliance.StructuredRuleRepository = (*StructuredRuleRepository)(nil)

// GetByRuleID retrieves all interpretations of a rule, oldest first
func (repo *StructuredRuleRepository) GetByRuleID(_ context.Context, ruleID string) ([]*compliance.StructuredRule, error) {
	txn := repo.db.Txn(false)
	iterator, err := txn.Get(tableStructuredRules, "rule_id", ruleID)
	if err != nil {
		return nil, err
	}
	rules := collect[*compliance.StructuredRule](iterator)
	sortByID(rules, structuredRuleID, false)
	return copyStructuredRules(rules), nil
}

// GetLatest retrieves the newest interpretation of a rule
func (repo *StructuredRuleRepository) GetLatest(ctx context.Context, ruleID string) (*compliance.StructuredRule, error) {
	rules, err := repo.GetByRuleID(ctx, ruleID)
	if err != nil || len(rules) == 0 {
		return nil, err
	}
	return rules[len(rules)-1], nil
}

// GetByVersion retrieves the first interpretation of a specific rule version
func (repo *StructuredRuleRepository) GetByVersion(_ context.Context, ruleID, version string) (*compliance.StructuredRule, error) {
	txn := repo.db.Txn(false)
	iterator, err := txn.Get(tableStructuredRules, "version", ruleID, version)
	if err != nil {
		return nil, err
	}
	rules := collect[*compliance.StructuredRule](iterator)
	if len(rules) == 0 {
		return nil, nil
	}
	sortByID(rules, structuredRuleID, false)
	return copyStructuredRule(rules[0]), nil
}

// Create stores a new interpretation
func (repo *StructuredRuleRepository) Create(_ context.Context, rule *compliance.StructuredRule) (*compliance.StructuredRule, error) {
	obj := copyStructuredRule(rule)
	obj.ID = repo.ids.next()
	obj.CreatedAt = time.Now().UTC()

	txn := repo.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(tableStructuredRules, obj); err != nil {
		return nil, err
	}
	txn.Commit()

	return copyStructuredRule(obj), nil
}

func structuredRuleID(rule *compliance.StructuredRule) int64 {
	return rule.ID
}

func copyStructuredRule(rule *compliance.StructuredRule) *compliance.StructuredRule {
	cpy := *rule
	cpy.ApplicabilityConditions = append([]string{}, rule.ApplicabilityConditions...)
	cpy.Obligations = append([]string{}, rule.Obligations...)
	cpy.Exceptions = append([]string{}, rule.Exceptions...)
	return &cpy
}

func copyStructuredRules(rules []*compliance.StructuredRule) []*compliance.StructuredRule {
	copies := make([]*compliance.StructuredRule, 0, len(rules))
	for _, rule := range rules {
		copies = append(copies, copyStructuredRule(rule))
	}
	return copies
}
