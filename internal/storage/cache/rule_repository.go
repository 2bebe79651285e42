package cache

import (
	"context"

	"github.com/skybi/compliance-console/internal/compliance"
	"github.com/skybi/compliance-console/internal/hashmap"
)

// RuleRepository implements the compliance.RuleRepository interface in order to implement caching.
// Cached rules are keyed by their public rule ID.
type RuleRepository struct {
	repo  compliance.RuleRepository
	cache *hashmap.ExpiringMap[string, *compliance.Rule]
}

var _ compliance.RuleRepository = (*RuleRepository)(nil)

// Get retrieves multiple rules ordered by their internal ID
func (repo *RuleRepository) Get(ctx context.Context, offset, limit uint64) ([]*compliance.Rule, error) {
	rules, err := repo.repo.Get(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	repo.store(rules...)
	return rules, nil
}

// GetByRuleID retrieves a rule by its public rule ID
func (repo *RuleRepository) GetByRuleID(ctx context.Context, ruleID string) (*compliance.Rule, error) {
	cached, ok := repo.cache.Lookup(ruleID)
	if ok {
		cpy := *cached
		return &cpy, nil
	}
	obj, err := repo.repo.GetByRuleID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if obj != nil {
		repo.store(obj)
	}
	return obj, nil
}

// GetActive retrieves all rules with the ACTIVE status
func (repo *RuleRepository) GetActive(ctx context.Context) ([]*compliance.Rule, error) {
	rules, err := repo.repo.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	repo.store(rules...)
	return rules, nil
}

// Create creates a new rule
func (repo *RuleRepository) Create(ctx context.Context, draft *compliance.RuleDraft) (*compliance.Rule, error) {
	obj, err := repo.repo.Create(ctx, draft)
	if err != nil {
		return nil, err
	}
	repo.store(obj)
	return obj, nil
}

// Update replaces the fields of an existing rule
func (repo *RuleRepository) Update(ctx context.Context, ruleID string, draft *compliance.RuleDraft) (*compliance.Rule, error) {
	obj, err := repo.repo.Update(ctx, ruleID, draft)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		repo.cache.Unset(ruleID)
		return nil, nil
	}
	repo.store(obj)
	return obj, nil
}

// Delete deletes a rule by its internal ID
func (repo *RuleRepository) Delete(ctx context.Context, id int64) error {
	if err := repo.repo.Delete(ctx, id); err != nil {
		return err
	}
	for ruleID, rule := range repo.cache.Snapshot() {
		if rule.ID == id {
			repo.cache.Unset(ruleID)
		}
	}
	return nil
}

// store caches copies of the given rules
func (repo *RuleRepository) store(rules ...*compliance.Rule) {
	for _, rule := range rules {
		cpy := *rule
		repo.cache.Set(rule.RuleID, &cpy)
	}
}
