package postgres

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/skybi/compliance-console/internal/compliance"
)

var ruleColumns = []string{"id", "rule_id", "category", "rule_text", "severity", "version", "status", "effective_from"}

// RuleRepository implements the compliance.RuleRepository interface using PostgreSQL
type RuleRepository struct {
	db *pgxpool.Pool
}

var _ compliance.RuleRepository = (*RuleRepository)(nil)

// Get retrieves multiple rules ordered by their internal ID
func (repo *RuleRepository) Get(ctx context.Context, offset, limit uint64) ([]*compliance.Rule, error) {
	query := paginate(psql.Select(ruleColumns...).From("rules").OrderBy("id ASC"), offset, limit)
	return repo.query(ctx, query)
}

// GetByRuleID retrieves a rule by its public rule ID
func (repo *RuleRepository) GetByRuleID(ctx context.Context, ruleID string) (*compliance.Rule, error) {
	rules, err := repo.query(ctx, psql.Select(ruleColumns...).From("rules").Where(squirrel.Eq{"rule_id": ruleID}))
	if err != nil || len(rules) == 0 {
		return nil, err
	}
	return rules[0], nil
}

// GetActive retrieves all rules with the ACTIVE status
func (repo *RuleRepository) GetActive(ctx context.Context) ([]*compliance.Rule, error) {
	query := psql.Select(ruleColumns...).From("rules").
		Where(squirrel.Eq{"status": string(compliance.RuleStatusActive)}).
		OrderBy("id ASC")
	return repo.query(ctx, query)
}

// Create creates a new rule
func (repo *RuleRepository) Create(ctx context.Context, draft *compliance.RuleDraft) (*compliance.Rule, error) {
	status := draft.Status
	if status == "" {
		status = compliance.RuleStatusActive
	}

	query := psql.Insert("rules").
		Columns("rule_id", "category", "rule_text", "severity", "version", "status").
		Values(draft.RuleID, string(draft.Category), draft.RuleText, string(draft.Severity), draft.Version, string(status))
	if draft.EffectiveFrom != nil {
		query = psql.Insert("rules").
			Columns("rule_id", "category", "rule_text", "severity", "version", "status", "effective_from").
			Values(draft.RuleID, string(draft.Category), draft.RuleText, string(draft.Severity), draft.Version, string(status), *draft.EffectiveFrom)
	}
	query = query.Suffix("ON CONFLICT (rule_id) DO NOTHING RETURNING " + joinColumns(ruleColumns))

	sql, vals, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	rule, err := rowToRule(repo.db.QueryRow(ctx, sql, vals...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, compliance.ErrRuleIDTaken
		}
		return nil, err
	}
	return rule, nil
}

// Update replaces the fields of an existing rule
func (repo *RuleRepository) Update(ctx context.Context, ruleID string, draft *compliance.RuleDraft) (*compliance.Rule, error) {
	query := psql.Update("rules").Where(squirrel.Eq{"rule_id": ruleID})
	changed := false
	set := func(column string, value any, ok bool) {
		if ok {
			query = query.Set(column, value)
			changed = true
		}
	}
	set("category", string(draft.Category), draft.Category != "")
	set("rule_text", draft.RuleText, draft.RuleText != "")
	set("severity", string(draft.Severity), draft.Severity != "")
	set("version", draft.Version, draft.Version != "")
	set("status", string(draft.Status), draft.Status != "")
	if draft.EffectiveFrom != nil {
		set("effective_from", *draft.EffectiveFrom, true)
	}
	if !changed {
		return repo.GetByRuleID(ctx, ruleID)
	}

	sql, vals, err := query.Suffix("RETURNING " + joinColumns(ruleColumns)).ToSql()
	if err != nil {
		return nil, err
	}
	rule, err := rowToRule(repo.db.QueryRow(ctx, sql, vals...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rule, nil
}

// Delete deletes a rule by its internal ID
func (repo *RuleRepository) Delete(ctx context.Context, id int64) error {
	_, err := repo.db.Exec(ctx, "DELETE FROM rules WHERE id = $1", id)
	return err
}

func (repo *RuleRepository) query(ctx context.Context, query squirrel.SelectBuilder) ([]*compliance.Rule, error) {
	sql, vals, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := repo.db.Query(ctx, sql, vals...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := []*compliance.Rule{}
	for rows.Next() {
		rule, err := rowToRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func rowToRule(row pgx.Row) (*compliance.Rule, error) {
	obj := new(compliance.Rule)
	var category, severity, status string
	if err := row.Scan(&obj.ID, &obj.RuleID, &category, &obj.RuleText, &severity, &obj.Version, &status, &obj.EffectiveFrom); err != nil {
		return nil, err
	}
	obj.Category = compliance.RuleCategory(category)
	obj.Severity = compliance.Severity(severity)
	obj.Status = compliance.RuleStatus(status)
	return obj, nil
}
