package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/skybi/compliance-console/internal/compliance"
)

var structuredRuleColumns = []string{
	"id",
	"rule_id",
	"version",
	"applicability_conditions",
	"obligations",
	"exceptions",
	"severity",
	"COALESCE(raw_output, '')",
	"created_at",
}

// StructuredRuleRepository implements the compliance.StructuredRuleRepository interface using PostgreSQL
type StructuredRuleRepository struct {
	db *pgxpool.Pool
}

var _ compliance.StructuredRuleRepository = (*StructuredRuleRepository)(nil)

// GetByRuleID retrieves all interpretations of a rule, oldest first
func (repo *StructuredRuleRepository) GetByRuleID(ctx context.Context, ruleID string) ([]*compliance.StructuredRule, error) {
	query := psql.Select(structuredRuleColumns...).From("structured_rules").
		Where(squirrel.Eq{"rule_id": ruleID}).
		OrderBy("id ASC")
	return repo.query(ctx, query)
}

// GetLatest retrieves the newest interpretation of a rule
func (repo *StructuredRuleRepository) GetLatest(ctx context.Context, ruleID string) (*compliance.StructuredRule, error) {
	query := psql.Select(structuredRuleColumns...).From("structured_rules").
		Where(squirrel.Eq{"rule_id": ruleID}).
		OrderBy("id DESC").
		Limit(1)
	return first(repo.query(ctx, query))
}

// GetByVersion retrieves the first interpretation of a specific rule version
func (repo *StructuredRuleRepository) GetByVersion(ctx context.Context, ruleID, version string) (*compliance.StructuredRule, error) {
	query := psql.Select(structuredRuleColumns...).From("structured_rules").
		Where(squirrel.Eq{"rule_id": ruleID, "version": version}).
		OrderBy("id ASC").
		Limit(1)
	return first(repo.query(ctx, query))
}

// Create stores a new interpretation
func (repo *StructuredRuleRepository) Create(ctx context.Context, rule *compliance.StructuredRule) (*compliance.StructuredRule, error) {
	conditions, err := jsonb(rule.ApplicabilityConditions)
	if err != nil {
		return nil, err
	}
	obligations, err := jsonb(rule.Obligations)
	if err != nil {
		return nil, err
	}
	exceptions, err := jsonb(rule.Exceptions)
	if err != nil {
		return nil, err
	}

	sql, vals, err := psql.Insert("structured_rules").
		Columns("rule_id", "version", "applicability_conditions", "obligations", "exceptions", "severity", "raw_output").
		Values(rule.RuleID, rule.Version, conditions, obligations, exceptions, string(rule.Severity), rule.RawOutput).
		Suffix("RETURNING " + joinColumns(structuredRuleColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}
	return rowToStructuredRule(repo.db.QueryRow(ctx, sql, vals...))
}

func (repo *StructuredRuleRepository) query(ctx context.Context, query squirrel.SelectBuilder) ([]*compliance.StructuredRule, error) {
	sql, vals, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := repo.db.Query(ctx, sql, vals...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := []*compliance.StructuredRule{}
	for rows.Next() {
		rule, err := rowToStructuredRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func rowToStructuredRule(row pgx.Row) (*compliance.StructuredRule, error) {
	obj := new(compliance.StructuredRule)
	var severity string
	err := row.Scan(
		&obj.ID,
		&obj.RuleID,
		&obj.Version,
		&obj.ApplicabilityConditions,
		&obj.Obligations,
		&obj.Exceptions,
		&severity,
		&obj.RawOutput,
		&obj.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	obj.Severity = compliance.Severity(severity)
	return obj, nil
}
