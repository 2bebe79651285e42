package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/skybi/compliance-console/internal/compliance"
)

var decisionColumns = []string{"id", "workflow_id", "decision", "violated_rules", "reasoning_trace", "rule_versions", "created_at"}

// DecisionRepository implements the compliance.DecisionRepository interface using PostgreSQL
type DecisionRepository struct {
	db *pgxpool.Pool
}

var _ compliance.DecisionRepository = (*DecisionRepository)(nil)

// Get retrieves multiple decisions, newest first
func (repo *DecisionRepository) Get(ctx context.Context, offset, limit uint64) ([]*compliance.Decision, error) {
	query := paginate(psql.Select(decisionColumns...).From("decisions").OrderBy("id DESC"), offset, limit)
	return repo.query(ctx, query)
}

// GetByID retrieves a decision by its ID
func (repo *DecisionRepository) GetByID(ctx context.Context, id int64) (*compliance.Decision, error) {
	return first(repo.query(ctx, psql.Select(decisionColumns...).From("decisions").Where(squirrel.Eq{"id": id})))
}

// GetByWorkflowID retrieves all decisions of a workflow, newest first
func (repo *DecisionRepository) GetByWorkflowID(ctx context.Context, workflowID string) ([]*compliance.Decision, error) {
	query := psql.Select(decisionColumns...).From("decisions").
		Where(squirrel.Eq{"workflow_id": workflowID}).
		OrderBy("id DESC")
	return repo.query(ctx, query)
}

// GetByOutcome retrieves the newest decisions with a specific outcome
func (repo *DecisionRepository) GetByOutcome(ctx context.Context, outcome compliance.Outcome, limit uint64) ([]*compliance.Decision, error) {
	query := psql.Select(decisionColumns...).From("decisions").
		Where(squirrel.Eq{"decision": string(outcome)}).
		OrderBy("id DESC")
	return repo.query(ctx, paginate(query, 0, limit))
}

// Count returns the amount of decisions per outcome and in total
func (repo *DecisionRepository) Count(ctx context.Context) (map[compliance.Outcome]int, int, error) {
	counts := make(map[compliance.Outcome]int, len(compliance.Outcomes))
	for _, outcome := range compliance.Outcomes {
		counts[outcome] = 0
	}

	rows, err := repo.db.Query(ctx, "SELECT decision, COUNT(*) FROM decisions GROUP BY decision")
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	total := 0
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, 0, err
		}
		counts[compliance.Outcome(outcome)] = n
		total += n
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return counts, total, nil
}

// Create stores a new decision
func (repo *DecisionRepository) Create(ctx context.Context, decision *compliance.Decision) (*compliance.Decision, error) {
	violated, err := jsonb(nonNil(decision.ViolatedRules))
	if err != nil {
		return nil, err
	}
	trace, err := jsonb(nonNil(decision.ReasoningTrace))
	if err != nil {
		return nil, err
	}
	versions := decision.RuleVersions
	if versions == nil {
		versions = map[string]string{}
	}
	ruleVersions, err := jsonb(versions)
	if err != nil {
		return nil, err
	}

	sql, vals, err := psql.Insert("decisions").
		Columns("workflow_id", "decision", "violated_rules", "reasoning_trace", "rule_versions").
		Values(decision.WorkflowID, string(decision.Decision), violated, trace, ruleVersions).
		Suffix("RETURNING " + joinColumns(decisionColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}
	return rowToDecision(repo.db.QueryRow(ctx, sql, vals...))
}

func (repo *DecisionRepository) query(ctx context.Context, query squirrel.SelectBuilder) ([]*compliance.Decision, error) {
	sql, vals, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := repo.db.Query(ctx, sql, vals...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	decisions := []*compliance.Decision{}
	for rows.Next() {
		decision, err := rowToDecision(rows)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, decision)
	}
	return decisions, rows.Err()
}

func rowToDecision(row pgx.Row) (*compliance.Decision, error) {
	obj := new(compliance.Decision)
	var outcome string
	err := row.Scan(&obj.ID, &obj.WorkflowID, &outcome, &obj.ViolatedRules, &obj.ReasoningTrace, &obj.RuleVersions, &obj.CreatedAt)
	if err != nil {
		return nil, err
	}
	obj.Decision = compliance.Outcome(outcome)
	return obj, nil
}
