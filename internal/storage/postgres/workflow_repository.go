package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/skybi/compliance-console/internal/compliance"
)

var workflowColumns = []string{"id", "workflow_id", "workflow_type", "attributes", "actor_id", "source_system", "submitted_at"}

// WorkflowRepository implements the compliance.WorkflowRepository interface using PostgreSQL
type WorkflowRepository struct {
	db *pgxpool.Pool
}

var _ compliance.WorkflowRepository = (*WorkflowRepository)(nil)

// Get retrieves multiple workflow events ordered by their internal ID
func (repo *WorkflowRepository) Get(ctx context.Context, offset, limit uint64) ([]*compliance.Workflow, error) {
	query := paginate(psql.Select(workflowColumns...).From("workflow_events").OrderBy("id ASC"), offset, limit)
	return repo.query(ctx, query)
}

// GetByWorkflowID retrieves all events of a workflow, oldest first
func (repo *WorkflowRepository) GetByWorkflowID(ctx context.Context, workflowID string) ([]*compliance.Workflow, error) {
	query := psql.Select(workflowColumns...).From("workflow_events").
		Where(squirrel.Eq{"workflow_id": workflowID}).
		OrderBy("id ASC")
	return repo.query(ctx, query)
}

// GetLatest retrieves the newest event of a workflow, optionally only considering events submitted at or before a
// specific time
func (repo *WorkflowRepository) GetLatest(ctx context.Context, workflowID string, before *time.Time) (*compliance.Workflow, error) {
	query := psql.Select(workflowColumns...).From("workflow_events").
		Where(squirrel.Eq{"workflow_id": workflowID}).
		OrderBy("submitted_at DESC", "id DESC").
		Limit(1)
	if before != nil {
		query = query.Where(squirrel.LtOrEq{"submitted_at": *before})
	}
	return first(repo.query(ctx, query))
}

// Create stores a new workflow event
func (repo *WorkflowRepository) Create(ctx context.Context, draft *compliance.WorkflowDraft) (*compliance.Workflow, error) {
	attributes, err := draft.ParseAttributes()
	if err != nil {
		return nil, err
	}
	raw, err := jsonb(attributes)
	if err != nil {
		return nil, err
	}

	sql, vals, err := psql.Insert("workflow_events").
		Columns("workflow_id", "workflow_type", "attributes", "actor_id", "source_system").
		Values(draft.WorkflowID, string(draft.WorkflowType), raw, draft.ActorID, draft.SourceSystem).
		Suffix("RETURNING " + joinColumns(workflowColumns)).
		ToSql()
	if err != nil {
		return nil, err
	}
	return rowToWorkflow(repo.db.QueryRow(ctx, sql, vals...))
}

func (repo *WorkflowRepository) query(ctx context.Context, query squirrel.SelectBuilder) ([]*compliance.Workflow, error) {
	sql, vals, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := repo.db.Query(ctx, sql, vals...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workflows := []*compliance.Workflow{}
	for rows.Next() {
		workflow, err := rowToWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, workflow)
	}
	return workflows, rows.Err()
}

func rowToWorkflow(row pgx.Row) (*compliance.Workflow, error) {
	obj := new(compliance.Workflow)
	var workflowType string
	if err := row.Scan(&obj.ID, &obj.WorkflowID, &workflowType, &obj.Attributes, &obj.ActorID, &obj.SourceSystem, &obj.SubmittedAt); err != nil {
		return nil, err
	}
	obj.WorkflowType = compliance.WorkflowType(workflowType)
	return obj, nil
}
