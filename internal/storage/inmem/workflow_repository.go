package inmem

import (
	"context"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/skybi/compliance-console/internal/compliance"
)

// WorkflowRepository implements the compliance.WorkflowRepository interface using go-memdb
type WorkflowRepository struct {
	db  *memdb.MemDB
	ids sequence
	now func() time.Time
}

var _ compliance.WorkflowRepository = (*WorkflowRepository)(nil)

// Get retrieves multiple workflow events ordered by their internal ID
func (repo *WorkflowRepository) Get(_ context.Context, offset, limit uint64) ([]*compliance.Workflow, error) {
	txn := repo.db.Txn(false)
	iterator, err := txn.Get(tableWorkflows, "id")
	if err != nil {
		return nil, err
	}
	workflows := collect[*compliance.Workflow](iterator)
	sortByID(workflows, workflowID, false)
	return copyWorkflows(page(workflows, offset, limit)), nil
}

// GetByWorkflowID retrieves all events of a workflow, oldest first
func (repo *WorkflowRepository) GetByWorkflowID(_ context.Context, id string) ([]*compliance.Workflow, error) {
	txn := repo.db.Txn(false)
	iterator, err := txn.Get(tableWorkflows, "workflow_id", id)
	if err != nil {
		return nil, err
	}
	workflows := collect[*compliance.Workflow](iterator)
	sortByID(workflows, workflowID, false)
	return copyWorkflows(workflows), nil
}

// GetLatest retrieves the newest event of a workflow, optionally only considering events submitted at or before a
// specific time
func (repo *WorkflowRepository) GetLatest(ctx context.Context, id string, before *time.Time) (*compliance.Workflow, error) {
	workflows, err := repo.GetByWorkflowID(ctx, id)
	if err != nil {
		return nil, err
	}
	var latest *compliance.Workflow
	for _, workflow := range workflows {
		if before != nil && workflow.SubmittedAt.After(*before) {
			continue
		}
		if latest == nil || !workflow.SubmittedAt.Before(latest.SubmittedAt) {
			latest = workflow
		}
	}
	return latest, nil
}

// Create stores a new workflow event
func (repo *WorkflowRepository) Create(_ context.Context, draft *compliance.WorkflowDraft) (*compliance.Workflow, error) {
	attributes, err := draft.ParseAttributes()
	if err != nil {
		return nil, err
	}

	now := time.Now
	if repo.now != nil {
		now = repo.now
	}
	obj := &compliance.Workflow{
		ID:           repo.ids.next(),
		WorkflowID:   draft.WorkflowID,
		WorkflowType: draft.WorkflowType,
		Attributes:   attributes,
		ActorID:      draft.ActorID,
		SourceSystem: draft.SourceSystem,
		SubmittedAt:  now().UTC(),
	}

	txn := repo.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(tableWorkflows, obj); err != nil {
		return nil, err
	}
	txn.Commit()

	cpy := *obj
	return &cpy, nil
}

func workflowID(workflow *compliance.Workflow) int64 {
	return workflow.ID
}

// copyWorkflows copies the workflow structs; attributes are never modified after creation and thus shared
func copyWorkflows(workflows []*compliance.Workflow) []*compliance.Workflow {
	copies := make([]*compliance.Workflow, 0, len(workflows))
	for _, workflow := range workflows {
		cpy := *workflow
		copies = append(copies, &cpy)
	}
	return copies
}
