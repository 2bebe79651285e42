package inmem

import (
	"context"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/skybi/compliance-console/internal/compliance"
)

// DecisionRepository implements the compliance.DecisionRepository interface using go-memdb
type DecisionRepository struct {
	db  *memdb.MemDB
	ids sequence
}

var _ compliance.DecisionRepository = (*DecisionRepository)(nil)

// Get retrieves multiple decisions, newest first
func (repo *DecisionRepository) Get(_ context.Context, offset, limit uint64) ([]*compliance.Decision, error) {
	txn := repo.db.Txn(false)
	iterator, err := txn.Get(tableDecisions, "id")
	if err != nil {
		return nil, err
	}
	decisions := collect[*compliance.Decision](iterator)
	sortByID(decisions, decisionID, true)
	return copyDecisions(page(decisions, offset, limit)), nil
}

// GetByID retrieves a decision by its ID
func (repo *DecisionRepository) GetByID(_ context.Context, id int64) (*compliance.Decision, error) {
	txn := repo.db.Txn(false)
	obj, err := txn.First(tableDecisions, "id", id)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	return copyDecision(obj.(*compliance.Decision)), nil
}

// GetByWorkflowID retrieves all decisions of a workflow, newest first
func (repo *DecisionRepository) GetByWorkflowID(_ context.Context, workflowID string) ([]*compliance.Decision, error) {
	txn := repo.db.Txn(false)
	iterator, err := txn.Get(tableDecisions, "workflow_id", workflowID)
	if err != nil {
		return nil, err
	}
	decisions := collect[*compliance.Decision](iterator)
	sortByID(decisions, decisionID, true)
	return copyDecisions(decisions), nil
}

// GetByOutcome retrieves the newest decisions with a specific outcome
func (repo *DecisionRepository) GetByOutcome(_ context.Context, outcome compliance.Outcome, limit uint64) ([]*compliance.Decision, error) {
	txn := repo.db.Txn(false)
	iterator, err := txn.Get(tableDecisions, "decision", string(outcome))
	if err != nil {
		return nil, err
	}
	decisions := collect[*compliance.Decision](iterator)
	sortByID(decisions, decisionID, true)
	return copyDecisions(page(decisions, 0, limit)), nil
}

// Count returns the amount of decisions per outcome and in total
func (repo *DecisionRepository) Count(_ context.Context) (map[compliance.Outcome]int, int, error) {
	counts := make(map[compliance.Outcome]int, len(compliance.Outcomes))
	for _, outcome := range compliance.Outcomes {
		counts[outcome] = 0
	}

	txn := repo.db.Txn(false)
	iterator, err := txn.Get(tableDecisions, "id")
	if err != nil {
		return nil, 0, err
	}
	total := 0
	for obj := iterator.Next(); obj != nil; obj = iterator.Next() {
		counts[obj.(*compliance.Decision).Decision]++
		total++
	}
	return counts, total, nil
}

// Create stores a new decision
func (repo *DecisionRepository) Create(_ context.Context, decision *compliance.Decision) (*compliance.Decision, error) {
	obj := copyDecision(decision)
	obj.ID = repo.ids.next()
	obj.CreatedAt = time.Now().UTC()

	txn := repo.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(tableDecisions, obj); err != nil {
		return nil, err
	}
	txn.Commit()

	return copyDecision(obj), nil
}

func decisionID(decision *compliance.Decision) int64 {
	return decision.ID
}

func copyDecision(decision *compliance.Decision) *compliance.Decision {
	cpy := *decision
	cpy.ViolatedRules = append([]string{}, decision.ViolatedRules...)
	cpy.ReasoningTrace = append([]compliance.TraceEntry{}, decision.ReasoningTrace...)
	cpy.RuleVersions = make(map[string]string, len(decision.RuleVersions))
	for ruleID, version := range decision.RuleVersions {
		cpy.RuleVersions[ruleID] = version
	}
	return &cpy
}

func copyDecisions(decisions []*compliance.Decision) []*compliance.Decision {
	copies := make([]*compliance.Decision, 0, len(decisions))
	for _, decision := range decisions {
		copies = append(copies, copyDecision(decision))
	}
	return copies
}
