// Package inmem implements a storage driver that keeps everything in process memory using hashicorp/go-memdb.
// It is used when no database is configured and in tests.
package inmem

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/hashicorp/go-memdb"
	"github.com/skybi/compliance-console/internal/compliance"
	"github.com/skybi/compliance-console/internal/storage"
	"github.com/skybi/compliance-console/internal/user"
)

const (
	tableUsers           = "users"
	tableRules           = "rules"
	tableStructuredRules = "structured_rules"
	tableWorkflows       = "workflows"
	tableDecisions       = "decisions"
)

func idIndex() *memdb.IndexSchema {
	return &memdb.IndexSchema{
		Name:    "id",
		Unique:  true,
		Indexer: &memdb.IntFieldIndex{Field: "ID"},
	}
}

var dbSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tableUsers: {
			Name: tableUsers,
			Indexes: map[string]*memdb.IndexSchema{
				"id": idIndex(),
				"username": {
					Name:    "username",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Username"},
				},
			},
		},
		tableRules: {
			Name: tableRules,
			Indexes: map[string]*memdb.IndexSchema{
				"id": idIndex(),
				"rule_id": {
					Name:    "rule_id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "RuleID"},
				},
				"status": {
					Name:    "status",
					Indexer: &memdb.StringFieldIndex{Field: "Status"},
				},
			},
		},
		tableStructuredRules: {
			Name: tableStructuredRules,
			Indexes: map[string]*memdb.IndexSchema{
				"id": idIndex(),
				"rule_id": {
					Name:    "rule_id",
					Indexer: &memdb.StringFieldIndex{Field: "RuleID"},
				},
				"version": {
					Name: "version",
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "RuleID"},
							&memdb.StringFieldIndex{Field: "Version"},
						},
					},
				},
			},
		},
		tableWorkflows: {
			Name: tableWorkflows,
			Indexes: map[string]*memdb.IndexSchema{
				"id": idIndex(),
				"workflow_id": {
					Name:    "workflow_id",
					Indexer: &memdb.StringFieldIndex{Field: "WorkflowID"},
				},
			},
		},
		tableDecisions: {
			Name: tableDecisions,
			Indexes: map[string]*memdb.IndexSchema{
				"id": idIndex(),
				"workflow_id": {
					Name:    "workflow_id",
					Indexer: &memdb.StringFieldIndex{Field: "WorkflowID"},
				},
				"decision": {
					Name:    "decision",
					Indexer: &memdb.StringFieldIndex{Field: "Decision"},
				},
			},
		},
	},
}

// Driver represents the in-memory storage driver implementation
type Driver struct {
	db              *memdb.MemDB
	users           *UserRepository
	rules           *RuleRepository
	structuredRules *StructuredRuleRepository
	workflows       *WorkflowRepository
	decisions       *DecisionRepository
}

var _ storage.Driver = (*Driver)(nil)

// New creates a new empty in-memory storage driver.
// Use Initialize to create the database and initialize the repository implementations.
func New() *Driver {
	return &Driver{}
}

// Initialize creates the in-memory database and initializes the repository implementations
func (driver *Driver) Initialize(_ context.Context) error {
	db, err := memdb.NewMemDB(dbSchema)
	if err != nil {
		return err
	}
	driver.db = db

	driver.users = &UserRepository{db: db}
	driver.rules = &RuleRepository{db: db}
	driver.structuredRules = &StructuredRuleRepository{db: db}
	driver.workflows = &WorkflowRepository{db: db}
	driver.decisions = &DecisionRepository{db: db}
	return nil
}

// Users provides the in-memory user repository implementation
func (driver *Driver) Users() user.Repository {
	return driver.users
}

// Rules provides the in-memory rule repository implementation
func (driver *Driver) Rules() compliance.RuleRepository {
	return driver.rules
}

// StructuredRules provides the in-memory structured rule repository implementation
func (driver *Driver) StructuredRules() compliance.StructuredRuleRepository {
	return driver.structuredRules
}

// Workflows provides the in-memory workflow event repository implementation
func (driver *Driver) Workflows() compliance.WorkflowRepository {
	return driver.workflows
}

// Decisions provides the in-memory decision repository implementation
func (driver *Driver) Decisions() compliance.DecisionRepository {
	return driver.decisions
}

// Close discards the database and the repository implementations
func (driver *Driver) Close() {
	driver.users = nil
	driver.rules = nil
	driver.structuredRules = nil
	driver.workflows = nil
	driver.decisions = nil
	driver.db = nil
}

// sequence hands out auto-incrementing IDs starting at 1
type sequence struct {
	last atomic.Int64
}

func (seq *sequence) next() int64 {
	return seq.last.Add(1)
}

// collect drains an iterator into a slice of the given type
func collect[T any](iterator memdb.ResultIterator) []T {
	objs := []T{}
	for obj := iterator.Next(); obj != nil; obj = iterator.Next() {
		objs = append(objs, obj.(T))
	}
	return objs
}

// sortByID sorts the slice by the given ID accessor, ascending or descending
func sortByID[T any](objs []T, id func(T) int64, descending bool) {
	sort.Slice(objs, func(i, j int) bool {
		if descending {
			return id(objs[i]) > id(objs[j])
		}
		return id(objs[i]) < id(objs[j])
	})
}

// page applies offset and limit to an already sorted slice; a limit of 0 means no limit
func page[T any](objs []T, offset, limit uint64) []T {
	if offset >= uint64(len(objs)) {
		return []T{}
	}
	objs = objs[offset:]
	if limit > 0 && limit < uint64(len(objs)) {
		objs = objs[:limit]
	}
	return objs
}
