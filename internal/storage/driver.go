package storage

import (
	"context"

	"github.com/skybi/compliance-console/internal/compliance"
	"github.com/skybi/compliance-console/internal/user"
)

// Driver represents a storage driver
type Driver interface {
	// Initialize initializes the storage driver (i.e. opens a database connection)
	Initialize(ctx context.Context) error

	// Users provides a user repository implementation
	Users() user.Repository

	// Rules provides a compliance rule repository implementation
	Rules() compliance.RuleRepository

	// StructuredRules provides a structured rule repository implementation
	StructuredRules() compliance.StructuredRuleRepository

	// Workflows provides a workflow event repository implementation
	Workflows() compliance.WorkflowRepository

	// Decisions provides a compliance decision repository implementation
	Decisions() compliance.DecisionRepository

	// Close closes the storage driver (i.e. closes a database connection)
	Close()
}
