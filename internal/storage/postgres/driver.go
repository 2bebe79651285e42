// Package postgres implements the storage driver using PostgreSQL.
package postgres

import (
	"context"
	"embed"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/skybi/compliance-console/internal/compliance"
	"github.com/skybi/compliance-console/internal/storage"
	"github.com/skybi/compliance-console/internal/user"
)

//go:embed migrations/*.sql
var migrations embed.FS

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Driver represents the PostgreSQL storage driver implementation
type Driver struct {
	dsn             string
	db              *pgxpool.Pool
	users           *UserRepository
	rules           *RuleRepository
	structuredRules *StructuredRuleRepository
	workflows       *WorkflowRepository
	decisions       *DecisionRepository
}

var _ storage.Driver = (*Driver)(nil)

// New creates a new empty PostgreSQL storage driver.
// Use Initialize to open the database connection and initialize the repository implementations.
func New(dsn string) *Driver {
	return &Driver{
		dsn: dsn,
	}
}

// Initialize opens the database connection, migrates the database and initializes the repository implementations
func (driver *Driver) Initialize(ctx context.Context) error {
	// Perform SQL migrations
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	migrator, err := migrate.NewWithSourceInstance("iofs", source, driver.dsn)
	if err != nil {
		return err
	}
	defer migrator.Close()
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	// Initialize the database connection pool
	pool, err := pgxpool.Connect(ctx, driver.dsn)
	if err != nil {
		return err
	}
	driver.db = pool

	// Initialize the repository implementations
	driver.users = &UserRepository{db: pool}
	driver.rules = &RuleRepository{db: pool}
	driver.structuredRules = &StructuredRuleRepository{db: pool}
	driver.workflows = &WorkflowRepository{db: pool}
	driver.decisions = &DecisionRepository{db: pool}

	return nil
}

// Users provides the PostgreSQL user repository implementation
func (driver *Driver) Users() user.Repository {
	return driver.users
}

// Rules provides the PostgreSQL rule repository implementation
func (driver *Driver) Rules() compliance.RuleRepository {
	return driver.rules
}

// StructuredRules provides the PostgreSQL structured rule repository implementation
func (driver *Driver) StructuredRules() compliance.StructuredRuleRepository {
	return driver.structuredRules
}

// Workflows provides the PostgreSQL workflow event repository implementation
func (driver *Driver) Workflows() compliance.WorkflowRepository {
	return driver.workflows
}

// Decisions provides the PostgreSQL decision repository implementation
func (driver *Driver) Decisions() compliance.DecisionRepository {
	return driver.decisions
}

// Close discards the repository implementations and closes the database connection
func (driver *Driver) Close() {
	driver.users = nil
	driver.rules = nil
	driver.structuredRules = nil
	driver.workflows = nil
	driver.decisions = nil

	driver.db.Close()
	driver.db = nil
}

// paginate applies offset and limit to a query; a limit of 0 means no limit
func paginate(query squirrel.SelectBuilder, offset, limit uint64) squirrel.SelectBuilder {
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	return query
}
