// Package cache implements a storage driver that wraps another one in order to cache frequent lookups in memory.
package cache

import (
	"context"
	"time"

	"github.com/skybi/compliance-console/internal/compliance"
	"github.com/skybi/compliance-console/internal/hashmap"
	"github.com/skybi/compliance-console/internal/storage"
	"github.com/skybi/compliance-console/internal/user"
)

const (
	entryLifetime   = 5 * time.Minute
	cleanupInterval = 10 * time.Second
)

// Driver represents a storage driver implementation that wraps another one in order to implement in-memory caching.
// Only users and rules are cached; workflow events and decisions are append-only and read in bulk.
type Driver struct {
	underlying storage.Driver
	users      *UserRepository
	rules      *RuleRepository
}

var _ storage.Driver = (*Driver)(nil)

// New returns a new caching storage driver.
// The underlying driver has to be initialized before.
func New(underlying storage.Driver) *Driver {
	return &Driver{
		underlying: underlying,
	}
}

// Initialize initializes the caching repositories
func (driver *Driver) Initialize(_ context.Context) error {
	userCache := hashmap.NewExpiring[string, *user.User](entryLifetime)
	userCache.ScheduleCleanupTask(cleanupInterval)
	driver.users = &UserRepository{
		repo:  driver.underlying.Users(),
		cache: userCache,
	}

	ruleCache := hashmap.NewExpiring[string, *compliance.Rule](entryLifetime)
	ruleCache.ScheduleCleanupTask(cleanupInterval)
	driver.rules = &RuleRepository{
		repo:  driver.underlying.Rules(),
		cache: ruleCache,
	}

	return nil
}

// Users provides the caching user repository implementation
func (driver *Driver) Users() user.Repository {
	return driver.users
}

// Rules provides the caching rule repository implementation
func (driver *Driver) Rules() compliance.RuleRepository {
	return driver.rules
}

// StructuredRules provides the underlying structured rule repository implementation
func (driver *Driver) StructuredRules() compliance.StructuredRuleRepository {
	return driver.underlying.StructuredRules()
}

// Workflows provides the underlying workflow event repository implementation
func (driver *Driver) Workflows() compliance.WorkflowRepository {
	return driver.underlying.Workflows()
}

// Decisions provides the underlying decision repository implementation
func (driver *Driver) Decisions() compliance.DecisionRepository {
	return driver.underlying.Decisions()
}

// Close closes the caching repositories and the underlying driver
func (driver *Driver) Close() {
	driver.users.cache.StopCleanupTask()
	driver.users = nil
	driver.rules.cache.StopCleanupTask()
	driver.rules = nil
	driver.underlying.Close()
}
