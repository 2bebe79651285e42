package inmem

import (
	"context"

	"github.com/hashicorp/go-memdb"
	"github.com/skybi/compliance-console/internal/session"
)

type entry struct {
	Key   string
	Value string
}

var dbSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		"entries": {
			Name: "entries",
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:         "id",
					Unique:       true,
					AllowMissing: false,
					Indexer:      &memdb.StringFieldIndex{Field: "Key"},
				},
			},
		},
	},
}

// Driver represents the in-memory session storage driver built using hashicorp/go-memdb.
// Its contents live as long as the process does.
type Driver struct {
	db *memdb.MemDB
}

var _ session.Storage = (*Driver)(nil)

// New creates a new empty in-memory session storage driver
func New() (*Driver, error) {
	db, err := memdb.NewMemDB(dbSchema)
	if err != nil {
		return nil, err
	}
	return &Driver{db}, nil
}

// Get retrieves the value of a key
func (driver *Driver) Get(_ context.Context, key string) (string, bool, error) {
	txn := driver.db.Txn(false)
	obj, err := txn.First("entries", "id", key)
	if err != nil {
		return "", false, err
	}
	if obj == nil {
		return "", false, nil
	}
	return obj.(*entry).Value, true, nil
}

// Put sets the value of a key
func (driver *Driver) Put(_ context.Context, key, value string) error {
	txn := driver.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert("entries", &entry{Key: key, Value: value}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// Delete removes a key
func (driver *Driver) Delete(_ context.Context, key string) error {
	txn := driver.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll("entries", "id", key); err != nil {
		return err
	}
	txn.Commit()
	return nil
}
