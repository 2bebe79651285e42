package inmem

import (
	"context"

	"github.com/hashicorp/go-memdb"
	"github.com/skybi/compliance-console/internal/user"
)

// UserRepository implements the user.Repository interface using go-memdb
type UserRepository struct {
	db  *memdb.MemDB
	ids sequence
}

var _ user.Repository = (*UserRepository)(nil)

// GetByUsername retrieves a user by their username
func (repo *UserRepository) GetByUsername(_ context.Context, username string) (*user.User, error) {
	txn := repo.db.Txn(false)
	obj, err := txn.First(tableUsers, "username", username)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	cpy := *obj.(*user.User)
	return &cpy, nil
}

// Create creates a new user
func (repo *UserRepository) Create(_ context.Context, create *user.Create) (*user.User, error) {
	txn := repo.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tableUsers, "username", create.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, user.ErrUsernameTaken
	}

	obj := &user.User{
		ID:           repo.ids.next(),
		Username:     create.Username,
		PasswordHash: append([]byte(nil), create.PasswordHash...),
	}
	if err := txn.Insert(tableUsers, obj); err != nil {
		return nil, err
	}
	txn.Commit()

	cpy := *obj
	return &cpy, nil
}
