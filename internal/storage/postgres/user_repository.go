package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/skybi/compliance-console/internal/user"
)

// UserRepository implements the user.Repository interface using PostgreSQL
type UserRepository struct {
	db *pgxpool.Pool
}

var _ user.Repository = (*UserRepository)(nil)

// GetByUsername retrieves a user by their username
func (repo *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	obj := new(user.User)
	err := repo.db.QueryRow(ctx, "SELECT id, username, password_hash FROM users WHERE username = $1", username).
		Scan(&obj.ID, &obj.Username, &obj.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return obj, nil
}

// Create creates a new user
func (repo *UserRepository) Create(ctx context.Context, create *user.Create) (*user.User, error) {
	obj := &user.User{
		Username:     create.Username,
		PasswordHash: create.PasswordHash,
	}
	err := repo.db.QueryRow(
		ctx,
		"INSERT INTO users (username, password_hash) VALUES ($1, $2) ON CONFLICT (username) DO NOTHING RETURNING id",
		create.Username,
		create.PasswordHash,
	).Scan(&obj.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUsernameTaken
		}
		return nil, err
	}
	return obj, nil
}
