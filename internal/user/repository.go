package user

import "context"

// Repository defines the user repository API
type Repository interface {
	// GetByUsername retrieves a user by their username or nil if it is not registered
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Create creates a new user.
	// ErrUsernameTaken is returned if the username is already registered.
	Create(ctx context.Context, create *Create) (*User, error)
}

// Create is used to create a new user
type Create struct {
	Username     string
	PasswordHash []byte
}
