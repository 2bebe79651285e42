package user

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrUsernameTaken is returned when a user is created with a username that is already registered
var ErrUsernameTaken = errors.New("username already registered")

// User represents an account that may log in to the backend
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash []byte `json:"-"`
}

// HashPassword hashes a plain password for storage
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// VerifyPassword checks if the given plain password matches the user's password hash
func (user *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) == nil
}
