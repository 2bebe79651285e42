package client

import (
	"errors"
	"fmt"

	"github.com/skybi/compliance-console/internal/compliance"
)

// TransportError is returned when the backend could not be reached at all
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (err *TransportError) Error() string {
	return fmt.Sprintf("failed to connect to the backend (%s %s): %v", err.Method, err.Path, err.Err)
}

func (err *TransportError) Unwrap() error {
	return err.Err
}

// AuthError represents rejected login credentials or an invalid or expired token
type AuthError struct {
	StatusCode int
	Detail     string
}

func (err *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (%d): %s", err.StatusCode, err.Detail)
}

// ValidationError represents a malformed payload.
// StatusCode is 0 if the payload was rejected client-side before any request was made.
type ValidationError struct {
	StatusCode int
	Field      string
	Detail     string
}

func (err *ValidationError) Error() string {
	if err.Field != "" {
		return fmt.Sprintf("validation failed: %s: %s", err.Field, err.Detail)
	}
	return fmt.Sprintf("validation failed: %s", err.Detail)
}

// NotFoundError represents a referenced rule, workflow or decision the backend does not know
type NotFoundError struct {
	Detail string
}

func (err *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", err.Detail)
}

// StatusError represents any other non-2xx response
type StatusError struct {
	StatusCode int
	Detail     string
}

func (err *StatusError) Error() string {
	return fmt.Sprintf("unexpected backend response (%d): %s", err.StatusCode, err.Detail)
}

// IsUnauthorized checks whether err reports a rejected token or rejected credentials
func IsUnauthorized(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsNotFound checks whether err reports a missing resource
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

func validationErrorOf(err error) error {
	var fieldErr *compliance.FieldError
	if errors.As(err, &fieldErr) {
		return &ValidationError{Field: fieldErr.Field, Detail: fieldErr.Message}
	}
	return &ValidationError{Detail: err.Error()}
}
