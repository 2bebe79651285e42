package compliance

import "fmt"

// FieldError represents a draft field that failed client-side validation
type FieldError struct {
	Field   string
	Message string
}

func (err *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", err.Field, err.Message)
}

func errFieldMissing(field string) *FieldError {
	return &FieldError{Field: field, Message: "field required"}
}

func errFieldInvalid(field, value string) *FieldError {
	return &FieldError{Field: field, Message: fmt.Sprintf("'%s' is not a permitted value", value)}
}
