package postgres

import (
	"encoding/json"
	"strings"
)

// jsonb encodes a value for a JSONB column
func jsonb(value any) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// nonNil replaces a nil slice with an empty one so that it is stored as [] instead of null
func nonNil[T any](slice []T) []T {
	if slice == nil {
		return []T{}
	}
	return slice
}

// first returns the first element of a query result or nil if it is empty
func first[T any](objs []*T, err error) (*T, error) {
	if err != nil || len(objs) == 0 {
		return nil, err
	}
	return objs[0], nil
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}
