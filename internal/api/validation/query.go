// Package validation validates request parameters that are not part of the request body.
package validation

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/skybi/compliance-console/internal/api/schema"
)

// Pagination defaults of list endpoints
const (
	DefaultSkip  = 0
	DefaultLimit = 100
	MaxLimit     = 1000
)

var (
	errQueryParameterMissing = func(name string) *schema.Issue {
		return &schema.Issue{
			Loc:  []any{"query", name},
			Msg:  "Field required",
			Type: "missing",
		}
	}
	errQueryParameterInvalidType = func(name string) *schema.Issue {
		return &schema.Issue{
			Loc:  []any{"query", name},
			Msg:  "Input should be a valid integer, unable to parse string as an integer",
			Type: "int_parsing",
		}
	}
	errQueryParameterNumberOutOfRange = func(name string, value, min, max int64) *schema.Issue {
		msg := fmt.Sprintf("Input should be less than or equal to %d", max)
		if value < min {
			msg = fmt.Sprintf("Input should be greater than or equal to %d", min)
		}
		return &schema.Issue{
			Loc:  []any{"query", name},
			Msg:  msg,
			Type: "out_of_range",
		}
	}
)

// QueryNumber extracts and validates an integer value out of the query parameters of the given request
func QueryNumber(request *http.Request, key string, required bool, def, min, max int64) (int64, *schema.Issue) {
	// Extract the raw string value
	value := request.URL.Query().Get(key)
	if value == "" {
		if required {
			return 0, errQueryParameterMissing(key)
		}
		return def, nil
	}

	// Try to parse the value
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errQueryParameterInvalidType(key)
	}

	// Check if the parsed value is in the required range
	if parsed < min || parsed > max {
		return 0, errQueryParameterNumberOutOfRange(key, parsed, min, max)
	}

	return parsed, nil
}

// Pagination extracts the 'skip' and 'limit' query parameters of list endpoints
func Pagination(request *http.Request) (uint64, uint64, []*schema.Issue) {
	var issues []*schema.Issue

	skip, issue := QueryNumber(request, "skip", false, DefaultSkip, 0, math.MaxInt64)
	if issue != nil {
		issues = append(issues, issue)
	}

	limit, issue := QueryNumber(request, "limit", false, DefaultLimit, 1, MaxLimit)
	if issue != nil {
		issues = append(issues, issue)
	}

	return uint64(skip), uint64(limit), issues
}
