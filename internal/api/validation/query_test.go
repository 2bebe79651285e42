package validation

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPagination(t *testing.T) {
	tests := []struct {
		query     string
		skip      uint64
		limit     uint64
		numIssues int
	}{
		{"", DefaultSkip, DefaultLimit, 0},
		{"?skip=5&limit=10", 5, 10, 0},
		{"?skip=-1", 0, DefaultLimit, 1},
		{"?limit=abc", 0, 0, 1},
		{"?skip=x&limit=0", 0, 0, 2},
	}
	for _, test := range tests {
		t.Run(test.query, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/rules/"+test.query, nil)
			skip, limit, issues := Pagination(request)
			if len(issues) != test.numIssues {
				t.Fatalf("got %d issues, want %d", len(issues), test.numIssues)
			}
			if test.numIssues == 0 && (skip != test.skip || limit != test.limit) {
				t.Errorf("Pagination() = %d, %d; want %d, %d", skip, limit, test.skip, test.limit)
			}
		})
	}
}

func TestQueryNumberRequired(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, issue := QueryNumber(request, "page", true, 0, 0, 10); issue == nil || issue.Type != "missing" {
		t.Errorf("issue = %+v, want a missing issue", issue)
	}
}
