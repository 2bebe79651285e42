package client

import (
	"context"
	"net/http"

	"github.com/skybi/compliance-console/internal/compliance"
)

// ListRules retrieves all rules
func (client *Client) ListRules(ctx context.Context) (*Response, error) {
	return client.Do(ctx, Request{Method: http.MethodGet, Path: "/rules/"})
}

// GetRule retrieves a single rule by its rule ID
func (client *Client) GetRule(ctx context.Context, ruleID string) (*Response, error) {
	return client.Do(ctx, Request{Method: http.MethodGet, Path: "/rules/" + pathSegment(ruleID)})
}

// CreateRule submits a new rule; malformed drafts are rejected before any request is made
func (client *Client) CreateRule(ctx context.Context, draft compliance.RuleDraft) (*Response, error) {
	if err := draft.Validate(); err != nil {
		return nil, validationErrorOf(err)
	}
	return client.Do(ctx, Request{Method: http.MethodPost, Path: "/rules/", Body: draft})
}

// UpdateRule replaces the fields of an existing rule, which makes the backend interpret it again
func (client *Client) UpdateRule(ctx context.Context, ruleID string, draft compliance.RuleDraft) (*Response, error) {
	if err := draft.Validate(); err != nil {
		return nil, validationErrorOf(err)
	}
	return client.Do(ctx, Request{Method: http.MethodPut, Path: "/rules/" + pathSegment(ruleID), Body: draft})
}

// StructuredRules retrieves all structured interpretations of a rule, one per interpreted version
func (client *Client) StructuredRules(ctx context.Context, ruleID string) (*Response, error) {
	return client.Do(ctx, Request{Method: http.MethodGet, Path: "/rules/" + pathSegment(ruleID) + "/structured"})
}
