package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Response represents the raw answer of the backend.
// The body is buffered but only parsed on demand.
type Response struct {
	StatusCode int
	Header     http.Header
	body       []byte
}

// OK reports whether the status code is in the 2xx range
func (response *Response) OK() bool {
	return response.StatusCode >= 200 && response.StatusCode < 300
}

// Bytes returns the raw response body
func (response *Response) Bytes() []byte {
	return response.body
}

// Decode parses the JSON body into target
func (response *Response) Decode(target any) error {
	if len(bytes.TrimSpace(response.body)) == 0 {
		return fmt.Errorf("client: empty response body (status %d)", response.StatusCode)
	}
	if err := json.Unmarshal(response.body, target); err != nil {
		return fmt.Errorf("client: could not decode response body: %w", err)
	}
	return nil
}

// Err maps a non-2xx response to the error taxonomy; it returns nil for successful responses
func (response *Response) Err() error {
	if response.OK() {
		return nil
	}
	detail := response.Detail()
	switch {
	case response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden:
		return &AuthError{StatusCode: response.StatusCode, Detail: detail}
	case response.StatusCode == http.StatusNotFound:
		return &NotFoundError{Detail: detail}
	case response.StatusCode >= 400 && response.StatusCode < 500:
		return &ValidationError{StatusCode: response.StatusCode, Detail: detail}
	default:
		return &StatusError{StatusCode: response.StatusCode, Detail: detail}
	}
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationIssue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// Detail extracts the human-readable error message of an error response.
// Both the plain {"detail": "..."} and the list form {"detail": [{"loc": [...], "msg": "..."}]} are understood;
// anything else falls back to the raw body or the status text.
func (response *Response) Detail() string {
	var body errorBody
	if err := json.Unmarshal(response.body, &body); err == nil && len(body.Detail) > 0 {
		var message string
		if err := json.Unmarshal(body.Detail, &message); err == nil {
			return message
		}
		var issues []validationIssue
		if err := json.Unmarshal(body.Detail, &issues); err == nil && len(issues) > 0 {
			messages := make([]string, 0, len(issues))
			for _, issue := range issues {
				messages = append(messages, formatIssue(issue))
			}
			return strings.Join(messages, "; ")
		}
	}
	if raw := strings.TrimSpace(string(response.body)); raw != "" {
		return raw
	}
	return http.StatusText(response.StatusCode)
}

func formatIssue(issue validationIssue) string {
	loc := make([]string, 0, len(issue.Loc))
	for _, part := range issue.Loc {
		// The leading location part only names where the value came from ("body", "query")
		if s, ok := part.(string); ok && (s == "body" || s == "query" || s == "path") && len(loc) == 0 {
			continue
		}
		loc = append(loc, fmt.Sprint(part))
	}
	if len(loc) == 0 {
		return issue.Msg
	}
	return strings.Join(loc, ".") + ": " + issue.Msg
}

// Decode combines a client call with response decoding:
//
//	rules, err := client.Decode[[]compliance.Rule](c.ListRules(ctx))
//
// Non-2xx responses are returned as errors from the taxonomy.
func Decode[T any](response *Response, err error) (T, error) {
	var target T
	if err != nil {
		return target, err
	}
	if err := response.Err(); err != nil {
		return target, err
	}
	if err := response.Decode(&target); err != nil {
		return target, err
	}
	return target, nil
}
