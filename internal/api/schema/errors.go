package schema

// Generic error details
const (
	DetailNotFound         = "Not Found"
	DetailMethodNotAllowed = "Method Not Allowed"
	DetailInternal         = "Internal Server Error"
	DetailUnauthorized     = "Could not validate credentials"
)

// ErrorResponse represents the response structure sent whenever errors occurred.
// Detail is either a plain message or a list of validation issues.
type ErrorResponse struct {
	Detail any `json:"detail"`
}

// Issue represents a single request validation issue.
// Loc names where the invalid value came from ("body", "query" or "form") followed by the field path.
type Issue struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}
