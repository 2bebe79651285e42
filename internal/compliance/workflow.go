package compliance

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Workflow represents a single immutable workflow event submitted for auditing
type Workflow struct {
	ID           int64          `json:"id"`
	WorkflowID   string         `json:"workflow_id"`
	WorkflowType WorkflowType   `json:"workflow_type"`
	Attributes   map[string]any `json:"attributes"`
	ActorID      string         `json:"actor_id"`
	SourceSystem string         `json:"source_system"`
	SubmittedAt  time.Time      `json:"submitted_at"`
}

// WorkflowDraft is used to submit a new workflow event.
// Attributes is kept raw so that malformed free-form input can be rejected before it is sent anywhere.
type WorkflowDraft struct {
	WorkflowID   string          `json:"workflow_id"`
	WorkflowType WorkflowType    `json:"workflow_type"`
	Attributes   json.RawMessage `json:"attributes"`
	ActorID      string          `json:"actor_id"`
	SourceSystem string          `json:"source_system"`
}

// Validate checks the draft for missing fields, unknown workflow types and attributes that are not a JSON object
func (draft *WorkflowDraft) Validate() error {
	if strings.TrimSpace(draft.WorkflowID) == "" {
		return errFieldMissing("workflow_id")
	}
	if !draft.WorkflowType.Valid() {
		return errFieldInvalid("workflow_type", string(draft.WorkflowType))
	}
	if _, err := draft.ParseAttributes(); err != nil {
		return err
	}
	if strings.TrimSpace(draft.ActorID) == "" {
		return errFieldMissing("actor_id")
	}
	if strings.TrimSpace(draft.SourceSystem) == "" {
		return errFieldMissing("source_system")
	}
	return nil
}

// ParseAttributes decodes the raw attributes into a JSON object
func (draft *WorkflowDraft) ParseAttributes() (map[string]any, error) {
	raw := bytes.TrimSpace(draft.Attributes)
	if len(raw) == 0 {
		return nil, errFieldMissing("attributes")
	}
	if !json.Valid(raw) {
		return nil, &FieldError{Field: "attributes", Message: "invalid JSON"}
	}
	var attributes map[string]any
	if err := json.Unmarshal(raw, &attributes); err != nil || attributes == nil {
		return nil, &FieldError{Field: "attributes", Message: "must be a JSON object"}
	}
	return attributes, nil
}
