package model

import "time"

// Action log entry names. The log is append-only; entries are never edited.
const (
	ActionReferenceCreated = "reference_created"
	ActionPromptGenerated  = "prompt_generated"
	ActionValidated        = "validated"
	ActionAutoFilled       = "auto_filled"
	ActionUndo             = "undo"
	ActionFinalGenerated   = "final_generated"
)

// ActionEntry is one record of the per-reference action log: what happened,
// to which field, with which model, and how long the external call took.
type ActionEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	FieldID   string         `json:"placeholder_id,omitempty"`
	Status    string         `json:"status,omitempty"`
	Model     string         `json:"model,omitempty"`
	LatencyMS int64          `json:"latency_ms,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// NewAction builds a log entry stamped with the current UTC time.
func NewAction(action string) ActionEntry {
	return ActionEntry{Timestamp: time.Now().UTC(), Action: action}
}
