// Package capability defines the external text-generation contracts the
// lifecycle engine orchestrates: document summarization, field type
// classification, input validation, question generation, and value
// suggestion. Calls are synchronous and single-shot; the engine applies its
// own documented fallback when a call fails, so implementations return plain
// errors and never retry.
package capability

import (
	"context"

	"github.com/draftdesk/docfill/internal/model"
)

// ClassifyRequest asks what type of value a detected field expects.
type ClassifyRequest struct {
	FieldName     string
	ContextBefore string
	ContextAfter  string
	Summary       string
}

// ValidationRequest carries everything the validator sees for one attempt.
type ValidationRequest struct {
	FieldName     string
	ExpectedType  model.FieldType
	UserInput     string
	ContextBefore string
	ContextAfter  string
	Summary       string
}

// Verdict is the validator's structured reply. ExtractedValue is only
// meaningful when Valid; Hint is only meaningful when not.
type Verdict struct {
	Valid          bool
	ExtractedValue string
	Hint           string
}

// QuestionRequest asks for a single user-facing question for a field.
type QuestionRequest struct {
	FieldName     string
	ExpectedType  model.FieldType
	ContextBefore string
	ContextAfter  string
	Summary       string
	FactsByName   map[string]string
}

// SuggestionRequest asks for a plausible value after the user gave up.
// PriorAttempt is the informative raw input of the current failure streak,
// empty when the user never offered anything usable.
type SuggestionRequest struct {
	QuestionText  string
	PriorAttempt  string
	FieldName     string
	ExpectedType  model.FieldType
	ContextBefore string
	ContextAfter  string
	Summary       string
	FactsByName   map[string]string
}

// Client is the boundary to the external text-generation capability.
type Client interface {
	Summarize(ctx context.Context, text string) (string, error)
	ClassifyType(ctx context.Context, req ClassifyRequest) (model.FieldType, error)
	ValidateAndExtract(ctx context.Context, req ValidationRequest) (Verdict, error)
	GenerateQuestion(ctx context.Context, req QuestionRequest) (string, error)
	SuggestValue(ctx context.Context, req SuggestionRequest) (string, error)
}
