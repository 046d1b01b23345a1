package engine

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/draftdesk/docfill/internal/capability"
	"github.com/draftdesk/docfill/internal/model"
)

const (
	// validationFallbackHint covers rejections where the validator gave no hint.
	validationFallbackHint = "Please provide a more specific value for this field."
	// emptyInputHint is returned for blank submissions, which are rejected
	// without consulting the validator.
	emptyInputHint = "Input cannot be empty"
)

// validateInput checks one submission against the field's expectations.
// Validation fails open: a capability error accepts the trimmed raw input
// rather than blocking the user on an outage.
func (e *Engine) validateInput(ctx context.Context, ref *model.Reference, f *model.Field, raw string) (capability.Verdict, time.Duration) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return capability.Verdict{Hint: emptyInputHint}, 0
	}

	start := time.Now()
	verdict, err := e.caps.ValidateAndExtract(ctx, capability.ValidationRequest{
		FieldName:     f.Name,
		ExpectedType:  f.ExpectedType,
		UserInput:     trimmed,
		ContextBefore: f.ContextBefore,
		ContextAfter:  f.ContextAfter,
		Summary:       ref.DocumentSummary,
	})
	latency := time.Since(start)
	if err != nil {
		zap.L().Warn("engine: validation failed; accepting raw input",
			zap.String("field_id", f.ID), zap.Error(err))
		return capability.Verdict{Valid: true, ExtractedValue: trimmed}, latency
	}

	if verdict.Valid && strings.TrimSpace(verdict.ExtractedValue) == "" {
		verdict.ExtractedValue = trimmed
	}
	if !verdict.Valid && strings.TrimSpace(verdict.Hint) == "" {
		verdict.Hint = validationFallbackHint
	}
	return verdict, latency
}
