package engine

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/draftdesk/docfill/internal/capability"
	"github.com/draftdesk/docfill/internal/model"
	"github.com/draftdesk/docfill/internal/normalize"
)

// suggestDefaults are the per-type values used when suggestion fails or
// produces scaffolding. Deliberately generic, never derived from the
// document.
var suggestDefaults = map[model.FieldType]string{
	model.TypeLegalName:     "Unknown Company Inc.",
	model.TypeDate:          "2025-01-01",
	model.TypeMonetaryValue: "10000.00",
	model.TypeEmail:         "contact@example.com",
	model.TypeAddress:       "123 Main Street, City, State 12345",
	model.TypeJurisdiction:  "Delaware",
	model.TypeNumeric:       "1000",
	model.TypeText:          "To be determined",
}

const minSuggestionRunes = 2

// suggestValue produces the canonical value for a consented auto-fill. The
// informative raw input of the current streak is forwarded as a starting
// point; suggestions that come back broken or placeholder-shaped are replaced
// by the type default.
func (e *Engine) suggestValue(ctx context.Context, ref *model.Reference, f *model.Field, question string) (string, time.Duration) {
	prior := f.UserInputRaw
	if prior == model.AutoRawSentinel {
		prior = ""
	}

	start := time.Now()
	suggestion, err := e.caps.SuggestValue(ctx, capability.SuggestionRequest{
		QuestionText:  question,
		PriorAttempt:  prior,
		FieldName:     f.Name,
		ExpectedType:  f.ExpectedType,
		ContextBefore: f.ContextBefore,
		ContextAfter:  f.ContextAfter,
		Summary:       ref.DocumentSummary,
		FactsByName:   ref.FactsOverlayByName,
	})
	latency := time.Since(start)
	if err != nil {
		zap.L().Warn("engine: suggestion failed; using type default",
			zap.String("field_id", f.ID), zap.Error(err))
		suggestion = ""
	}

	suggestion = strings.Trim(strings.TrimSpace(suggestion), `"'`)
	if utf8.RuneCountInString(suggestion) < minSuggestionRunes || model.LooksLikePlaceholder(suggestion) {
		suggestion = typeDefault(f.ExpectedType)
	}
	return normalize.Value(f.ExpectedType, suggestion), latency
}

// typeDefault returns the fallback value for a field type.
func typeDefault(t model.FieldType) string {
	if v, ok := suggestDefaults[t]; ok {
		return v
	}
	return suggestDefaults[model.TypeText]
}
