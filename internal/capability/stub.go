package capability

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/draftdesk/docfill/internal/model"
	"github.com/draftdesk/docfill/internal/normalize"
)

// Stub implements Client with deterministic local logic: keyword type
// inference, format-level validation, templated questions, and
// salvage-based suggestions. It makes no network calls and is selected when
// no API key is configured, so the whole flow is exercisable offline.
type Stub struct{}

var _ Client = Stub{}

// typeKeywords maps field-name fragments to types, checked in order so the
// more specific families win.
var typeKeywords = []struct {
	t        model.FieldType
	keywords []string
}{
	{model.TypeEmail, []string{"email", "e-mail"}},
	{model.TypeJurisdiction, []string{"state of", "jurisdiction", "governing law", "incorporation"}},
	{model.TypeAddress, []string{"address", "street", "principal place"}},
	{model.TypeLegalName, []string{"company", "corporation", "investor", "party", "entity", "name"}},
	{model.TypeDate, []string{"date", "deadline", "day of"}},
	{model.TypeMonetaryValue, []string{"amount", "price", "valuation", "cap", "fee", "salary", "purchase"}},
	{model.TypeNumeric, []string{"number", "quantity", "shares", "percent"}},
}

// Context signals used when the field name alone is inconclusive.
var (
	dateSignal   = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)
	moneySignal  = regexp.MustCompile(`(\$|USD)\s?\d[\d,]*(\.\d{1,2})?`)
	emailSignal  = regexp.MustCompile(`[^@\s]+@[^@\s]+\.[^@\s]+`)
	emailShape   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	numericShape = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?%?$`)
)

func (Stub) Summarize(_ context.Context, text string) (string, error) {
	condensed := strings.Join(strings.Fields(text), " ")
	return head(condensed, 240), nil
}

func (Stub) ClassifyType(_ context.Context, req ClassifyRequest) (model.FieldType, error) {
	name := strings.ToLower(req.FieldName)
	for _, tk := range typeKeywords {
		for _, k := range tk.keywords {
			if strings.Contains(name, k) {
				return tk.t, nil
			}
		}
	}
	window := req.ContextBefore + " " + req.ContextAfter
	switch {
	case dateSignal.MatchString(window):
		return model.TypeDate, nil
	case moneySignal.MatchString(window):
		return model.TypeMonetaryValue, nil
	case emailSignal.MatchString(window):
		return model.TypeEmail, nil
	}
	return model.TypeText, nil
}

func (Stub) ValidateAndExtract(_ context.Context, req ValidationRequest) (Verdict, error) {
	input := strings.TrimSpace(req.UserInput)
	if input == "" {
		return Verdict{Hint: "Input cannot be empty"}, nil
	}
	switch req.ExpectedType {
	case model.TypeMonetaryValue:
		if v, ok := normalize.Money(input); ok {
			return Verdict{Valid: true, ExtractedValue: v}, nil
		}
		return Verdict{Hint: "Provide an amount such as 50000 or $1.5m"}, nil
	case model.TypeDate:
		if v, ok := normalize.Date(input); ok {
			return Verdict{Valid: true, ExtractedValue: v}, nil
		}
		return Verdict{Hint: "Provide a date such as 2025-06-30"}, nil
	case model.TypeEmail:
		if emailShape.MatchString(input) {
			return Verdict{Valid: true, ExtractedValue: strings.ToLower(input)}, nil
		}
		return Verdict{Hint: "Provide a valid email address"}, nil
	case model.TypeNumeric:
		if numericShape.MatchString(strings.ReplaceAll(input, ",", "")) {
			return Verdict{Valid: true, ExtractedValue: input}, nil
		}
		return Verdict{Hint: "Provide a plain number"}, nil
	}
	if model.LooksLikePlaceholder(input) {
		return Verdict{Hint: "Provide a real value, not a template token"}, nil
	}
	return Verdict{Valid: true, ExtractedValue: input}, nil
}

func (Stub) GenerateQuestion(_ context.Context, req QuestionRequest) (string, error) {
	name := req.FieldName
	if name == "" {
		return "Please provide a value for this blank field.", nil
	}
	switch req.ExpectedType {
	case model.TypeDate:
		return fmt.Sprintf("What is the %s? Use the YYYY-MM-DD format.", name), nil
	case model.TypeMonetaryValue:
		return fmt.Sprintf("What is the %s, as a plain amount such as 50000?", name), nil
	case model.TypeEmail:
		return fmt.Sprintf("What email address should be used for the %s?", name), nil
	default:
		return fmt.Sprintf("What is the %s?", name), nil
	}
}

// SuggestValue salvages the user's prior attempt when it holds something
// usable; otherwise it returns nothing and lets the caller fall back to its
// static default.
func (Stub) SuggestValue(_ context.Context, req SuggestionRequest) (string, error) {
	attempt := strings.TrimSpace(req.PriorAttempt)
	if attempt != "" && attempt != model.AutoRawSentinel && !model.LooksLikePlaceholder(attempt) {
		switch req.ExpectedType {
		case model.TypeMonetaryValue:
			if v, ok := normalize.Money(attempt); ok {
				return v, nil
			}
		case model.TypeDate:
			if v, ok := normalize.Date(attempt); ok {
				return v, nil
			}
		default:
			return attempt, nil
		}
	}
	return "", nil
}
