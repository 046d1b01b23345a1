package model

import (
	"strings"
	"time"
)

// FieldType classifies what kind of value a field expects. Classification
// output is forced onto this set; anything unrecognized becomes TypeText.
type FieldType string

const (
	TypeLegalName     FieldType = "legal_name"
	TypeDate          FieldType = "date"
	TypeMonetaryValue FieldType = "monetary_value"
	TypeEmail         FieldType = "email"
	TypeAddress       FieldType = "address"
	TypeJurisdiction  FieldType = "jurisdiction"
	TypeNumeric       FieldType = "numeric"
	TypeText          FieldType = "text"
)

var validFieldTypes = map[FieldType]struct{}{
	TypeLegalName:     {},
	TypeDate:          {},
	TypeMonetaryValue: {},
	TypeEmail:         {},
	TypeAddress:       {},
	TypeJurisdiction:  {},
	TypeNumeric:       {},
	TypeText:          {},
}

// ParseFieldType maps a raw classification label onto the known type set,
// falling back to TypeText.
func ParseFieldType(s string) FieldType {
	t := FieldType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validFieldTypes[t]; ok {
		return t
	}
	return TypeText
}

// PriorityForType ranks field types for ask ordering. Lower is asked first:
// party identity, then deal-critical values, then everything else.
func PriorityForType(t FieldType) int {
	switch t {
	case TypeLegalName:
		return 0
	case TypeDate, TypeMonetaryValue:
		return 1
	default:
		return 2
	}
}

// FieldStatus is the lifecycle state of a single field.
type FieldStatus string

const (
	StatusPending    FieldStatus = "pending"
	StatusFilled     FieldStatus = "filled"
	StatusAutoFilled FieldStatus = "auto_filled"
	StatusSkipped    FieldStatus = "skipped"
)

// StreakState tracks where the current uninterrupted failure streak stands
// relative to the auto-suggest offer, independently of the attempt counter.
type StreakState string

const (
	// StreakCounting means failures are being counted and no offer was made.
	StreakCounting StreakState = "counting"
	// StreakOffered means auto-suggest was offered once for this streak.
	StreakOffered StreakState = "offered"
	// StreakExhausted means the streak ran past the offer window; auto-suggest
	// is never offered again until the streak resets.
	StreakExhausted StreakState = "exhausted"
)

// AutoRawSentinel marks a machine-produced value in UserInputRaw so audits
// can tell auto-filled values from typed ones.
const AutoRawSentinel = "(auto)"

// Position is a byte-offset span into the reference's document text.
type Position struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// PromptMeta records how the cached question prompt was produced.
type PromptMeta struct {
	Hash        string    `json:"hash"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Field is one fillable placeholder detected in a document.
type Field struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	RawToken      string      `json:"raw_token"`
	Pattern       string      `json:"pattern"`
	Position      Position    `json:"position"`
	ContextBefore string      `json:"context_before,omitempty"`
	ContextAfter  string      `json:"context_after,omitempty"`
	ExpectedType  FieldType   `json:"expected_type"`
	Priority      int         `json:"priority"`
	Status        FieldStatus `json:"status"`
	Attempts      int         `json:"attempts"`
	Streak        StreakState `json:"streak,omitempty"`
	UserInputRaw  string      `json:"user_input_raw,omitempty"`
	UserInput     string      `json:"user_input,omitempty"`
	PromptText    string      `json:"prompt_text,omitempty"`
	PromptMeta    *PromptMeta `json:"prompt_meta,omitempty"`
}

// CurrentStreak returns the streak marker, defaulting to counting for
// aggregates written before the marker existed.
func (f *Field) CurrentStreak() StreakState {
	if f.Streak == "" {
		return StreakCounting
	}
	return f.Streak
}

// RecordAttempt counts a submission against the current failure streak and
// captures the first informative raw input of the streak. Later submissions
// never overwrite an informative raw, so the value that started the streak
// survives rejected retries.
func (f *Field) RecordAttempt(raw string) {
	f.Attempts++
	if strings.TrimSpace(raw) == "" {
		return
	}
	if f.UserInputRaw == "" || f.UserInputRaw == AutoRawSentinel {
		f.UserInputRaw = raw
	}
}

// Fill marks the field accepted with its canonical value and closes the
// failure streak.
func (f *Field) Fill(canonical string) {
	f.Status = StatusFilled
	f.UserInput = canonical
	f.Attempts = 0
	f.Streak = StreakCounting
}

// AutoFill marks the field machine-filled with its canonical value. An
// informative raw submission recorded this streak is kept; otherwise the
// raw slot carries the sentinel.
func (f *Field) AutoFill(canonical string) {
	f.Status = StatusAutoFilled
	f.UserInput = canonical
	if strings.TrimSpace(f.UserInputRaw) == "" {
		f.UserInputRaw = AutoRawSentinel
	}
	f.Attempts = 0
	f.Streak = StreakCounting
}

// Offer marks that auto-suggest was offered for the current streak.
func (f *Field) Offer() {
	f.Streak = StreakOffered
}

// Exhaust marks the current streak as past the offer window.
func (f *Field) Exhaust() {
	f.Streak = StreakExhausted
}

// Reset returns the field to pending. Apart from the action log, a reset
// field is indistinguishable from one that was never filled; the cached
// prompt is deliberately left in place.
func (f *Field) Reset() {
	f.Status = StatusPending
	f.Attempts = 0
	f.Streak = StreakCounting
	f.UserInputRaw = ""
	f.UserInput = ""
}
