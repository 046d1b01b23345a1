package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFieldType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TypeLegalName, ParseFieldType("legal_name"))
	assert.Equal(t, TypeMonetaryValue, ParseFieldType("  Monetary_Value "))
	assert.Equal(t, TypeText, ParseFieldType("company_name"))
	assert.Equal(t, TypeText, ParseFieldType(""))
}

func TestPriorityForType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, PriorityForType(TypeLegalName))
	assert.Equal(t, 1, PriorityForType(TypeDate))
	assert.Equal(t, 1, PriorityForType(TypeMonetaryValue))
	assert.Equal(t, 2, PriorityForType(TypeEmail))
	assert.Equal(t, 2, PriorityForType(TypeText))
}

func TestRecordAttempt_KeepsFirstInformativeRaw(t *testing.T) {
	t.Parallel()

	f := Field{ID: "field_001", Status: StatusPending}

	f.RecordAttempt("   ")
	assert.Equal(t, 1, f.Attempts)
	assert.Empty(t, f.UserInputRaw, "blank submissions are not informative")

	f.RecordAttempt("around two million")
	assert.Equal(t, 2, f.Attempts)
	assert.Equal(t, "around two million", f.UserInputRaw)

	f.RecordAttempt("2000000")
	assert.Equal(t, 3, f.Attempts)
	assert.Equal(t, "around two million", f.UserInputRaw, "first informative raw survives retries")
}

func TestRecordAttempt_ReplacesAutoSentinel(t *testing.T) {
	t.Parallel()

	f := Field{ID: "field_001", Status: StatusPending, UserInputRaw: AutoRawSentinel}
	f.RecordAttempt("Acme Inc.")
	assert.Equal(t, "Acme Inc.", f.UserInputRaw)
}

func TestFill_ClosesStreak(t *testing.T) {
	t.Parallel()

	f := Field{ID: "field_001", Status: StatusPending, Attempts: 1, Streak: StreakOffered}
	f.Fill("1500000.00")

	assert.Equal(t, StatusFilled, f.Status)
	assert.Equal(t, "1500000.00", f.UserInput)
	assert.Equal(t, 0, f.Attempts)
	assert.Equal(t, StreakCounting, f.Streak)
}

func TestAutoFill_SentinelOnlyWithoutInformativeRaw(t *testing.T) {
	t.Parallel()

	t.Run("no informative raw recorded", func(t *testing.T) {
		t.Parallel()
		f := Field{ID: "field_001", Status: StatusPending, Attempts: 2}
		f.AutoFill("Delaware")
		assert.Equal(t, StatusAutoFilled, f.Status)
		assert.Equal(t, AutoRawSentinel, f.UserInputRaw)
		assert.Equal(t, 0, f.Attempts)
	})

	t.Run("informative raw preserved", func(t *testing.T) {
		t.Parallel()
		f := Field{ID: "field_001", Status: StatusPending, Attempts: 2, UserInputRaw: "deleware maybe"}
		f.AutoFill("Delaware")
		assert.Equal(t, "deleware maybe", f.UserInputRaw)
	})
}

func TestReset_FieldIndistinguishableFromFresh(t *testing.T) {
	t.Parallel()

	f := Field{
		ID:           "field_002",
		Status:       StatusAutoFilled,
		Attempts:     2,
		Streak:       StreakExhausted,
		UserInputRaw: AutoRawSentinel,
		UserInput:    "10000.00",
		PromptText:   "What is the purchase amount?",
	}
	f.Reset()

	assert.Equal(t, StatusPending, f.Status)
	assert.Zero(t, f.Attempts)
	assert.Equal(t, StreakCounting, f.Streak)
	assert.Empty(t, f.UserInputRaw)
	assert.Empty(t, f.UserInput)
	assert.Equal(t, "What is the purchase amount?", f.PromptText, "prompt cache survives reset")
}

func TestCurrentStreak_DefaultsToCounting(t *testing.T) {
	t.Parallel()

	f := Field{}
	assert.Equal(t, StreakCounting, f.CurrentStreak())

	f.Offer()
	assert.Equal(t, StreakOffered, f.CurrentStreak())

	f.Exhaust()
	assert.Equal(t, StreakExhausted, f.CurrentStreak())
}
