package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooksLikePlaceholder(t *testing.T) {
	t.Parallel()

	placeholders := []string{
		"",
		"   ",
		"[Company Name]",
		"{{party_b}}",
		"{Date}",
		"partially [bracketed] value",
		"COMPANY NAME",
		"[PURCHASE AMOUNT]",
		"field_003",
		"placeholder_12",
		"___________",
		"TODO: ask legal",
		"TBD",
		"PLACEHOLDER",
	}
	for _, v := range placeholders {
		assert.True(t, LooksLikePlaceholder(v), "expected placeholder: %q", v)
	}

	values := []string{
		"Acme Holdings Inc.",
		"1500000.00",
		"2025-06-30",
		"contact@example.com",
		"123 Main Street, City, State 12345",
		"Delaware",
		"Center Street Partners LLC",
		"field_003 Industries", // id shape only trips as a whole token
	}
	for _, v := range values {
		assert.False(t, LooksLikePlaceholder(v), "expected real value: %q", v)
	}
}

func TestSetFact_GuardRejectsScaffolding(t *testing.T) {
	t.Parallel()

	r := NewReference("", "", "", "", []Field{
		{ID: "field_001", Name: "Company Name", Status: StatusPending},
	})
	f := r.FieldByID("field_001")
	require.NotNil(t, f)

	ok := r.SetFact(f, "[Company Name]")
	assert.False(t, ok)
	assert.Empty(t, r.FactsOverlay)
	assert.Empty(t, r.FactsOverlayByName)

	ok = r.SetFact(f, "Acme Holdings Inc.")
	assert.True(t, ok)
	assert.Equal(t, "Acme Holdings Inc.", r.FactsOverlay["field_001"])
	assert.Equal(t, "Acme Holdings Inc.", r.FactsOverlayByName["Company Name"])
}

func TestSetFact_NilMapsInitialized(t *testing.T) {
	t.Parallel()

	r := &Reference{Fields: []Field{{ID: "field_001", Name: "State"}}}
	ok := r.SetFact(r.FieldByID("field_001"), "Delaware")
	require.True(t, ok)
	assert.Equal(t, "Delaware", r.FactsOverlay["field_001"])
	assert.Equal(t, "Delaware", r.FactsOverlayByName["State"])
}

func TestRemoveFact_SiblingKeepsNameEntry(t *testing.T) {
	t.Parallel()

	r := NewReference("", "", "", "", []Field{
		{ID: "field_001", Name: "Company Name", Status: StatusFilled},
		{ID: "field_002", Name: "Company Name", Status: StatusFilled},
	})
	a := r.FieldByID("field_001")
	b := r.FieldByID("field_002")
	require.True(t, r.SetFact(a, "Acme Inc."))
	require.True(t, r.SetFact(b, "Acme Inc."))

	a.Reset()
	r.RemoveFact(a)

	assert.NotContains(t, r.FactsOverlay, "field_001")
	assert.Contains(t, r.FactsOverlay, "field_002")
	assert.Equal(t, "Acme Inc.", r.FactsOverlayByName["Company Name"], "filled sibling keeps the name entry")

	b.Reset()
	r.RemoveFact(b)

	assert.Empty(t, r.FactsOverlay)
	assert.NotContains(t, r.FactsOverlayByName, "Company Name", "last sibling removal drops the name entry")
}

func TestRemoveFact_PendingSiblingDoesNotKeepName(t *testing.T) {
	t.Parallel()

	r := NewReference("", "", "", "", []Field{
		{ID: "field_001", Name: "Purchase Amount", Status: StatusFilled},
		{ID: "field_002", Name: "Purchase Amount", Status: StatusPending},
	})
	f := r.FieldByID("field_001")
	require.True(t, r.SetFact(f, "10000.00"))

	f.Reset()
	r.RemoveFact(f)

	assert.NotContains(t, r.FactsOverlayByName, "Purchase Amount",
		"a pending sibling does not hold the name entry")
}
