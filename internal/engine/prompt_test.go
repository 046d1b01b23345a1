package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/draftdesk/docfill/internal/capability"
	"github.com/draftdesk/docfill/internal/model"
)

func questionFor(name string) any {
	return mock.MatchedBy(func(req capability.QuestionRequest) bool {
		return req.FieldName == name
	})
}

func TestQuestions_GeneratesCachesAndLogs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	caps := &mockCapability{}
	caps.On("GenerateQuestion", mock.Anything, questionFor("Company Name")).
		Return("What is the full legal name of the company?", nil).Once()
	caps.On("GenerateQuestion", mock.Anything, questionFor("Effective Date")).
		Return("When does the agreement take effect?", nil).Once()
	caps.On("GenerateQuestion", mock.Anything, questionFor("Purchase Price")).
		Return("What is the total purchase price?", nil).Once()

	e, st := newTestEngine(t, caps)
	ref := seedReference(t, st)

	items, err := e.Questions(ctx, ref.ID)
	require.NoError(t, err)

	require.Len(t, items, 3)
	assert.Equal(t, "field_001", items[0].FieldID)
	assert.Equal(t, "What is the full legal name of the company?", items[0].Question)
	assert.Equal(t, model.StatusPending, items[0].Status)
	assert.Equal(t, "When does the agreement take effect?", items[1].Question)
	assert.Equal(t, "What is the total purchase price?", items[2].Question)

	f := getField(t, st, ref.ID, "field_001")
	assert.Equal(t, "What is the full legal name of the company?", f.PromptText)
	require.NotNil(t, f.PromptMeta)
	assert.Equal(t, "qa-model", f.PromptMeta.Model)
	assert.Equal(t, promptKey(sampleSummary, f), f.PromptMeta.Hash)

	actions, err := st.ReadActions(ctx, ref.ID, 0)
	require.NoError(t, err)
	require.Len(t, actions, 3)
	for _, entry := range actions {
		assert.Equal(t, model.ActionPromptGenerated, entry.Action)
		assert.Equal(t, "qa-model", entry.Model)
	}

	again, err := e.Questions(ctx, ref.ID)
	require.NoError(t, err)
	assert.Equal(t, items, again)

	caps.AssertNumberOfCalls(t, "GenerateQuestion", 3)
	actions, err = st.ReadActions(ctx, ref.ID, 0)
	require.NoError(t, err)
	assert.Len(t, actions, 3, "cache hits are not logged")

	caps.AssertExpectations(t)
}

func TestQuestions_StaleHashRegenerates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	caps := &mockCapability{}
	caps.On("GenerateQuestion", mock.Anything, questionFor("Company Name")).
		Return("Who is the company?", nil).Once()
	caps.On("GenerateQuestion", mock.Anything, questionFor("Effective Date")).
		Return("When does it start?", nil).Times(2)
	caps.On("GenerateQuestion", mock.Anything, questionFor("Purchase Price")).
		Return("How much?", nil).Once()

	e, st := newTestEngine(t, caps)
	ref := seedReference(t, st)

	_, err := e.Questions(ctx, ref.ID)
	require.NoError(t, err)

	stale, err := st.Get(ctx, ref.ID)
	require.NoError(t, err)
	stale.FieldByID("field_002").PromptMeta.Hash = "stale"
	require.NoError(t, st.Save(ctx, stale))

	items, err := e.Questions(ctx, ref.ID)
	require.NoError(t, err)
	assert.Equal(t, "When does it start?", items[1].Question)

	f := getField(t, st, ref.ID, "field_002")
	assert.Equal(t, promptKey(sampleSummary, f), f.PromptMeta.Hash, "regeneration repairs the hash")

	actions, err := st.ReadActions(ctx, ref.ID, 0)
	require.NoError(t, err)
	require.Len(t, actions, 4)
	assert.Equal(t, "field_002", actions[3].FieldID)

	caps.AssertExpectations(t)
}

func TestQuestions_GenerationFailureFallsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	caps := &mockCapability{}
	caps.On("GenerateQuestion", mock.Anything, mock.Anything).
		Return("", errors.New("generation down")).Times(3)

	e, st := newTestEngine(t, caps)
	ref := seedReference(t, st)

	items, err := e.Questions(ctx, ref.ID)
	require.NoError(t, err)

	assert.Equal(t, "Please provide the Company Name.", items[0].Question)
	assert.Equal(t, "Please provide the Effective Date.", items[1].Question)
	assert.Equal(t, "Please provide the Purchase Price.", items[2].Question)

	assert.Empty(t, getField(t, st, ref.ID, "field_001").PromptText, "fallbacks are never cached")

	actions, err := st.ReadActions(ctx, ref.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, actions)

	caps.AssertExpectations(t)
}

func TestQuestions_BlankGenerationTreatedAsFailure(t *testing.T) {
	t.Parallel()

	caps := &mockCapability{}
	caps.On("GenerateQuestion", mock.Anything, mock.Anything).Return("   ", nil).Times(3)

	e, st := newTestEngine(t, caps)
	ref := seedReference(t, st)

	items, err := e.Questions(context.Background(), ref.ID)
	require.NoError(t, err)
	assert.Equal(t, "Please provide the Company Name.", items[0].Question)
}

func TestQuestions_FactsIncludedInRequests(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	caps := &mockCapability{}
	caps.On("GenerateQuestion", mock.Anything, mock.MatchedBy(func(req capability.QuestionRequest) bool {
		return req.FactsByName["Company Name"] == "Acme Inc." && req.Summary == sampleSummary
	})).Return("Generated with facts.", nil).Times(3)

	e, st := newTestEngine(t, caps)
	ref := seedReference(t, st)
	require.True(t, ref.SetFact(ref.FieldByID("field_001"), "Acme Inc."))
	require.NoError(t, st.Save(ctx, ref))

	_, err := e.Questions(ctx, ref.ID)
	require.NoError(t, err)
	caps.AssertExpectations(t)
}

func TestQuestions_CacheSurvivesFactsChange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	caps := &mockCapability{}
	caps.On("GenerateQuestion", mock.Anything, mock.Anything).
		Return("Cached question.", nil).Times(3)

	e, st := newTestEngine(t, caps)
	ref := seedReference(t, st)

	first, err := e.Questions(ctx, ref.ID)
	require.NoError(t, err)

	ref, err = st.Get(ctx, ref.ID)
	require.NoError(t, err)
	require.True(t, ref.SetFact(ref.FieldByID("field_001"), "Acme Inc."))
	require.NoError(t, st.Save(ctx, ref))

	second, err := e.Questions(ctx, ref.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second, "facts are not part of the cache key")
	caps.AssertNumberOfCalls(t, "GenerateQuestion", 3)
}

func TestQuestions_UnknownReference(t *testing.T) {
	t.Parallel()

	caps := &mockCapability{}
	e, _ := newTestEngine(t, caps)

	_, err := e.Questions(context.Background(), 404)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPromptKey_SensitiveToEveryInput(t *testing.T) {
	t.Parallel()

	base := model.Field{
		Name:          "Company Name",
		ExpectedType:  model.TypeLegalName,
		ContextBefore: "between",
		ContextAfter:  "and the client",
	}

	assert.Equal(t, promptKey("summary", &base), promptKey("summary", &base))

	variants := []model.Field{base, base, base, base}
	variants[0].Name = "Client Name"
	variants[1].ExpectedType = model.TypeText
	variants[2].ContextBefore = "among"
	variants[3].ContextAfter = "and the vendor"

	seen := map[string]bool{promptKey("summary", &base): true, promptKey("other", &base): true}
	for i := range variants {
		key := promptKey("summary", &variants[i])
		assert.False(t, seen[key], "variant %d collided", i)
		seen[key] = true
	}
}

func TestPromptKey_SeparatesAdjacentParts(t *testing.T) {
	t.Parallel()

	a := promptKey("s", &model.Field{Name: "ab"})
	b := promptKey("sa", &model.Field{Name: "b"})
	assert.NotEqual(t, a, b, "concatenation across part boundaries must not collide")
}

func TestFallbackQuestion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Please provide the Company Name.",
		FallbackQuestion(&model.Field{Name: "company name"}))
	assert.Equal(t, "Please provide a value for this blank field.",
		FallbackQuestion(&model.Field{Name: "  "}))
}
