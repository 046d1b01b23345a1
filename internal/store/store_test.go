package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftdesk/docfill/internal/model"
)

func sampleReference(title string) *model.Reference {
	fields := []model.Field{
		{
			ID:           "field_001",
			Name:         "Company Name",
			RawToken:     "[Company Name]",
			Pattern:      "square_brackets",
			ExpectedType: model.TypeLegalName,
			Status:       model.StatusPending,
		},
		{
			ID:           "field_002",
			Name:         "Closing Date",
			RawToken:     "[Closing Date]",
			Pattern:      "square_brackets",
			ExpectedType: model.TypeDate,
			Priority:     1,
			Status:       model.StatusPending,
		},
	}
	return model.NewReference(
		title,
		"A short agreement between two parties.",
		"This agreement is made by [Company Name] on [Closing Date].",
		"This agreement is made by [field_001: the 'Company Name'] on [field_002: the 'Closing Date'].",
		fields,
	)
}

// storeTestSuite runs the backend-independent contract against a fresh store
// per subtest.
func storeTestSuite(t *testing.T, newStore func(t *testing.T) ReferenceStore) {
	t.Run("CreateAssignsDenseIDs", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first := sampleReference("First")
		require.NoError(t, s.Create(ctx, first))
		second := sampleReference("Second")
		require.NoError(t, s.Create(ctx, second))

		assert.Equal(t, int64(1), first.ID)
		assert.Equal(t, int64(2), second.ID)
	})

	t.Run("CreateAndGetRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		ref := sampleReference("Purchase Agreement")
		require.NoError(t, s.Create(ctx, ref))

		got, err := s.Get(ctx, ref.ID)
		require.NoError(t, err)
		assert.Equal(t, ref.ID, got.ID)
		assert.Equal(t, "Purchase Agreement", got.Title)
		assert.Equal(t, ref.DocumentText, got.DocumentText)
		assert.Equal(t, ref.MarkedText, got.MarkedText)
		assert.Equal(t, model.ValidationPending, got.ValidationStatus)
		require.Len(t, got.Fields, 2)
		assert.Equal(t, "field_001", got.Fields[0].ID)
		assert.Equal(t, model.TypeLegalName, got.Fields[0].ExpectedType)
		assert.NotNil(t, got.FactsOverlay)
		assert.NotNil(t, got.FactsOverlayByName)
		assert.True(t, ref.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Get(context.Background(), 404)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("SavePersistsMutations", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		ref := sampleReference("Lease")
		require.NoError(t, s.Create(ctx, ref))

		f := ref.FieldByID("field_001")
		f.RecordAttempt("Acme Holdings LLC")
		f.Fill("Acme Holdings LLC")
		ref.SetFact(f, "Acme Holdings LLC")
		ref.Touch()
		require.NoError(t, s.Save(ctx, ref))

		got, err := s.Get(ctx, ref.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusFilled, got.Fields[0].Status)
		assert.Equal(t, "Acme Holdings LLC", got.Fields[0].UserInput)
		assert.Equal(t, "Acme Holdings LLC", got.FactsOverlay["field_001"])
		assert.Equal(t, "Acme Holdings LLC", got.FactsOverlayByName["Company Name"])
	})

	t.Run("SaveMissing", func(t *testing.T) {
		s := newStore(t)

		ref := sampleReference("Ghost")
		ref.ID = 404
		err := s.Save(context.Background(), ref)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("ListOrderedByID", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		refs, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, refs)

		require.NoError(t, s.Create(ctx, sampleReference("One")))
		require.NoError(t, s.Create(ctx, sampleReference("Two")))

		refs, err = s.List(ctx)
		require.NoError(t, err)
		require.Len(t, refs, 2)
		assert.Equal(t, "One", refs[0].Title)
		assert.Equal(t, "Two", refs[1].Title)
		assert.Less(t, refs[0].ID, refs[1].ID)
	})

	t.Run("ActionsAppendAndTail", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		ref := sampleReference("Audited")
		require.NoError(t, s.Create(ctx, ref))

		created := model.NewAction(model.ActionReferenceCreated)
		validated := model.NewAction(model.ActionValidated)
		validated.FieldID = "field_001"
		validated.Status = "accepted"
		final := model.NewAction(model.ActionFinalGenerated)

		require.NoError(t, s.AppendAction(ctx, ref.ID, created))
		require.NoError(t, s.AppendAction(ctx, ref.ID, validated))
		require.NoError(t, s.AppendAction(ctx, ref.ID, final))

		all, err := s.ReadActions(ctx, ref.ID, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, model.ActionReferenceCreated, all[0].Action)
		assert.Equal(t, model.ActionValidated, all[1].Action)
		assert.Equal(t, "field_001", all[1].FieldID)
		assert.Equal(t, model.ActionFinalGenerated, all[2].Action)

		tail, err := s.ReadActions(ctx, ref.ID, 2)
		require.NoError(t, err)
		require.Len(t, tail, 2)
		assert.Equal(t, model.ActionValidated, tail[0].Action)
		assert.Equal(t, model.ActionFinalGenerated, tail[1].Action)
	})

	t.Run("ArtifactsWriteReadOverwrite", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		ref := sampleReference("Assembled")
		require.NoError(t, s.Create(ctx, ref))

		require.NoError(t, s.WriteArtifact(ctx, ref.ID, "final_document.txt", []byte("first pass")))
		data, err := s.ReadArtifact(ctx, ref.ID, "final_document.txt")
		require.NoError(t, err)
		assert.Equal(t, "first pass", string(data))

		require.NoError(t, s.WriteArtifact(ctx, ref.ID, "final_document.txt", []byte("second pass")))
		data, err = s.ReadArtifact(ctx, ref.ID, "final_document.txt")
		require.NoError(t, err)
		assert.Equal(t, "second pass", string(data))
	})

	t.Run("ArtifactMissing", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		ref := sampleReference("Empty")
		require.NoError(t, s.Create(ctx, ref))

		_, err := s.ReadArtifact(ctx, ref.ID, "final_document.txt")
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("ArtifactNameRejected", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		ref := sampleReference("Strict")
		require.NoError(t, s.Create(ctx, ref))

		for _, name := range []string{"", "..", "../escape.txt", "nested/name.txt", ".hidden"} {
			err := s.WriteArtifact(ctx, ref.ID, name, []byte("x"))
			require.Error(t, err, "name %q", name)
			assert.ErrorIs(t, err, model.ErrInvalidRequest, "name %q", name)
		}
	})
}
