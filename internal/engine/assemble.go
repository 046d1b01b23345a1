package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/draftdesk/docfill/internal/detect"
	"github.com/draftdesk/docfill/internal/model"
)

// Artifact names by trust tier.
const (
	artifactFinal = "final_document.txt"
	artifactDraft = "final_draft.txt"
)

// TrustTier grades an assembled document by how its values were obtained.
type TrustTier string

const (
	// TierFinal means every value was user-confirmed.
	TierFinal TrustTier = "final"
	// TierDraft means at least one value was machine-suggested.
	TierDraft TrustTier = "draft"
)

// AssembleResult identifies the written artifact.
type AssembleResult struct {
	OutputRef    string    `json:"output_ref"`
	ArtifactName string    `json:"artifact_name"`
	TrustTier    TrustTier `json:"trust_tier"`
	Replacements int       `json:"replacements"`
}

// PendingFieldsError rejects assembly while fields are still pending. It
// carries the pending ids in ask order so callers can surface what is left.
type PendingFieldsError struct {
	PendingOrdered []string
}

func (e *PendingFieldsError) Error() string {
	return fmt.Sprintf("engine: %d fields still pending: %s",
		len(e.PendingOrdered), strings.Join(e.PendingOrdered, ", "))
}

func (e *PendingFieldsError) Unwrap() error { return model.ErrInvalidRequest }

// Assemble substitutes every confirmed value into the marked text and stores
// the result as an artifact. Assembly fails closed: any pending field aborts
// with no side effects.
func (e *Engine) Assemble(ctx context.Context, refID int64) (*AssembleResult, error) {
	ref, _, err := e.load(ctx, refID, "")
	if err != nil {
		return nil, err
	}
	if pending := ref.PendingOrdered(); len(pending) > 0 {
		return nil, &PendingFieldsError{PendingOrdered: pending}
	}

	start := time.Now()
	text := ref.MarkedText
	var replacements int
	for i := range ref.Fields {
		f := &ref.Fields[i]
		marker := detect.Marker(f.ID, f.Name)
		if n := strings.Count(text, marker); n > 0 {
			text = strings.ReplaceAll(text, marker, f.UserInput)
			replacements += n
		}
	}

	tier, name := TierFinal, artifactFinal
	if ref.HasAutoFilled() {
		tier, name = TierDraft, artifactDraft
	}

	if err := e.store.WriteArtifact(ctx, ref.ID, name, []byte(text)); err != nil {
		return nil, err
	}

	outputRef := uuid.New().String()
	ref.ValidationStatus = model.ValidationComplete

	entry := model.NewAction(model.ActionFinalGenerated)
	entry.LatencyMS = time.Since(start).Milliseconds()
	entry.Extra = map[string]any{
		"output_ref":   outputRef,
		"artifact":     name,
		"trust_tier":   string(tier),
		"replacements": replacements,
	}
	if err := e.persist(ctx, ref, entry); err != nil {
		return nil, err
	}

	return &AssembleResult{
		OutputRef:    outputRef,
		ArtifactName: name,
		TrustTier:    tier,
		Replacements: replacements,
	}, nil
}
