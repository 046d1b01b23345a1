package engine

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/draftdesk/docfill/internal/model"
)

// UndoResult reports the field's state after reverting it to pending.
type UndoResult struct {
	FieldID       string            `json:"field_id"`
	Status        model.FieldStatus `json:"status"`
	Progress      model.Progress    `json:"progress"`
	NextPendingID string            `json:"next_pending_id,omitempty"`
}

// Undo reverts a filled or auto-filled field to pending and withdraws its
// facts overlay entries. The cached prompt survives; the action log keeps the
// full history.
func (e *Engine) Undo(ctx context.Context, refID int64, fieldID string) (*UndoResult, error) {
	ref, f, err := e.load(ctx, refID, fieldID)
	if err != nil {
		return nil, err
	}
	if f.Status == model.StatusPending {
		return nil, eris.Wrapf(model.ErrInvalidRequest, "engine: field %s is already pending", f.ID)
	}

	prior := f.Status
	f.Reset()
	ref.RemoveFact(f)

	entry := model.NewAction(model.ActionUndo)
	entry.FieldID = f.ID
	entry.Extra = map[string]any{"previous_status": string(prior)}
	if err := e.persist(ctx, ref, entry); err != nil {
		return nil, err
	}

	return &UndoResult{
		FieldID:       f.ID,
		Status:        f.Status,
		Progress:      ref.Progress(),
		NextPendingID: ref.NextPendingID(),
	}, nil
}
