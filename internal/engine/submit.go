package engine

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/draftdesk/docfill/internal/model"
	"github.com/draftdesk/docfill/internal/normalize"
)

// SubmitOutcome names the four ways a submission can land.
type SubmitOutcome string

const (
	OutcomeAccepted         SubmitOutcome = "accepted"
	OutcomeRejected         SubmitOutcome = "rejected"
	OutcomeOfferAutoSuggest SubmitOutcome = "offer_auto_suggest"
	OutcomeAutoFilled       SubmitOutcome = "auto_filled"
)

// offerThreshold is the failure count at which auto-suggest is offered. Fixed
// by contract, not configurable.
const offerThreshold = 2

// SubmitResult reports what a submission did to the field and where the
// reference stands afterwards.
type SubmitResult struct {
	Outcome       SubmitOutcome  `json:"outcome"`
	FieldID       string         `json:"field_id"`
	Value         string         `json:"value,omitempty"`
	Hint          string         `json:"hint,omitempty"`
	Attempts      int            `json:"attempts"`
	Progress      model.Progress `json:"progress"`
	NextPendingID string         `json:"next_pending_id,omitempty"`
}

// Submit runs one user answer through validation and the bounded-attempt
// state machine. Only pending fields accept submissions; filled fields must
// be undone first. Empty input is rejected before any state change.
//
// Auto-suggest is offered exactly once per failure streak, on the second
// rejected attempt. Consent takes effect on the offer submission itself or on
// the one that follows it; after that the streak is exhausted and only a
// valid answer or an undo reopens the field.
func (e *Engine) Submit(ctx context.Context, refID int64, fieldID, userInput string, consentAutoSuggest bool) (*SubmitResult, error) {
	ref, f, err := e.load(ctx, refID, fieldID)
	if err != nil {
		return nil, err
	}
	if f.Status != model.StatusPending {
		return nil, eris.Wrapf(model.ErrInvalidRequest, "engine: field %s is %s, undo it first", f.ID, f.Status)
	}
	raw := strings.TrimSpace(userInput)
	if raw == "" {
		return nil, eris.Wrapf(model.ErrInvalidRequest, "engine: empty input for field %s", f.ID)
	}

	f.RecordAttempt(raw)
	verdict, latency := e.validateInput(ctx, ref, f, raw)

	if verdict.Valid {
		canonical := normalize.Value(f.ExpectedType, verdict.ExtractedValue)
		// The raw slot records the submission that passed, not the streak's
		// first attempt.
		f.UserInputRaw = raw
		f.Fill(canonical)
		e.applyFact(ref, f, canonical)
		entry := validationEntry(f.ID, string(OutcomeAccepted), e.cfg.ValidationModel, latency, nil)
		if err := e.persist(ctx, ref, entry); err != nil {
			return nil, err
		}
		return submitResult(ref, f, OutcomeAccepted, canonical, ""), nil
	}

	streak := f.CurrentStreak()
	switch {
	case f.Attempts < offerThreshold:
		entry := validationEntry(f.ID, string(OutcomeRejected), e.cfg.ValidationModel, latency, nil)
		if err := e.persist(ctx, ref, entry); err != nil {
			return nil, err
		}
		return submitResult(ref, f, OutcomeRejected, "", verdict.Hint), nil

	case !consentAutoSuggest && f.Attempts == offerThreshold && streak == model.StreakCounting:
		f.Offer()
		entry := validationEntry(f.ID, string(OutcomeRejected), e.cfg.ValidationModel, latency,
			map[string]any{"offer_auto_suggest": true})
		if err := e.persist(ctx, ref, entry); err != nil {
			return nil, err
		}
		return submitResult(ref, f, OutcomeOfferAutoSuggest, "", verdict.Hint), nil

	case consentAutoSuggest && (streak == model.StreakOffered ||
		f.Attempts == offerThreshold && streak == model.StreakCounting):
		prompt := e.ensureQuestion(ctx, ref, f)
		value, suggestLatency := e.suggestValue(ctx, ref, f, prompt.question)
		f.AutoFill(value)
		e.applyFact(ref, f, value)

		entries := []model.ActionEntry{
			validationEntry(f.ID, string(OutcomeRejected), e.cfg.ValidationModel, latency, nil),
		}
		if prompt.generated {
			pg := model.NewAction(model.ActionPromptGenerated)
			pg.FieldID = f.ID
			pg.Model = e.cfg.QAModel
			pg.LatencyMS = prompt.latency.Milliseconds()
			entries = append(entries, pg)
		}
		af := model.NewAction(model.ActionAutoFilled)
		af.FieldID = f.ID
		af.Model = e.cfg.QAModel
		af.LatencyMS = suggestLatency.Milliseconds()
		af.Extra = map[string]any{"value": value}
		entries = append(entries, af)

		if err := e.persist(ctx, ref, entries...); err != nil {
			return nil, err
		}
		return submitResult(ref, f, OutcomeAutoFilled, value, ""), nil

	default:
		f.Exhaust()
		entry := validationEntry(f.ID, string(OutcomeRejected), e.cfg.ValidationModel, latency, nil)
		if err := e.persist(ctx, ref, entry); err != nil {
			return nil, err
		}
		return submitResult(ref, f, OutcomeRejected, "", verdict.Hint), nil
	}
}

func submitResult(ref *model.Reference, f *model.Field, outcome SubmitOutcome, value, hint string) *SubmitResult {
	return &SubmitResult{
		Outcome:       outcome,
		FieldID:       f.ID,
		Value:         value,
		Hint:          hint,
		Attempts:      f.Attempts,
		Progress:      ref.Progress(),
		NextPendingID: ref.NextPendingID(),
	}
}

// applyFact records an accepted value in the facts overlay. A guard rejection
// leaves the overlay untouched but never blocks the fill itself.
func (e *Engine) applyFact(ref *model.Reference, f *model.Field, value string) {
	if !ref.SetFact(f, value) {
		zap.L().Warn("engine: value rejected by placeholder guard; facts overlay unchanged",
			zap.String("field_id", f.ID))
	}
}

func validationEntry(fieldID, status, modelID string, latency time.Duration, extra map[string]any) model.ActionEntry {
	entry := model.NewAction(model.ActionValidated)
	entry.FieldID = fieldID
	entry.Status = status
	entry.Model = modelID
	entry.LatencyMS = latency.Milliseconds()
	entry.Extra = extra
	return entry
}

// persist saves the aggregate and then appends log entries in order. The save
// comes first so a failed write aborts before anything is logged.
func (e *Engine) persist(ctx context.Context, ref *model.Reference, entries ...model.ActionEntry) error {
	ref.Touch()
	if err := e.store.Save(ctx, ref); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := e.store.AppendAction(ctx, ref.ID, entry); err != nil {
			return err
		}
	}
	return nil
}
