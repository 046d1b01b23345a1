// Package engine drives the field lifecycle: ingesting documents, generating
// question prompts, judging fill attempts, auto-suggesting values after
// repeated failures, undo, and assembling the completed document.
package engine

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/draftdesk/docfill/internal/capability"
	"github.com/draftdesk/docfill/internal/detect"
	"github.com/draftdesk/docfill/internal/model"
	"github.com/draftdesk/docfill/internal/store"
)

// Config carries the engine's tunables. Zero values fall back to defaults.
type Config struct {
	MaxDocumentChars    int
	SummaryChars        int
	ClassifyConcurrency int
	QuestionConcurrency int

	// QAModel and ValidationModel are stamped into prompt metadata and the
	// action log. They do not select models; the capability client owns that.
	QAModel         string
	ValidationModel string
}

const (
	defaultMaxDocumentChars    = 200000
	defaultSummaryChars        = 5000
	defaultClassifyConcurrency = 4
	defaultQuestionConcurrency = 4
)

func (c Config) withDefaults() Config {
	if c.MaxDocumentChars <= 0 {
		c.MaxDocumentChars = defaultMaxDocumentChars
	}
	if c.SummaryChars <= 0 {
		c.SummaryChars = defaultSummaryChars
	}
	if c.ClassifyConcurrency <= 0 {
		c.ClassifyConcurrency = defaultClassifyConcurrency
	}
	if c.QuestionConcurrency <= 0 {
		c.QuestionConcurrency = defaultQuestionConcurrency
	}
	return c
}

// Engine orchestrates the lifecycle around the capability client and the
// reference store. Callers must serialize operations against the same
// reference; the engine holds no per-reference locks itself.
type Engine struct {
	caps  capability.Client
	store store.ReferenceStore
	rules detect.Rules
	cfg   Config
}

// New creates an Engine with all dependencies.
func New(caps capability.Client, st store.ReferenceStore, rules detect.Rules, cfg Config) *Engine {
	return &Engine{caps: caps, store: st, rules: rules, cfg: cfg.withDefaults()}
}

// load fetches the aggregate and resolves a field when fieldID is non-empty.
func (e *Engine) load(ctx context.Context, refID int64, fieldID string) (*model.Reference, *model.Field, error) {
	ref, err := e.store.Get(ctx, refID)
	if err != nil {
		return nil, nil, err
	}
	if fieldID == "" {
		return ref, nil, nil
	}
	f := ref.FieldByID(fieldID)
	if f == nil {
		return nil, nil, eris.Wrapf(model.ErrNotFound, "engine: field %s in reference %d", fieldID, refID)
	}
	return ref, f, nil
}

// StatusReport is the progress snapshot returned by Status.
type StatusReport struct {
	ReferenceID      int64                  `json:"reference_id"`
	Title            string                 `json:"title,omitempty"`
	ValidationStatus model.ValidationStatus `json:"validation_status"`
	Progress         model.Progress         `json:"progress"`
	NextPendingID    string                 `json:"next_pending_id,omitempty"`
	PendingOrdered   []string               `json:"pending_ordered"`
}

func (e *Engine) Status(ctx context.Context, refID int64) (*StatusReport, error) {
	ref, _, err := e.load(ctx, refID, "")
	if err != nil {
		return nil, err
	}
	return &StatusReport{
		ReferenceID:      ref.ID,
		Title:            ref.Title,
		ValidationStatus: ref.ValidationStatus,
		Progress:         ref.Progress(),
		NextPendingID:    ref.NextPendingID(),
		PendingOrdered:   ref.PendingOrdered(),
	}, nil
}

// FieldRow is one per-field display row of Preview.
type FieldRow struct {
	ID     string            `json:"id"`
	Name   string            `json:"name,omitempty"`
	Type   model.FieldType   `json:"expected_type"`
	Status model.FieldStatus `json:"status"`
	Value  string            `json:"value,omitempty"`
}

// PreviewReport is the marked document plus per-field display rows.
type PreviewReport struct {
	ReferenceID int64          `json:"reference_id"`
	Title       string         `json:"title,omitempty"`
	Summary     string         `json:"document_summary"`
	MarkedText  string         `json:"marked_text"`
	Progress    model.Progress `json:"progress"`
	Fields      []FieldRow     `json:"fields"`
}

func (e *Engine) Preview(ctx context.Context, refID int64) (*PreviewReport, error) {
	ref, _, err := e.load(ctx, refID, "")
	if err != nil {
		return nil, err
	}
	rows := make([]FieldRow, 0, len(ref.Fields))
	for i := range ref.Fields {
		f := &ref.Fields[i]
		rows = append(rows, FieldRow{
			ID:     f.ID,
			Name:   f.Name,
			Type:   f.ExpectedType,
			Status: f.Status,
			Value:  f.UserInput,
		})
	}
	return &PreviewReport{
		ReferenceID: ref.ID,
		Title:       ref.Title,
		Summary:     ref.DocumentSummary,
		MarkedText:  ref.MarkedText,
		Progress:    ref.Progress(),
		Fields:      rows,
	}, nil
}

// ReferenceSummary is one row of List.
type ReferenceSummary struct {
	ReferenceID      int64                  `json:"reference_id"`
	Title            string                 `json:"title,omitempty"`
	ValidationStatus model.ValidationStatus `json:"validation_status"`
	Progress         model.Progress         `json:"progress"`
	CreatedAt        time.Time              `json:"created_at"`
}

func (e *Engine) List(ctx context.Context) ([]ReferenceSummary, error) {
	refs, err := e.store.List(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]ReferenceSummary, 0, len(refs))
	for i := range refs {
		summaries = append(summaries, ReferenceSummary{
			ReferenceID:      refs[i].ID,
			Title:            refs[i].Title,
			ValidationStatus: refs[i].ValidationStatus,
			Progress:         refs[i].Progress(),
			CreatedAt:        refs[i].CreatedAt,
		})
	}
	return summaries, nil
}

// Actions returns the tail of the reference's action log. limit <= 0
// returns the whole log.
func (e *Engine) Actions(ctx context.Context, refID int64, limit int) ([]model.ActionEntry, error) {
	return e.store.ReadActions(ctx, refID, limit)
}

// askOrder returns field indices sorted by priority tier then document order,
// the order questions are presented in.
func askOrder(ref *model.Reference) []int {
	idx := make([]int, len(ref.Fields))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		fa, fb := &ref.Fields[idx[a]], &ref.Fields[idx[b]]
		if fa.Priority != fb.Priority {
			return fa.Priority < fb.Priority
		}
		return idx[a] < idx[b]
	})
	return idx
}
