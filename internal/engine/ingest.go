package engine

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/draftdesk/docfill/internal/capability"
	"github.com/draftdesk/docfill/internal/detect"
	"github.com/draftdesk/docfill/internal/model"
)

// excerptRunes is the size of the head excerpt used when summarization fails.
const excerptRunes = 500

// Ingest registers a document: truncate, summarize, detect fields, classify
// their expected types, build the marked text, and persist the aggregate.
func (e *Engine) Ingest(ctx context.Context, title, documentText string) (*model.Reference, error) {
	if strings.TrimSpace(documentText) == "" {
		return nil, eris.Wrap(model.ErrInvalidRequest, "engine: empty document")
	}
	documentText = truncateRunes(documentText, e.cfg.MaxDocumentChars)

	summary := e.summarize(ctx, documentText)

	fields := detect.Detect(documentText, e.rules)
	e.classifyFields(ctx, summary, fields)
	for i := range fields {
		fields[i].Priority = model.PriorityForType(fields[i].ExpectedType)
	}
	marked := detect.MarkText(documentText, fields)

	ref := model.NewReference(title, summary, documentText, marked, fields)
	if err := e.store.Create(ctx, ref); err != nil {
		return nil, err
	}

	entry := model.NewAction(model.ActionReferenceCreated)
	entry.Extra = map[string]any{"fields": len(fields)}
	if err := e.store.AppendAction(ctx, ref.ID, entry); err != nil {
		return nil, err
	}

	zap.L().Info("reference created",
		zap.Int64("reference_id", ref.ID),
		zap.String("title", title),
		zap.Int("fields", len(fields)))
	return ref, nil
}

// summarize condenses the document head, falling back to a plain excerpt when
// the capability fails so ingest never blocks on summarization.
func (e *Engine) summarize(ctx context.Context, text string) string {
	head := truncateRunes(text, e.cfg.SummaryChars)
	summary, err := e.caps.Summarize(ctx, head)
	if err != nil || strings.TrimSpace(summary) == "" {
		zap.L().Warn("engine: summarize failed; using head excerpt", zap.Error(err))
		return headExcerpt(head)
	}
	return strings.TrimSpace(summary)
}

// classifyFields resolves each field's expected type concurrently. A failed
// classification falls back to text and never fails the batch.
func (e *Engine) classifyFields(ctx context.Context, summary string, fields []model.Field) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.ClassifyConcurrency)
	for i := range fields {
		i := i
		g.Go(func() error {
			t, err := e.caps.ClassifyType(ctx, capability.ClassifyRequest{
				FieldName:     fields[i].Name,
				ContextBefore: fields[i].ContextBefore,
				ContextAfter:  fields[i].ContextAfter,
				Summary:       summary,
			})
			if err != nil {
				zap.L().Warn("engine: classification failed; defaulting to text",
					zap.String("field_id", fields[i].ID), zap.Error(err))
				fields[i].ExpectedType = model.TypeText
				return nil
			}
			fields[i].ExpectedType = t
			return nil
		})
	}
	_ = g.Wait() // workers never return errors
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func headExcerpt(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= excerptRunes {
		return s
	}
	return string(r[:excerptRunes]) + "..."
}
