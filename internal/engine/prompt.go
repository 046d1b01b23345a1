package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/draftdesk/docfill/internal/capability"
	"github.com/draftdesk/docfill/internal/model"
	"github.com/draftdesk/docfill/internal/normalize"
)

// promptKey fingerprints the inputs that shape a field's question. The facts
// overlay and attempt counters are excluded, so the cache survives unrelated
// state changes.
func promptKey(summary string, f *model.Field) string {
	h := sha256.New()
	for i, part := range []string{summary, f.Name, string(f.ExpectedType), f.ContextBefore, f.ContextAfter} {
		if i > 0 {
			h.Write([]byte{0x1f})
		}
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// FallbackQuestion is the deterministic question used when generation fails.
// It is never cached, so a later call retries generation.
func FallbackQuestion(f *model.Field) string {
	if strings.TrimSpace(f.Name) == "" {
		return "Please provide a value for this blank field."
	}
	return "Please provide the " + normalize.TitleName(f.Name) + "."
}

// promptOutcome reports what ensureQuestion did for one field.
type promptOutcome struct {
	question  string
	generated bool
	latency   time.Duration
}

// ensureQuestion returns the field's question, regenerating when the cached
// prompt is empty or its hash is stale. It mutates the field on success but
// does not persist; the caller owns saving and logging.
func (e *Engine) ensureQuestion(ctx context.Context, ref *model.Reference, f *model.Field) promptOutcome {
	key := promptKey(ref.DocumentSummary, f)
	if f.PromptText != "" && f.PromptMeta != nil && f.PromptMeta.Hash == key {
		return promptOutcome{question: f.PromptText}
	}

	start := time.Now()
	question, err := e.caps.GenerateQuestion(ctx, capability.QuestionRequest{
		FieldName:     f.Name,
		ExpectedType:  f.ExpectedType,
		ContextBefore: f.ContextBefore,
		ContextAfter:  f.ContextAfter,
		Summary:       ref.DocumentSummary,
		FactsByName:   ref.FactsOverlayByName,
	})
	latency := time.Since(start)
	question = strings.TrimSpace(question)
	if err != nil || question == "" {
		zap.L().Warn("engine: question generation failed; using fallback",
			zap.String("field_id", f.ID), zap.Error(err))
		return promptOutcome{question: FallbackQuestion(f), latency: latency}
	}

	f.PromptText = question
	f.PromptMeta = &model.PromptMeta{
		Hash:        key,
		Model:       e.cfg.QAModel,
		GeneratedAt: time.Now().UTC(),
	}
	return promptOutcome{question: question, generated: true, latency: latency}
}

// QuestionItem is one row of Questions, in ask order.
type QuestionItem struct {
	FieldID  string            `json:"field_id"`
	Name     string            `json:"name,omitempty"`
	Type     model.FieldType   `json:"expected_type"`
	Status   model.FieldStatus `json:"status"`
	Priority int               `json:"priority"`
	Attempts int               `json:"attempts"`
	Question string            `json:"question"`
}

// Questions returns every field with its prompt ensured, sorted by priority
// tier then document order. Missing prompts are generated concurrently and
// cached with a single aggregate save.
func (e *Engine) Questions(ctx context.Context, refID int64) ([]QuestionItem, error) {
	ref, _, err := e.load(ctx, refID, "")
	if err != nil {
		return nil, err
	}

	outcomes := make([]promptOutcome, len(ref.Fields))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.QuestionConcurrency)
	for i := range ref.Fields {
		i := i
		g.Go(func() error {
			outcomes[i] = e.ensureQuestion(gctx, ref, &ref.Fields[i])
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	var generated int
	for i := range outcomes {
		if outcomes[i].generated {
			generated++
		}
	}
	if generated > 0 {
		ref.Touch()
		if err := e.store.Save(ctx, ref); err != nil {
			return nil, err
		}
		for i := range ref.Fields {
			if !outcomes[i].generated {
				continue
			}
			entry := model.NewAction(model.ActionPromptGenerated)
			entry.FieldID = ref.Fields[i].ID
			entry.Model = e.cfg.QAModel
			entry.LatencyMS = outcomes[i].latency.Milliseconds()
			if err := e.store.AppendAction(ctx, refID, entry); err != nil {
				return nil, err
			}
		}
	}

	items := make([]QuestionItem, 0, len(ref.Fields))
	for _, i := range askOrder(ref) {
		f := &ref.Fields[i]
		items = append(items, QuestionItem{
			FieldID:  f.ID,
			Name:     f.Name,
			Type:     f.ExpectedType,
			Status:   f.Status,
			Priority: f.Priority,
			Attempts: f.Attempts,
			Question: outcomes[i].question,
		})
	}
	return items, nil
}
