package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/draftdesk/docfill/internal/capability"
	"github.com/draftdesk/docfill/internal/detect"
	"github.com/draftdesk/docfill/internal/engine"
	"github.com/draftdesk/docfill/internal/store"
	anthropicpkg "github.com/draftdesk/docfill/pkg/anthropic"
)

// appEnv holds the initialized store and engine shared by all commands.
type appEnv struct {
	Engine *engine.Engine
	Store  store.ReferenceStore
}

// Close releases resources held by the environment.
func (ae *appEnv) Close() {
	if ae.Store != nil {
		_ = ae.Store.Close()
	}
}

// initEnv validates the configuration for the command mode, opens the store,
// selects the capability backend, and builds the engine. Callers should
// defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	rules, err := detect.LoadRules(cfg.Detect.RulesPath)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	if cfg.Detect.ContextWords > 0 {
		rules.ContextWords = cfg.Detect.ContextWords
	}

	eng := engine.New(buildCapability(), st, rules, engine.Config{
		MaxDocumentChars:    cfg.Ingest.MaxDocumentChars,
		SummaryChars:        cfg.Ingest.SummaryChars,
		ClassifyConcurrency: cfg.Ingest.ClassifyConcurrency,
		QuestionConcurrency: cfg.Engine.QuestionConcurrency,
		QAModel:             cfg.Anthropic.QAModel,
		ValidationModel:     cfg.Anthropic.ValidationModel,
	})

	return &appEnv{Engine: eng, Store: st}, nil
}

func initStore(ctx context.Context) (store.ReferenceStore, error) {
	switch cfg.Store.Driver {
	case "file", "":
		return store.NewFile(cfg.Store.DataDir)
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "docfill.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// buildCapability selects the text-generation backend. Auto mode goes live
// when an API key is configured and falls back to the offline stub otherwise.
func buildCapability() capability.Client {
	mode := cfg.Capability.Mode
	if mode == "auto" || mode == "" {
		if cfg.Anthropic.Key != "" {
			mode = "live"
		} else {
			mode = "stub"
		}
	}

	if mode == "stub" {
		zap.L().Info("capability backend: offline stub")
		return capability.Stub{}
	}

	api := anthropicpkg.NewClient(cfg.Anthropic.Key,
		anthropicpkg.WithRateLimit(cfg.Anthropic.RateLimit, cfg.Anthropic.RateBurst))
	zap.L().Info("capability backend: anthropic",
		zap.String("qa_model", cfg.Anthropic.QAModel),
		zap.String("validation_model", cfg.Anthropic.ValidationModel),
	)
	return capability.NewLive(api, capability.Models{
		QA:         cfg.Anthropic.QAModel,
		Validation: cfg.Anthropic.ValidationModel,
		MaxTokens:  cfg.Anthropic.MaxTokens,
	})
}
