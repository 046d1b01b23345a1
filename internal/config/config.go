package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Capability CapabilityConfig `yaml:"capability" mapstructure:"capability"`
	Ingest     IngestConfig     `yaml:"ingest" mapstructure:"ingest"`
	Detect     DetectConfig     `yaml:"detect" mapstructure:"detect"`
	Engine     EngineConfig     `yaml:"engine" mapstructure:"engine"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the persistence backend. DataDir is used by the
// file driver; DatabaseURL by sqlite and postgres.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DataDir     string `yaml:"data_dir" mapstructure:"data_dir"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key             string  `yaml:"key" mapstructure:"key"`
	QAModel         string  `yaml:"qa_model" mapstructure:"qa_model"`
	ValidationModel string  `yaml:"validation_model" mapstructure:"validation_model"`
	MaxTokens       int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	RateLimit       float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst       int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// CapabilityConfig selects the text-generation backend. Mode is one of
// auto, live, or stub; auto uses live when an API key is set.
type CapabilityConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// IngestConfig bounds document intake.
type IngestConfig struct {
	MaxDocumentChars    int `yaml:"max_document_chars" mapstructure:"max_document_chars"`
	SummaryChars        int `yaml:"summary_chars" mapstructure:"summary_chars"`
	ClassifyConcurrency int `yaml:"classify_concurrency" mapstructure:"classify_concurrency"`
}

// DetectConfig configures placeholder detection. RulesPath points at an
// optional YAML rule file merged over the built-in patterns.
type DetectConfig struct {
	ContextWords int    `yaml:"context_words" mapstructure:"context_words"`
	RulesPath    string `yaml:"rules_path" mapstructure:"rules_path"`
}

// EngineConfig configures lifecycle behavior.
type EngineConfig struct {
	QuestionConcurrency int `yaml:"question_concurrency" mapstructure:"question_concurrency"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks the configuration for a command mode: "cli" for one-shot
// commands, "serve" for the HTTP server. It reports every problem at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "file":
		if c.Store.DataDir == "" {
			problems = append(problems, "store.data_dir is required for the file driver")
		}
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the "+c.Store.Driver+" driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q must be one of file, sqlite, postgres", c.Store.Driver))
	}

	switch c.Capability.Mode {
	case "auto", "stub":
	case "live":
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required when capability.mode is live")
		}
	default:
		problems = append(problems, fmt.Sprintf("capability.mode %q must be one of auto, live, stub", c.Capability.Mode))
	}

	if c.Ingest.ClassifyConcurrency < 1 || c.Ingest.ClassifyConcurrency > 32 {
		problems = append(problems, "ingest.classify_concurrency must be between 1 and 32")
	}
	if c.Engine.QuestionConcurrency < 1 || c.Engine.QuestionConcurrency > 32 {
		problems = append(problems, "engine.question_concurrency must be between 1 and 32")
	}

	switch mode {
	case "cli":
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.docfill")

	// Environment
	v.SetEnvPrefix("DOCFILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.data_dir", "./data")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("capability.mode", "auto")
	v.SetDefault("anthropic.qa_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.validation_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.rate_limit", 0.5)
	v.SetDefault("anthropic.rate_burst", 2)
	v.SetDefault("ingest.max_document_chars", 200000)
	v.SetDefault("ingest.summary_chars", 5000)
	v.SetDefault("ingest.classify_concurrency", 4)
	v.SetDefault("detect.context_words", 20)
	v.SetDefault("engine.question_concurrency", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
