// Package detect scans plain document text for fillable placeholder tokens
// using a configurable regex rule set and turns matches into pending fields.
package detect

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// PatternRule is one detection rule. The regex's first capture group is the
// field name; Enabled nil means enabled.
type PatternRule struct {
	Name    string `yaml:"name"`
	Regex   string `yaml:"regex"`
	Enabled *bool  `yaml:"enabled"`
}

// On reports whether the rule is active.
func (p PatternRule) On() bool {
	return p.Enabled == nil || *p.Enabled
}

// Rules is the detection rule set plus context window sizing.
type Rules struct {
	Patterns     []PatternRule `yaml:"patterns"`
	ContextWords int           `yaml:"context_words"`
}

// Pattern class names assigned to detected fields.
const (
	PatternSquareBrackets = "square_brackets"
	PatternDoubleBraces   = "double_braces"
	PatternSingleBraces   = "single_braces"
	PatternUnderscores    = "underscores"
)

// DefaultRules returns the built-in rule set covering the template styles
// seen in practice: [Name], {{Name}}, {Name}, and bare underscore runs.
func DefaultRules() Rules {
	return Rules{
		Patterns: []PatternRule{
			{Name: PatternSquareBrackets, Regex: `\[([A-Za-z0-9\s_\-]+)\]`},
			{Name: PatternDoubleBraces, Regex: `\{\{([A-Za-z0-9\s_\-]+)\}\}`},
			{Name: PatternSingleBraces, Regex: `\{([A-Za-z0-9\s_\-]+)\}`},
			{Name: PatternUnderscores, Regex: `(_{3,})`},
		},
		ContextWords: 20,
	}
}

// LoadRules reads a YAML rule file and merges it over the defaults: patterns
// from the file replace the default set when present, and context sizing
// falls back to the default when unset. An empty path returns the defaults.
func LoadRules(path string) (Rules, error) {
	defaults := DefaultRules()
	if path == "" {
		return defaults, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return defaults, eris.Wrapf(err, "detect: read rules %s", path)
	}
	var loaded Rules
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return defaults, eris.Wrapf(err, "detect: parse rules %s", path)
	}
	if len(loaded.Patterns) == 0 {
		loaded.Patterns = defaults.Patterns
	}
	if loaded.ContextWords <= 0 {
		loaded.ContextWords = defaults.ContextWords
	}
	return loaded, nil
}
