package detect

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftdesk/docfill/internal/model"
)

const sampleDoc = `This SAFE is entered into by [Company Name], a {{State of Incorporation}} corporation,
and the investor listed on the signature page. The purchase amount is {Purchase Amount}.
Signature: ___________
Dated as of [Effective Date].`

func TestDetect_AllPatternClasses(t *testing.T) {
	t.Parallel()

	fields := Detect(sampleDoc, DefaultRules())
	require.Len(t, fields, 5)

	assert.Equal(t, "field_001", fields[0].ID)
	assert.Equal(t, "Company Name", fields[0].Name)
	assert.Equal(t, PatternSquareBrackets, fields[0].Pattern)

	assert.Equal(t, "field_002", fields[1].ID)
	assert.Equal(t, "State of Incorporation", fields[1].Name)
	assert.Equal(t, PatternDoubleBraces, fields[1].Pattern)

	assert.Equal(t, "field_003", fields[2].ID)
	assert.Equal(t, "Purchase Amount", fields[2].Name)
	assert.Equal(t, PatternSingleBraces, fields[2].Pattern)

	assert.Equal(t, "field_004", fields[3].ID)
	assert.Empty(t, fields[3].Name)
	assert.Equal(t, PatternUnderscores, fields[3].Pattern)

	assert.Equal(t, "field_005", fields[4].ID)
	assert.Equal(t, "Effective Date", fields[4].Name)

	for _, f := range fields {
		assert.Equal(t, model.StatusPending, f.Status)
		assert.Equal(t, f.RawToken, sampleDoc[f.Position.Start:f.Position.End])
	}
}

func TestDetect_DoubleBracesBeatInnerSingleBraces(t *testing.T) {
	t.Parallel()

	fields := Detect("Party: {{Investor Name}}", DefaultRules())
	require.Len(t, fields, 1)
	assert.Equal(t, PatternDoubleBraces, fields[0].Pattern)
	assert.Equal(t, "{{Investor Name}}", fields[0].RawToken)
}

func TestDetect_SkipsNumericAndOverlongNames(t *testing.T) {
	t.Parallel()

	text := "See section [12] and [" + strings.Repeat("very long name ", 10) + "] here [State]."
	fields := Detect(text, DefaultRules())
	require.Len(t, fields, 1)
	assert.Equal(t, "State", fields[0].Name)
}

func TestDetect_ContextWindows(t *testing.T) {
	t.Parallel()

	words := strings.Repeat("w ", 30)
	text := words + "[Company Name]" + " " + words
	rules := DefaultRules()
	rules.ContextWords = 5

	fields := Detect(text, rules)
	require.Len(t, fields, 1)
	assert.Equal(t, "w w w w w", fields[0].ContextBefore)
	assert.Equal(t, "w w w w w", fields[0].ContextAfter)
}

func TestDetect_InvalidPatternSkipped(t *testing.T) {
	t.Parallel()

	rules := Rules{
		Patterns: []PatternRule{
			{Name: "broken", Regex: `\[(unclosed`},
			{Name: PatternSquareBrackets, Regex: `\[([A-Za-z0-9\s_\-]+)\]`},
		},
		ContextWords: 20,
	}
	fields := Detect("Hello [World]", rules)
	require.Len(t, fields, 1)
	assert.Equal(t, "World", fields[0].Name)
}

func TestDetect_DisabledPattern(t *testing.T) {
	t.Parallel()

	off := false
	rules := Rules{
		Patterns:     []PatternRule{{Name: PatternSquareBrackets, Regex: `\[([A-Za-z0-9\s_\-]+)\]`, Enabled: &off}},
		ContextWords: 20,
	}
	assert.Empty(t, Detect("Hello [World]", rules))
}

func TestMarkText_RoundTrip(t *testing.T) {
	t.Parallel()

	fields := Detect(sampleDoc, DefaultRules())
	marked := MarkText(sampleDoc, fields)

	for _, f := range fields {
		assert.Contains(t, marked, Marker(f.ID, f.Name))
	}
	assert.NotContains(t, marked, "[Company Name]")
	assert.NotContains(t, marked, "{Purchase Amount}")
	assert.Contains(t, marked, "[field_001: the 'Company Name']")
	assert.Contains(t, marked, "[field_004]")
}

func TestLoadRules_EmptyPathDefaults(t *testing.T) {
	t.Parallel()

	rules, err := LoadRules("")
	require.NoError(t, err)
	assert.Len(t, rules.Patterns, 4)
	assert.Equal(t, 20, rules.ContextWords)
}

func TestLoadRules_FileOverridesPatterns(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "patterns:\n  - name: angle\n    regex: '<([A-Za-z ]+)>'\ncontext_words: 7\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules.Patterns, 1)
	assert.Equal(t, "angle", rules.Patterns[0].Name)
	assert.Equal(t, 7, rules.ContextWords)

	fields := Detect("Dear <Customer Name>,", rules)
	require.Len(t, fields, 1)
	assert.Equal(t, "Customer Name", fields[0].Name)
}

func TestLoadRules_MissingFileFallsBack(t *testing.T) {
	t.Parallel()

	rules, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
	assert.Len(t, rules.Patterns, 4, "defaults returned alongside the error")
}
