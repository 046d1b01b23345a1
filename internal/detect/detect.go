package detect

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/draftdesk/docfill/internal/model"
)

// maxNameRunes drops matches whose captured name is clearly running text
// rather than a placeholder label.
const maxNameRunes = 80

var numericName = regexp.MustCompile(`^[0-9]+$`)

type span struct {
	rule  string
	name  string
	token string
	start int
	end   int
}

// Detect scans text with the rule set and returns fields in document order
// with densely assigned ids (field_001, field_002, ...). Overlapping matches
// are resolved longest-first, earliest-first. Positions are byte offsets into
// the scanned text.
func Detect(text string, rules Rules) []model.Field {
	var spans []span
	for _, p := range rules.Patterns {
		if !p.On() || p.Regex == "" {
			continue
		}
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			zap.L().Warn("detect: skipping invalid pattern",
				zap.String("pattern", p.Name), zap.Error(err))
			continue
		}
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			s := span{rule: p.Name, start: m[0], end: m[1], token: text[m[0]:m[1]]}
			if len(m) >= 4 && m[2] >= 0 {
				s.name = strings.TrimSpace(text[m[2]:m[3]])
			}
			if p.Name == PatternUnderscores {
				s.name = ""
			}
			if !keep(s) {
				continue
			}
			spans = append(spans, s)
		}
	}

	spans = resolveOverlaps(spans)

	fields := make([]model.Field, 0, len(spans))
	for i, s := range spans {
		before, after := contextWindows(text, s.start, s.end, rules.ContextWords)
		fields = append(fields, model.Field{
			ID:            fmt.Sprintf("field_%03d", i+1),
			Name:          s.name,
			RawToken:      s.token,
			Pattern:       s.rule,
			Position:      model.Position{Start: s.start, End: s.end},
			ContextBefore: before,
			ContextAfter:  after,
			ExpectedType:  model.TypeText,
			Priority:      model.PriorityForType(model.TypeText),
			Status:        model.StatusPending,
		})
	}
	return fields
}

// keep filters out matches that are not plausible placeholders: named rules
// with blank or pure-numeric names, and labels long enough to be prose.
func keep(s span) bool {
	if s.rule != PatternUnderscores {
		if s.name == "" || numericName.MatchString(s.name) {
			return false
		}
	}
	return utf8.RuneCountInString(s.name) <= maxNameRunes
}

// resolveOverlaps sorts matches by start (longest first on ties) and drops
// any match that overlaps an already kept one, so {{Name}} beats the inner
// {Name} match.
func resolveOverlaps(spans []span) []span {
	sort.SliceStable(spans, func(a, b int) bool {
		if spans[a].start != spans[b].start {
			return spans[a].start < spans[b].start
		}
		return spans[a].end > spans[b].end
	})
	var kept []span
	lastEnd := -1
	for _, s := range spans {
		if s.start < lastEnd {
			continue
		}
		kept = append(kept, s)
		lastEnd = s.end
	}
	return kept
}

// contextWindows returns up to words whitespace-separated tokens on each side
// of the span, joined with single spaces.
func contextWindows(text string, start, end, words int) (before, after string) {
	b := strings.Fields(text[:start])
	if len(b) > words {
		b = b[len(b)-words:]
	}
	a := strings.Fields(text[end:])
	if len(a) > words {
		a = a[:words]
	}
	return strings.Join(b, " "), strings.Join(a, " ")
}

// Marker renders the inline marker a detected span is replaced with in the
// marked text. Markers embed the field id, so each is unique within a
// reference.
func Marker(id, name string) string {
	if name == "" {
		return fmt.Sprintf("[%s]", id)
	}
	return fmt.Sprintf("[%s: the '%s']", id, name)
}

// MarkText replaces each detected span with its marker, back to front so the
// recorded byte offsets stay valid during replacement.
func MarkText(text string, fields []model.Field) string {
	marked := text
	for i := len(fields) - 1; i >= 0; i-- {
		f := fields[i]
		marked = marked[:f.Position.Start] + Marker(f.ID, f.Name) + marked[f.Position.End:]
	}
	return marked
}
