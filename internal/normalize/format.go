package normalize

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// upperTokens stay fully capitalized when title-casing names for display.
var upperTokens = map[string]struct{}{
	"LLC": {}, "LLP": {}, "LP": {}, "INC": {}, "CORP": {}, "LTD": {},
	"USA": {}, "US": {}, "UK": {},
}

// TitleName title-cases a field or entity name for display, keeping legal
// and geographic abbreviations fully capitalized. Display only: stored
// values are never title-cased.
func TitleName(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	caser := cases.Title(language.AmericanEnglish)
	for i, w := range words {
		core := strings.Trim(w, ".,()")
		if _, ok := upperTokens[strings.ToUpper(core)]; ok && core != "" {
			words[i] = strings.Replace(w, core, strings.ToUpper(core), 1)
			continue
		}
		words[i] = caser.String(strings.ToLower(w))
	}
	return strings.Join(words, " ")
}

// FactsForPrompt renders confirmed facts as sorted "name: value" lines for
// prompt context, or "(none)" when the overlay is empty. Sorting keeps
// prompts deterministic across map iteration orders.
func FactsForPrompt(facts map[string]string) string {
	if len(facts) == 0 {
		return "(none)"
	}
	names := make([]string, 0, len(facts))
	for n := range facts {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	for i, n := range names {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", n, facts[n])
	}
	return b.String()
}

// FactsForDisplay renders confirmed facts as a bulleted list for terminal
// output, sorted by name.
func FactsForDisplay(facts map[string]string) string {
	if len(facts) == 0 {
		return "  (none)"
	}
	names := make([]string, 0, len(facts))
	for n := range facts {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	for i, n := range names {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "  - %s: %s", n, facts[n])
	}
	return b.String()
}
