package normalize

import (
	"strings"
	"time"
)

// dateLayouts are tried in order; first match wins. Month-name layouts are
// matched case-insensitively by time.Parse.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2006",
	"2006",
}

// Date canonicalizes a tolerant date expression to ISO YYYY-MM-DD. Layouts
// without a day or month default them to 1. ok is false when no layout
// matches.
func Date(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}
