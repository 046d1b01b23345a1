// Package normalize canonicalizes accepted field values. Normalization is
// pure and never fails: input that cannot be parsed for its type is returned
// trimmed but otherwise unchanged.
package normalize

import (
	"strings"

	"github.com/draftdesk/docfill/internal/model"
)

// Value canonicalizes an accepted value for its field type.
func Value(t model.FieldType, s string) string {
	trimmed := strings.TrimSpace(s)
	switch t {
	case model.TypeMonetaryValue:
		if v, ok := Money(trimmed); ok {
			return v
		}
	case model.TypeDate:
		if v, ok := Date(trimmed); ok {
			return v
		}
	case model.TypeEmail:
		return strings.ToLower(trimmed)
	}
	return trimmed
}
