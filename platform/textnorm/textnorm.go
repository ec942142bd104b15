// Package textnorm builds grouping keys and display names for free-form
// brand, model and city strings.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Key returns the case-folded, whitespace-collapsed grouping key for s.
// The empty string means s carried no usable value.
func Key(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return cases.Fold().String(strings.Join(fields, " "))
}

// Display returns a title-cased display name for s.
func Display(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return cases.Title(language.English).String(strings.Join(fields, " "))
}

// Equal reports whether a and b normalize to the same non-empty key.
func Equal(a, b string) bool {
	ka := Key(a)
	return ka != "" && ka == Key(b)
}
