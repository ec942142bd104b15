// Package sanitize strips markup from user-provided free text.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text removes every HTML element, unescapes entities left behind by the
// policy and collapses runs of whitespace.
func Text(s string) string {
	cleaned := html.UnescapeString(strict.Sanitize(s))
	// Entity-encoded tags become real tags after unescaping.
	cleaned = html.UnescapeString(strict.Sanitize(cleaned))
	return strings.Join(strings.Fields(cleaned), " ")
}
