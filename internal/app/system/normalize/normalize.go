// Package normalize canonicalizes user-supplied account fields before they
// are compared or stored.
package normalize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name strips any markup from a display name, collapses runs of whitespace
// and trims it. Case is preserved.
func Name(s string) string {
	clean := html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(clean), " ")
}

// Phone trims a phone number and removes inner spaces, so "+1 555 0100" and
// "+15550100" collide on the unique index.
func Phone(s string) string {
	return strings.Join(strings.Fields(s), "")
}
