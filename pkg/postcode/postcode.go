// Package postcode provides UK postcode formatting and validation, plus a
// manager for the user's saved postcode shortcuts.
package postcode

import (
	"regexp"
	"strings"
)

// ukPostcodePattern accepts one or two letters, a digit, an optional
// alphanumeric, an optional space, then a digit and two letters.
var ukPostcodePattern = regexp.MustCompile(`^[A-Z]{1,2}[0-9][A-Z0-9]? ?[0-9][A-Z]{2}$`)

// Format canonicalizes a postcode string: uppercase, with a single space
// before the final three characters. Inputs too short to split are returned
// cleaned but unspaced.
func Format(s string) string {
	cleaned := strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	if len(cleaned) < 5 {
		return cleaned
	}
	return cleaned[:len(cleaned)-3] + " " + cleaned[len(cleaned)-3:]
}

// IsValid reports whether s looks like a UK postcode. Validation is
// case-insensitive and tolerates a missing space.
func IsValid(s string) bool {
	return ukPostcodePattern.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}
