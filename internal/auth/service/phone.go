package service

import (
	"regexp"
	"strings"
	"unicode"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9-]{10,}$`)

// NormalizePhone strips every whitespace character. No other rewriting is done.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, phone)
}

// ValidPhone reports whether an already normalised phone is an optional
// leading '+' followed by at least ten digits or hyphens.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
