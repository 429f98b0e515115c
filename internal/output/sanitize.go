package output

import (
	"regexp"
	"strings"
	"unicode"
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripANSI removes ANSI escape sequences before terminal output.
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

// Sanitize strips ANSI sequences and any remaining control characters.
// Version strings are user input and reach the terminal verbatim otherwise.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, StripANSI(s))
}
