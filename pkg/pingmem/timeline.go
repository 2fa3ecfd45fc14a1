package pingmem

import (
	"regexp"
	"strings"
)

// whyPrefixes are the literal line prefixes (case-sensitive, matched
// after trimming leading whitespace) that mark an explicit reason.
var whyPrefixes = []string{
	"Why:", "Reason:", "Fixes #", "Closes #", "Refs #", "References:",
}

var (
	adrPattern   = regexp.MustCompile(`ADR-\d+`)
	issuePattern = regexp.MustCompile(`\(#\d+\)`)
)

// extractWhy implements the facade's explicit-only reason extraction:
// it scans message line by line for a known marker and returns the
// first trimmed line that carries one. With no marker present, it
// falls back to the commit message's first line. No semantic
// inference is performed beyond recognizing these literal forms.
func extractWhy(message string) string {
	lines := strings.Split(message, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if lineHasMarker(trimmed) {
			return trimmed
		}
	}
	if len(lines) > 0 {
		return strings.TrimSpace(lines[0])
	}
	return ""
}

func lineHasMarker(line string) bool {
	for _, prefix := range whyPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return adrPattern.MatchString(line) || issuePattern.MatchString(line)
}
