package pipeline

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ExcerptLength is the number of runes of a comment quoted in emails.
const ExcerptLength = 200

var mentionPattern = regexp.MustCompile(`@([\w.\-]+)`)

// ExtractMentions returns the distinct lower-cased names mentioned with
// "@name" in body, in order of first appearance. Trailing dots are
// punctuation, not part of the name.
func ExtractMentions(body string) []string {
	matches := mentionPattern.FindAllStringSubmatch(body, -1)
	seen := make(map[string]bool, len(matches))
	var names []string
	for _, m := range matches {
		name := strings.ToLower(strings.TrimRight(m[1], "."))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "…"
}
