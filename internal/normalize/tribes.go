package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	treatyWithRe = regexp.MustCompile(`(?i)Treaty with the ([^,]+)`)
	etcRe        = regexp.MustCompile(`,?\s*etc\.?\s*$`)
	tribeSplitRe = regexp.MustCompile(`\s+and\s+|,\s*`)
)

// minTribeLen filters stray fragments such as "&" or "Co".
const minTribeLen = 3

// ExtractTribes returns the party names of a "Treaty with the X, ..." title,
// in title order. The result is never nil.
func ExtractTribes(title string) []string {
	tribes := make([]string, 0)

	m := treatyWithRe.FindStringSubmatch(title)
	if m == nil {
		return tribes
	}

	part := etcRe.ReplaceAllString(strings.TrimSpace(m[1]), "")
	for _, piece := range tribeSplitRe.Split(part, -1) {
		piece = strings.TrimSpace(piece)
		if utf8.RuneCountInString(piece) >= minTribeLen {
			tribes = append(tribes, piece)
		}
	}
	return tribes
}
