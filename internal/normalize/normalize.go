// Package normalize derives typed fields from free-text treaty titles.
// Every function here is total: no match yields an absent or empty result.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanTitle returns the NFC form of title with runs of whitespace collapsed.
func CleanTitle(title string) string {
	return strings.Join(strings.Fields(norm.NFC.String(title)), " ")
}
