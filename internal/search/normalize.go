// Package search provides text normalization for the free-text profile
// search. Normalization is applied to both the stored fields (at query
// composition time, via SQL LOWER) and the incoming query, so matching is
// case-insensitive and whitespace-tolerant.
package search

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// MaxQueryRunes caps the accepted free-text query length; anything longer
// is clipped rather than rejected.
const MaxQueryRunes = 64

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	folder       = cases.Fold()
)

// NormalizeQuery lowercases (Unicode case folding), trims, collapses inner
// whitespace, and clips the query. An empty result means "no text filter".
func NormalizeQuery(q string) string {
	q = folder.String(strings.TrimSpace(q))
	q = whitespaceRE.ReplaceAllString(q, " ")
	r := []rune(q)
	if len(r) > MaxQueryRunes {
		q = string(r[:MaxQueryRunes])
	}
	return q
}

// NormalizeTag folds a single interest tag for exact-match comparison.
func NormalizeTag(t string) string {
	return folder.String(strings.TrimSpace(t))
}
