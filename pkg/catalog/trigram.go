package catalog

import (
	"strings"
	"unicode"
)

// Similarity computes trigram similarity between two strings, matching the
// behavior of PostgreSQL's pg_trgm similarity(): strings are lowercased and
// split on non-alphanumeric runes, each word is padded with two leading
// spaces and one trailing space before trigram extraction, and the result
// is the Jaccard ratio of the two trigram sets.
func Similarity(a, b string) float64 {
	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// trigrams extracts the padded trigram set of s.
func trigrams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range splitWords(s) {
		padded := "  " + word + " "
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			set[string(runes[i:i+3])] = struct{}{}
		}
	}
	return set
}

// splitWords lowercases s and splits it into alphanumeric word runs.
func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
