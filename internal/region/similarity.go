package region

import "github.com/pmezard/go-difflib/difflib"

// Similarity returns the difflib match ratio of a and b compared rune by
// rune: 1 for identical text, 0 for nothing in common.
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
