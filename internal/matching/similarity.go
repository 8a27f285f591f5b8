package matching

import "strings"

// Similarity computes a 0-100 similarity between two strings after
// normalization.
//
// Normalized-equal strings (including two empties) score 100 and a single
// empty side scores 0. When one string contains the other the score is the
// length ratio 100*len(shorter)/len(longer); otherwise it is the Jaccard
// overlap of the token sets. Symmetric in its arguments.
func Similarity(a, b string) int {
	na, nb := Normalize(a), Normalize(b)

	if na == nb {
		return 100
	}
	if na == "" || nb == "" {
		return 0
	}

	shorter, longer := na, nb
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if strings.Contains(longer, shorter) {
		return 100 * len(shorter) / len(longer)
	}

	return jaccard(strings.Fields(na), strings.Fields(nb))
}

// jaccard returns 100*|a ∩ b| / |a ∪ b| over token sets.
func jaccard(a, b []string) int {
	union := make(map[string]bool, len(a)+len(b))
	inA := make(map[string]bool, len(a))
	for _, tok := range a {
		union[tok] = true
		inA[tok] = true
	}

	intersection := 0
	seen := make(map[string]bool, len(b))
	for _, tok := range b {
		union[tok] = true
		if inA[tok] && !seen[tok] {
			intersection++
			seen[tok] = true
		}
	}

	if len(union) == 0 {
		return 100
	}
	return 100 * intersection / len(union)
}
