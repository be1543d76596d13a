// Package similarity provides the textual similarity primitives the ensemble
// engine is built on: Jaccard word-set similarity, greedy single-pass
// clustering for majority voting, and the round-level agreement metric.
package similarity

import "strings"

// Jaccard returns the word-set similarity of a and b in [0,1]: the size of
// the intersection of their word sets over the size of the union.
// Tokenization is whitespace-based and case-insensitive.
//
// Two empty texts are considered identical (1.0); an empty text shares
// nothing with a non-empty one (0.0).
func Jaccard(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for word := range setA {
		if _, ok := setB[word]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
