// Package suggest finds likely intended names for mistyped input.
package suggest

import (
	"cmp"
	"slices"
	"strings"
)

// minScore is the similarity a candidate must exceed to be suggested.
const minScore = 0.5

type match struct {
	name  string
	score float64
}

// FindSimilar returns up to limit candidates that resemble target, best first. Ties are broken
// alphabetically. Comparison is case-insensitive.
func FindSimilar(target string, candidates []string, limit int) []string {
	if target == "" || limit <= 0 {
		return []string{}
	}
	var matches []match
	for _, c := range candidates {
		if s := similarity(target, c); s > minScore {
			matches = append(matches, match{name: c, score: s})
		}
	}
	slices.SortFunc(matches, func(a, b match) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})
	out := make([]string, 0, min(limit, len(matches)))
	for _, m := range matches[:min(limit, len(matches))] {
		out = append(out, m.name)
	}
	return out
}

// similarity scores a against b from 0 to 1. Equal strings score 1 and a prefix of b scores 0.9;
// otherwise the score is the edit distance normalized by the longer length.
func similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	switch {
	case a == b:
		return 1
	case strings.HasPrefix(b, a):
		return 0.9
	}
	longest := max(len(a), len(b))
	return 1 - float64(distance(a, b))/float64(longest)
}

// distance is the Levenshtein distance between a and b, in bytes.
func distance(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			sub := prev[j-1]
			if a[i-1] != b[j-1] {
				sub++
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
