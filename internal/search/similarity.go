package search

import "strings"

// similarity scores how alike two case-folded strings are, as a
// percentage in [0, 100]. It is normalized Levenshtein distance:
//
//	1 - distance(a, b) / max(len(a), len(b))
//
// expressed as a percentage. This is deterministic and symmetric in a
// and b, and monotonic in shared-prefix length: a longer common prefix
// strictly reduces the edit distance, which strictly raises the score.
func similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 100
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 100
	}
	dist := levenshtein(a, b)
	score := (1 - float64(dist)/float64(maxLen)) * 100
	if score < 0 {
		return 0
	}
	return score
}

// levenshtein computes the classic edit distance between a and b using a
// two-row dynamic-programming table (O(min(len(a),len(b))) space).
func levenshtein(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) < len(br) {
		ar, br = br, ar
	}
	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ar); i++ {
		curr[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(br)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
