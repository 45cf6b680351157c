package astdiff

import "strings"

// maxCharDistanceInput caps the character-level comparison; longer bodies
// are compared token by token.
const maxCharDistanceInput = 4000

// similarity returns 1 - distance/maxLen in [0,1]. Pairs whose length ratio
// alone already rules out reaching threshold return 0 without computing the
// distance.
func similarity(a, b string, threshold float64) float64 {
	if a == b {
		return 1
	}
	ar, br := []rune(a), []rune(b)
	longer, shorter := max(len(ar), len(br)), min(len(ar), len(br))
	if longer == 0 {
		return 1
	}
	if float64(shorter)/float64(longer) < threshold {
		return 0
	}

	if len(a) > maxCharDistanceInput || len(b) > maxCharDistanceInput {
		al, bl := strings.Fields(a), strings.Fields(b)
		n := max(len(al), len(bl))
		if n == 0 {
			return 1
		}
		return 1 - float64(levenshtein(al, bl))/float64(n)
	}

	return 1 - float64(levenshtein(ar, br))/float64(longer)
}

func levenshtein[T comparable](a, b []T) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
