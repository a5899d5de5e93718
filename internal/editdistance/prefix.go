// Package editdistance computes the prefix Levenshtein distance: the least
// number of single-character edits turning a into some prefix of b.
package editdistance

import "fmt"

// Distance returns the minimum edit distance between a and any prefix of b,
// so Distance("abc", "abcdefg") is 0.
func Distance(a, b string) int {
	return prefixDistance([]rune(a), []rune(b))
}

// EstimatedDistance equals Distance(a, b) whenever that is at most bound, and
// is some value greater than bound otherwise. Only the first len(a)+bound
// characters of b are examined. It panics if bound is negative.
func EstimatedDistance(a, b string, bound int) int {
	if bound < 0 {
		panic(fmt.Sprintf("editdistance: negative bound %d", bound))
	}
	ra, rb := []rune(a), []rune(b)
	if limit := len(ra) + bound; len(ra) < len(rb) && limit < len(rb) {
		rb = rb[:limit]
	}
	return prefixDistance(ra, rb)
}

// prefixDistance fills the cost table row by row over a, keeping two rows of
// len(b)+1 cells, and returns the minimum of the final row.
func prefixDistance(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			substitution := prev[j-1]
			if a[i-1] != b[j-1] {
				substitution++
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, substitution)
		}
		prev, cur = cur, prev
	}
	best := prev[0]
	for _, v := range prev[1:] {
		if v < best {
			best = v
		}
	}
	return best
}
