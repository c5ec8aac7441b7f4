// Package typoutil finds indexed terms within a small edit distance of a query term.
package typoutil

// DamerauLevenshteinDistance counts the insertions, deletions, substitutions
// and adjacent transpositions needed to turn a into b. It works on runes.
func DamerauLevenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	limit := len(ra)
	if len(rb) > limit {
		limit = len(rb)
	}
	return distanceWithLimit(ra, rb, limit)
}

// DamerauLevenshteinDistanceWithLimit is DamerauLevenshteinDistance with early
// termination: once the distance is known to exceed maxDistance it returns
// maxDistance + 1.
func DamerauLevenshteinDistanceWithLimit(a, b string, maxDistance int) int {
	return distanceWithLimit([]rune(a), []rune(b), maxDistance)
}

func distanceWithLimit(ra, rb []rune, maxDistance int) int {
	lenA, lenB := len(ra), len(rb)

	if abs(lenA-lenB) > maxDistance {
		return maxDistance + 1
	}
	if lenA == 0 {
		return lenB
	}
	if lenB == 0 {
		return lenA
	}

	// Three rolling rows: i-2 is needed for transpositions.
	prevPrev := make([]int, lenB+1)
	prev := make([]int, lenB+1)
	curr := make([]int, lenB+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= lenA; i++ {
		curr[0] = i
		rowMin := i
		for j := 1; j <= lenB; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			d := min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				d = min(d, prevPrev[j-2]+cost)
			}
			curr[j] = d
			rowMin = min(rowMin, d)
		}
		if rowMin > maxDistance {
			return maxDistance + 1
		}
		prevPrev, prev, curr = prev, curr, prevPrev
	}

	if prev[lenB] > maxDistance {
		return maxDistance + 1
	}
	return prev[lenB]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
