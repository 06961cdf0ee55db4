package skills

// similarityRatio measures how similar two strings are as a value in
// [0, 1]: twice the number of matched characters over the total length,
// where matches are accumulated from recursively longest matching blocks.
// This mirrors Python's difflib.SequenceMatcher.ratio(), which the router's
// fuzzy threshold was tuned against.
func similarityRatio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchedRunes(ra, rb)) / float64(total)
}

type span struct {
	alo, ahi, blo, bhi int
}

// matchedRunes sums the sizes of all matching blocks between ra and rb.
func matchedRunes(ra, rb []rune) int {
	b2j := make(map[rune][]int, len(rb))
	for j, r := range rb {
		b2j[r] = append(b2j[r], j)
	}

	matched := 0
	stack := []span{{0, len(ra), 0, len(rb)}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		i, j, size := longestMatch(ra, b2j, s)
		if size == 0 {
			continue
		}
		matched += size
		if s.alo < i && s.blo < j {
			stack = append(stack, span{s.alo, i, s.blo, j})
		}
		if i+size < s.ahi && j+size < s.bhi {
			stack = append(stack, span{i + size, s.ahi, j + size, s.bhi})
		}
	}
	return matched
}

// longestMatch finds the longest block of runes common to ra[alo:ahi] and
// the indexed other sequence within [blo, bhi). Of all maximal blocks it
// returns the one starting earliest in ra, breaking ties on the other side.
func longestMatch(ra []rune, b2j map[rune][]int, s span) (besti, bestj, bestsize int) {
	besti, bestj = s.alo, s.blo
	j2len := make(map[int]int)
	for i := s.alo; i < s.ahi; i++ {
		newJ2len := make(map[int]int)
		for _, j := range b2j[ra[i]] {
			if j < s.blo {
				continue
			}
			if j >= s.bhi {
				break
			}
			k := j2len[j-1] + 1
			newJ2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newJ2len
	}
	return besti, bestj, bestsize
}
