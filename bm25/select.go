package bm25

import "slices"

type candidate struct {
	pos   int
	score float64
}

// before is the result order: higher score first, then lower corpus position.
func before(x, y candidate) bool {
	if x.score != y.score {
		return x.score > y.score
	}
	return x.pos < y.pos
}

func compare(x, y candidate) int {
	switch {
	case before(x, y):
		return -1
	case before(y, x):
		return 1
	}
	return 0
}

// selectTop returns the k best candidates in order. It partitions in place
// with quickselect so only the selected prefix gets sorted.
func selectTop(cs []candidate, k int) []candidate {
	if k <= 0 || len(cs) == 0 {
		return nil
	}
	if k < len(cs) {
		lo, hi := 0, len(cs)-1
		for lo < hi {
			p := partition(cs, lo, hi)
			switch {
			case p == k-1:
				lo = hi
			case p < k-1:
				lo = p + 1
			default:
				hi = p - 1
			}
		}
		cs = cs[:k]
	}
	slices.SortFunc(cs, compare)
	return cs
}

// partition places the middle element at its final position within [lo, hi]
// and returns that position.
func partition(cs []candidate, lo, hi int) int {
	mid := lo + (hi-lo)/2
	cs[mid], cs[hi] = cs[hi], cs[mid]
	pivot := cs[hi]
	i := lo
	for j := lo; j < hi; j++ {
		if before(cs[j], pivot) {
			cs[i], cs[j] = cs[j], cs[i]
			i++
		}
	}
	cs[i], cs[hi] = cs[hi], cs[i]
	return i
}
