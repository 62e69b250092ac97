package malloc

// findFit runs the bounded best-fit search of §4.3: starting from the
// first bucket whose range could hold asize, scan at most searchlimit
// candidates per bucket, taking a near-exact fit (slack <= exactfitslack)
// immediately, and otherwise carrying the tightest fit forward to the
// next bucket if none was settled. Never wraps back to a smaller class.
func (h *Heap) findFit(asize int64) (block, bool) {
	for i := bucketindex(asize); i < Numbuckets; i++ {
		if b, ok := h.scanBucket(i, asize); ok {
			return b, true
		}
	}
	return noblock, false
}

func (h *Heap) scanBucket(i int, asize int64) (block, bool) {
	head := h.buckets[i]
	if head == noblock {
		return noblock, false
	}

	best, bestslack := noblock, int64(-1)
	b := head
	for n := int64(0); n < h.searchlimit; n++ {
		if size := h.size(b); size >= asize {
			slack := size - asize
			if slack <= Exactfitslack {
				return b, true
			}
			if bestslack == -1 || slack < bestslack {
				best, bestslack = b, slack
			}
		}

		nx := h.bucketwalk(i, b)
		if nx == b || (i > 0 && nx == head) {
			break
		}
		b = nx
	}
	return best, best != noblock
}
