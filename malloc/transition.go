package malloc

// freeToAlloc removes a free block from its bucket and flips it
// allocated, preserving its size and its prev-state bits (§4.4). No
// footer is written: allocated blocks don't carry one.
func (h *Heap) freeToAlloc(b block) {
	h.remove(b)
	w := h.wordat(b)
	h.setwordat(b, packword(wordsize(w), wordprevalloc(w), true, wordprevmin(w)))
}

// allocToFree writes a free header (and, for non-minimum blocks, a
// mirrored footer) at b and threads it onto the matching bucket. Callers
// supply prevAlloc/prevMin explicitly rather than reading them off b's
// current header, since b's predecessor state is frequently changing in
// the same operation (split, coalesce, heap extension).
func (h *Heap) allocToFree(b block, size int64, prevAlloc, prevMin bool) {
	w := packword(size, prevAlloc, false, prevMin)
	h.setwordat(b, w)
	if size > Minblocksize {
		h.setwordat(h.footer(b), w)
	}
	h.insert(b)
}

// modifyNext rewrites the prev-state bits (1 and 2) of n's header to
// reflect a state change in n's predecessor, mirroring the footer too
// when n is a free non-minimum block. n may be the epilogue.
func (h *Heap) modifyNext(n block, prevAlloc, prevMin bool) {
	w := h.wordat(n)
	nw := packword(wordsize(w), prevAlloc, wordalloc(w), prevMin)
	h.setwordat(n, nw)
	if !wordalloc(w) && wordsize(w) > Minblocksize {
		h.setwordat(h.footer(n), nw)
	}
}

// split carves an allocated block down to asize when the remainder is
// itself big enough to be a block, reinserting the remainder as free.
// Invoked right after freeToAlloc, per §4.4.
func (h *Heap) split(b block, asize int64) {
	size := h.size(b)
	if size-asize < Minblocksize {
		return
	}

	w := h.wordat(b)
	h.setwordat(b, packword(asize, wordprevalloc(w), true, wordprevmin(w)))

	t := b + asize
	remainder := size - asize
	h.allocToFree(t, remainder, true, asize == Minblocksize)
	h.modifyNext(t, true, asize == Minblocksize)
	h.modifyNext(h.nextOnHeap(t), false, remainder == Minblocksize)
}

// coalesce merges a just-freed block b with any free implicit-list
// neighbour, in one of the four cases of §4.4. It must be called
// immediately after allocToFree(b, ...) has already threaded b onto its
// bucket. Returns the block that now represents the merged region.
func (h *Heap) coalesce(b block) block {
	wb := h.wordat(b)
	prevAllocB := wordprevalloc(wb)
	n := h.nextOnHeap(b)

	var p block
	pfree := !prevAllocB
	if pfree {
		if wordprevmin(wb) {
			p = b - Minblocksize
		} else {
			p = h.prevOnHeap(b)
		}
	}
	nfree := !h.isalloc(n)

	switch {
	case pfree && nfree:
		wp := h.wordat(p)
		prevAllocP, prevMinP := wordprevalloc(wp), wordprevmin(wp)
		newsize := h.size(p) + h.size(b) + h.size(n)

		h.remove(b)
		h.remove(p)
		h.remove(n)
		h.allocToFree(p, newsize, prevAllocP, prevMinP)
		h.modifyNext(h.nextOnHeap(p), false, newsize == Minblocksize)
		return p

	case pfree && !nfree:
		wp := h.wordat(p)
		prevAllocP, prevMinP := wordprevalloc(wp), wordprevmin(wp)
		newsize := h.size(p) + h.size(b)

		h.remove(b)
		h.remove(p)
		h.allocToFree(p, newsize, prevAllocP, prevMinP)
		h.modifyNext(h.nextOnHeap(p), false, newsize == Minblocksize)
		return p

	case !pfree && nfree:
		newsize := h.size(b) + h.size(n)

		h.remove(b)
		h.remove(n)
		h.allocToFree(b, newsize, prevAllocB, wordprevmin(wb))
		h.modifyNext(h.nextOnHeap(b), false, newsize == Minblocksize)
		return b

	default: // both neighbours allocated: nothing left to do
		return b
	}
}
