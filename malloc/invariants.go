package malloc

// checkHeapInvariants validates the page provider's reported bounds
// agreeing with the heap's own bookkeeping, sentinel encoding,
// implicit-list alignment and footer mirroring, no two adjacent free
// blocks, per-block bucket-fit, the next/prev link coherence of the
// doubly linked buckets, and agreement between the implicit-list free
// count and the bucket directory's free count. It does not check a
// block's prev-allocated and prev-is-min bits against its predecessor.
// It is always compiled, independent of the
// `debug` build tag, so tests can call it directly; only the hot-path call
// sites in Allocate/Release are gated (see checker.go / checker_stub.go).
func (h *Heap) checkHeapInvariants() error {
	if h.pager.low() != h.base {
		return ErrorCorruptHeap
	}
	if want := h.toptr(h.extent - 1); h.pager.high() != want {
		return ErrorCorruptHeap
	}

	prologue := h.wordat(0)
	if wordsize(prologue) != 0 || !wordalloc(prologue) {
		return ErrorCorruptHeap
	}
	epilogue := h.wordat(h.extent - Wordsize)
	if wordsize(epilogue) != 0 || !wordalloc(epilogue) {
		return ErrorCorruptHeap
	}

	implicitFree := int64(0)
	prevWasFree := false
	for b := block(Wordsize); b < h.extent-Wordsize; b = h.nextOnHeap(b) {
		if b < 0 || b >= h.extent-Wordsize {
			return ErrorCorruptHeap
		}
		size := h.size(b)
		if size%Alignment != 0 || size < Minblocksize {
			return ErrorCorruptHeap
		}

		alloc := h.isalloc(b)
		if !alloc && size > Minblocksize {
			if h.wordat(b) != h.wordat(h.footer(b)) {
				return ErrorCorruptHeap
			}
		}
		if !alloc {
			if prevWasFree {
				return ErrorCorruptHeap
			}
			implicitFree++
			prevWasFree = true
		} else {
			prevWasFree = false
		}

		if !alloc {
			i := bucketindex(size)
			if i == 0 {
				if size != Minblocksize {
					return ErrorCorruptHeap
				}
			} else {
				lower := bucketbounds[i-1]
				if size <= lower || size > bucketbounds[i] {
					return ErrorCorruptHeap
				}
			}
		}
	}

	bucketFree := int64(0)
	for i := 0; i < Numbuckets; i++ {
		head := h.buckets[i]
		if head == noblock {
			continue
		}
		b := head
		for {
			bucketFree++
			nx := h.bucketwalk(i, b)
			if i > 0 {
				if h.dprev(nx) != b {
					return ErrorCorruptHeap
				}
			}
			if nx == b || (i > 0 && nx == head) {
				break
			}
			b = nx
		}
	}

	if implicitFree != bucketFree {
		return ErrorCorruptHeap
	}
	return nil
}
