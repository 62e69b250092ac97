package malloc

import "unsafe"

import s "github.com/bnclabs/gosettings"

import "github.com/bnclabs/segheap/api"
import "github.com/bnclabs/segheap/lib"

var _ api.Mallocer = (*Heap)(nil)

// Heap is one growable, single-threaded arena implementing the public
// surface described in §6: Allocate, Release, Reallocate, ZeroAllocate,
// plus the accounting calls required by api.Mallocer. The 14-entry bucket
// directory and the heap-start bookkeeping are encapsulated per instance
// (§9 "Global state") so that tests can run several heaps in parallel
// even though a single heap is never safe for concurrent use.
type Heap struct {
	pager  pager
	base   unsafe.Pointer // pager.low(), fixed for the heap's lifetime (see pager.go)
	extent int64          // total bytes from prologue to epilogue, inclusive

	buckets [Numbuckets]block

	chunk       int64
	searchlimit int64
	debug       bool

	mallocated int64 // bytes currently handed out to callers
	nallocs    int64
	nfrees     int64
	nextends   int64

	reqsizes *lib.AverageInt64   // requested sizes, pre-rounding
	granted  *lib.HistogramInt64 // granted block sizes, post-rounding
}

// NewHeap constructs a Heap and requests its initial pages from the
// provider. Settings default via Defaultsettings(); see malloc/config.go.
func NewHeap(setts s.Settings) (*Heap, error) {
	setts = Defaultsettings().Mixin(setts)

	chunk, reserve := setts.Int64("chunk"), setts.Int64("reserve")
	if chunk <= 0 {
		panicerr("malloc: invalid chunk size %v", chunk)
	}
	if reserve < chunk {
		panicerr("malloc: reserve %v smaller than chunk %v", reserve, chunk)
	}

	h := &Heap{
		pager:       newCpager(reserve),
		chunk:       chunk,
		searchlimit: setts.Int64("searchlimit"),
		debug:       setts.Bool("debug"),
	}
	for i := range h.buckets {
		h.buckets[i] = noblock
	}
	if err := h.init(); err != nil {
		return nil, err
	}
	return h, nil
}

// histFrom, histTill and histWidth bound the granted-size histogram kept
// for LogStats: one bucket per histWidth bytes up to the largest finite
// size class, with overflow and underflow buckets covering the rest.
const (
	histFrom  = int64(0)
	histTill  = int64(32768)
	histWidth = int64(512)
)

// init resets the directory and lays down the prologue/epilogue sentinels
// before seeding the heap with one free block of h.chunk bytes (§4.5).
func (h *Heap) init() error {
	for i := range h.buckets {
		h.buckets[i] = noblock
	}
	h.reqsizes = &lib.AverageInt64{}
	h.granted = lib.NewhistorgramInt64(histFrom, histTill, histWidth)

	base, ok := h.pager.extend(2 * Wordsize)
	if !ok {
		errorf("malloc: failed to obtain initial pages")
		return ErrorOutofMemory
	}
	h.base, h.extent = base, 2*Wordsize

	// prologue: size 0, terminates backward walks.
	h.setwordat(0, packword(0, true, true, true))
	// epilogue: no real blocks yet, so its prev-state mirrors the prologue.
	h.setwordat(Wordsize, packword(0, true, true, true))

	if _, ok := h.extendHeap(h.chunk); !ok {
		errorf("malloc: failed to extend initial heap by %v bytes", h.chunk)
		return ErrorOutofMemory
	}
	return nil
}

// extendHeap grows the heap by (at least) n bytes, rounded up to the
// block alignment, replacing the old epilogue with a free block and
// writing a fresh epilogue at the new high end. The new region is
// coalesced with the previous tail if that tail was free, matching
// extend_heap's behaviour in the source this spec was distilled from.
func (h *Heap) extendHeap(n int64) (block, bool) {
	n = roundup(n, Alignment)

	base, ok := h.pager.extend(n)
	if !ok {
		return noblock, false
	}
	h.base = base // always the same address; cpager never relocates (pager.go)

	b := h.extent - Wordsize // old epilogue's offset becomes the new block
	oldEpilogue := h.wordat(b)
	h.extent += n

	h.allocToFree(b, n, wordprevalloc(oldEpilogue), wordprevmin(oldEpilogue))
	h.setwordat(h.extent-Wordsize, packword(0, false, true, n == Minblocksize))

	b = h.coalesce(b)
	h.nextends++
	infof("malloc: heap extended by %v bytes, now %v", n, h.extent)
	return b, true
}

// Allocate implements api.Mallocer.
func (h *Heap) Allocate(size int64) unsafe.Pointer {
	h.checkheap("Allocate:enter")
	defer h.checkheap("Allocate:exit")

	if size <= 0 {
		return nil
	}

	asize := roundup(size+Wordsize, Alignment)
	if asize < Minblocksize {
		asize = Minblocksize
	}

	b, ok := h.findFit(asize)
	if !ok {
		extendsize := asize
		if h.chunk > extendsize {
			extendsize = h.chunk
		}
		nb, ok := h.extendHeap(extendsize)
		if !ok {
			warnf("malloc: allocate(%v): %v", size, ErrorOutofMemory)
			return nil
		}
		b = nb
	}

	h.freeToAlloc(b)
	h.modifyNext(h.nextOnHeap(b), true, asize == Minblocksize)
	h.split(b, asize)

	h.mallocated += h.size(b)
	h.nallocs++
	h.reqsizes.Add(size)
	h.granted.Add(h.size(b))
	return h.toptr(h.payload(b))
}

// Release implements api.Mallocer.
func (h *Heap) Release(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	h.checkheap("Release:enter")
	defer h.checkheap("Release:exit")

	b := h.payloadToBlock(h.tooffset(ptr))
	size := h.size(b)
	w := h.wordat(b)

	h.mallocated -= size
	h.nfrees++

	h.allocToFree(b, size, wordprevalloc(w), wordprevmin(w))
	h.modifyNext(h.nextOnHeap(b), false, size == Minblocksize)
	h.coalesce(b)
}

// Reallocate implements api.Mallocer.
func (h *Heap) Reallocate(ptr unsafe.Pointer, size int64) unsafe.Pointer {
	if size == 0 {
		h.Release(ptr)
		return nil
	}
	if ptr == nil {
		return h.Allocate(size)
	}

	newptr := h.Allocate(size)
	if newptr == nil {
		return nil
	}

	b := h.payloadToBlock(h.tooffset(ptr))
	copysize := h.payloadsize(b)
	if size < copysize {
		copysize = size
	}
	lib.Memcpy(newptr, ptr, int(copysize))

	h.Release(ptr)
	return newptr
}

// ZeroAllocate implements api.Mallocer.
func (h *Heap) ZeroAllocate(n, size int64) unsafe.Pointer {
	asize, overflows := mulOverflows(n, size)
	if overflows {
		warnf("malloc: zeroallocate(%v, %v): %v", n, size, ErrorOverflow)
		return nil
	}
	ptr := h.Allocate(asize)
	if ptr == nil {
		return nil
	}
	lib.Memset(ptr, 0, int(asize))
	return ptr
}

// ReleaseAll implements api.Mallocer: returns every byte this heap holds
// back to the OS. No other method may be called afterwards.
func (h *Heap) ReleaseAll() {
	h.pager.release()
	h.base, h.extent = nil, 0
	for i := range h.buckets {
		h.buckets[i] = noblock
	}
}

//---- accounting

// payloadsize returns the usable byte count of an allocated block (§4.5,
// "Payload-size computation").
func (h *Heap) payloadsize(b block) int64 {
	size := h.size(b)
	if size == Minblocksize {
		return Wordsize
	}
	return size - Wordsize
}

func roundup(size, n int64) int64 {
	return n * ((size + n - 1) / n)
}

// mulOverflows reports whether n*size overflows an int64, the check
// ZeroAllocate needs before trusting the product.
func mulOverflows(n, size int64) (int64, bool) {
	if n == 0 || size == 0 {
		return 0, false
	}
	product := n * size
	if product/n != size {
		return 0, true
	}
	return product, false
}
