package malloc

import "github.com/dustin/go-humanize"

// Info implements api.Mallocer. heap is every byte pulled from the page
// provider so far; alloc is the total size, headers included, of the
// blocks currently handed out to callers; overhead is what the allocator
// itself spends on headers,
// footers and the two sentinels to track all of that.
func (h *Heap) Info() (heapBytes, allocBytes, overhead int64) {
	heapBytes = h.extent
	allocBytes = h.mallocated
	overhead = 2 * Wordsize // prologue + epilogue

	for b := block(Wordsize); b < h.extent-Wordsize; b = h.nextOnHeap(b) {
		overhead += Wordsize
		if !h.isalloc(b) && h.size(b) > Minblocksize {
			overhead += Wordsize
		}
	}
	return
}

// Utilization implements api.Mallocer. For each bucket's size class, it
// reports what fraction of the blocks (free and allocated) currently on
// the heap in that size range are free -- a per-class
// fragmentation signal, not a per-bucket one, since a bucket by
// construction holds only free blocks.
func (h *Heap) Utilization() (buckets []int64, percentFree []float64) {
	var total, free [Numbuckets]int64

	for b := block(Wordsize); b < h.extent-Wordsize; b = h.nextOnHeap(b) {
		i := bucketindex(h.size(b))
		total[i]++
		if !h.isalloc(b) {
			free[i]++
		}
	}

	for i := 0; i < Numbuckets; i++ {
		if total[i] == 0 {
			continue
		}
		buckets = append(buckets, bucketbounds[i])
		percentFree = append(percentFree, (float64(free[i])/float64(total[i]))*100)
	}
	return
}

// LogStats emits a human-readable accounting line, the way cmd/segheapcheck
// does after a stress run. The size distribution comes from two lib
// statistics helpers fed on every successful Allocate (see heap.go):
// reqsizes tracks the raw requested sizes, granted buckets the actual
// (header-inclusive, alignment-rounded) block sizes handed out.
func (h *Heap) LogStats() {
	heapBytes, allocBytes, overhead := h.Info()
	infof(
		"malloc: heap %v alloc %v overhead %v allocs %v frees %v extends %v",
		humanize.Bytes(uint64(heapBytes)), humanize.Bytes(uint64(allocBytes)),
		humanize.Bytes(uint64(overhead)), h.nallocs, h.nfrees, h.nextends,
	)
	infof(
		"malloc: requested sizes mean %v sd %v min %v max %v",
		humanize.Bytes(uint64(h.reqsizes.Mean())), h.reqsizes.SD(),
		h.reqsizes.Min(), h.reqsizes.Max(),
	)
	infof("malloc: granted size distribution %v", h.granted.Logstring())
}
