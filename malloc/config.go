// Package malloc implements a classical single-threaded memory allocator
// over one contiguous, growable heap.
//
// The heap is carved into 16-byte aligned blocks. Each block carries a
// single 8-byte header packing its size together with three state bits:
// whether the block itself is allocated, whether its predecessor on the
// heap is allocated, and whether that predecessor is a minimum-size (16
// byte) block. Free blocks are threaded onto one of Numbuckets segregated
// free lists, chosen by size class; bucket 0 (exact 16-byte blocks) is a
// singly-linked list threaded through the one word after the header (no
// prev link, no footer), buckets 1 through 13 are
// doubly-linked circular lists threaded through the block's payload.
//
// Placement uses a bounded best-fit search within a bucket: the first
// Searchlimit candidates are examined and the tightest fit among them
// is chosen, rather than scanning an entire (potentially long) bucket.
// Freeing a block immediately coalesces it with any free neighbour, in
// one of four cases (both neighbours allocated, only the next neighbour
// free, only the previous neighbour free, both free).
//
// None of this is safe for concurrent use: a single heap is meant to be
// owned by a single goroutine (or externally serialized by the caller).
// Memory is never returned to the operating system until the heap's
// ReleaseAll method is called.
package malloc

import "fmt"

import s "github.com/bnclabs/gosettings"
import "github.com/cloudfoundry/gosigar"

// Alignment every block's payload address, and every block's size, is a
// multiple of this many bytes.
const Alignment = int64(16)

// Minblocksize size of the smallest allocatable block, header included.
// Requests smaller than this are rounded up to it.
const Minblocksize = Alignment

// Wordsize size of the packed header/footer word.
const Wordsize = int64(8)

// Chunksize number of bytes requested from the page provider each time
// the heap is extended, absent a larger request that doesn't fit.
const Chunksize = int64(4096)

// Numbuckets count of segregated free-list buckets. Bucket i holds free
// blocks whose size is in (bucketbounds[i-1], bucketbounds[i]], except for
// the last bucket which is unbounded above.
const Numbuckets = 14

// Searchlimit maximum number of candidates examined in a bucket before
// placement settles for the best fit seen so far.
const Searchlimit = 16

// Reservesize default size of the single up-front address-space reservation
// a heap's page provider makes (see malloc/pager.go). The heap only ever
// grows within this reservation, so its base address never changes once
// the first page is committed, matching the page-provider contract's
// grow-in-place semantics.
const Reservesize = int64(1) << 30

// Exactfitslack a candidate within this many bytes of the requested size
// is taken immediately without examining further candidates.
const Exactfitslack = int64(16)

// bucketbounds upper bound, in bytes, of blocks held in each free-list
// bucket. The final bucket has no upper bound.
var bucketbounds = [Numbuckets]int64{
	16, 32, 48, 64, 128, 256, 512,
	1024, 2048, 4096, 8192, 16384, 32768,
	1<<63 - 1,
}

// Defaultsettings returns the allocator's tunables. "chunk" picks a
// smaller default than Chunksize on machines that report little free
// system memory, the way bogn and llrb size their arenas off sigar's
// free-RAM sample; "reserve" scales down with it too, since it bounds the
// same up-front reservation.
//
// "chunk" (int64, default: Chunksize or less on low-memory machines)
//		Number of bytes requested from the OS each time the heap grows.
//
// "reserve" (int64, default: Reservesize or less on low-memory machines)
//		Size of the single up-front address-space reservation the page
//		provider makes; bounds how large the heap can ever grow.
//
// "searchlimit" (int64, default: Searchlimit)
//		Bucket candidates examined per placement before settling.
//
// "debug" (bool, default: false)
//		Run the consistency checker after every mutating call. Only
//		takes effect when built with the `debug` build tag.
func Defaultsettings() s.Settings {
	chunk, reserve := Chunksize, Reservesize
	if free := freesysmem(); free > 0 {
		if free < uint64(Chunksize*256) {
			chunk = Chunksize / 4
		}
		if free < uint64(Reservesize) {
			reserve = int64(free / 2)
		}
	}
	if reserve < chunk {
		reserve = chunk
	}
	return s.Settings{
		"chunk":       chunk,
		"reserve":     reserve,
		"searchlimit": Searchlimit,
		"debug":       false,
	}
}

func freesysmem() uint64 {
	mem := sigar.Mem{}
	if err := mem.Get(); err != nil {
		return 0
	}
	return mem.Free
}

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}
