// Package api defines the public contract implemented by this repository's
// allocator. It is kept separate from the implementation package so that
// alternative allocator backends could implement the same interface.
package api

import "unsafe"

// Mallocer is the public surface of a custom memory allocator: allocate,
// release, reallocate and zero-allocate over a single growable heap, plus
// the accounting calls needed to observe it.
type Mallocer interface {
	// Allocate returns a 16-byte aligned pointer to a block of at least
	// size bytes, or nil if size is 0 or the heap could not be extended.
	Allocate(size int64) unsafe.Pointer

	// Release returns a block previously obtained from Allocate (or
	// Reallocate/ZeroAllocate) back to the allocator. Release(nil) is a
	// no-op.
	Release(ptr unsafe.Pointer)

	// Reallocate resizes the block at ptr to size bytes, preserving the
	// lesser of the old and new sizes worth of payload. ptr may be nil
	// (behaves like Allocate) and size may be 0 (behaves like Release).
	Reallocate(ptr unsafe.Pointer, size int64) unsafe.Pointer

	// ZeroAllocate allocates n*size bytes, zero-filled, or nil on
	// overflow or extension failure.
	ZeroAllocate(n, size int64) unsafe.Pointer

	// Info returns memory accounting for this heap: total bytes pulled
	// from the OS (heap), bytes currently handed out to callers (alloc)
	// and bytes spent on allocator bookkeeping (overhead).
	Info() (heap, alloc, overhead int64)

	// Utilization reports, per free-list bucket upper bound, the
	// percentage of that bucket's blocks that are currently free.
	Utilization() (buckets []int64, percentFree []float64)

	// ReleaseAll releases all memory owned by this heap back to the OS.
	// After ReleaseAll no other method may be called.
	ReleaseAll()
}
