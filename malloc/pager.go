package malloc

// #include <stdlib.h>
import "C"
import "unsafe"

// pager is the page-granularity provider contract the heap shell consumes
// (§6, "Page provider contract"): extend grows the heap by exactly n
// bytes and returns the address of the region, low/high report the
// current bounds. §6 models this on mem_sbrk-style growth: the region
// only ever grows in place, at a fixed base, and extend's "new region" is
// always the tail of that same base, never a relocated copy. The core
// allocator makes no assumption about how pages are sourced; this package
// wires it to cgo, the same mechanism pool_flist.go and pool_fbit.go use
// to pull memory from the OS.
type pager interface {
	extend(n int64) (unsafe.Pointer, bool)
	low() unsafe.Pointer
	high() unsafe.Pointer
	release()
}

// cpager makes one C.malloc reservation of `capacity` bytes up front and
// never relocates it: extend only ever grows how much of that reservation
// is considered committed. This is deliberate, not an optimization --
// callers hold raw unsafe.Pointer values returned from Heap.Allocate, and
// those pointers are baked against cpager's base at the time they were
// handed out. A relocating grow (the previous C.realloc-based design)
// would silently invalidate every pointer a caller was still holding the
// moment a later Allocate happened to trigger an extension, which is
// exactly the kind of violation of "callers own their byte range until
// they release it" (§5) the page-provider contract rules out. Per the
// spec's non-goals the heap only ever grows, so release (C.free) is only
// called once, when the owning Heap is released back to the OS.
type cpager struct {
	base     unsafe.Pointer
	size     int64 // bytes committed so far
	capacity int64 // bytes reserved up front; base never changes after the first commit
}

func newCpager(capacity int64) *cpager {
	return &cpager{capacity: capacity}
}

func (p *cpager) extend(n int64) (unsafe.Pointer, bool) {
	newsize := p.size + n
	if newsize > p.capacity {
		return nil, false
	}
	if p.base == nil {
		base := C.malloc(C.size_t(p.capacity))
		if base == nil {
			return nil, false
		}
		p.base = base
	}
	p.size = newsize
	return p.base, true
}

func (p *cpager) low() unsafe.Pointer { return p.base }

func (p *cpager) high() unsafe.Pointer {
	if p.base == nil {
		return nil
	}
	return unsafe.Pointer(uintptr(p.base) + uintptr(p.size) - 1)
}

func (p *cpager) release() {
	if p.base != nil {
		C.free(p.base)
	}
	p.base, p.size = nil, 0
}
