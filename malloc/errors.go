package malloc

import "errors"

// ErrorOutofMemory returned (and also the error logged) when the page
// provider cannot extend the heap far enough to satisfy a request.
var ErrorOutofMemory = errors.New("malloc.outofmemory")

// ErrorOverflow logged by ZeroAllocate, which then returns nil, when
// n*size overflows int64.
var ErrorOverflow = errors.New("malloc.overflow")

// ErrorCorruptHeap returned by the debug consistency checker when it
// detects a violated heap invariant.
var ErrorCorruptHeap = errors.New("malloc.corruptheap")
