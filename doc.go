// Package segheap implements a classical single-threaded, single-heap,
// segregated free-list memory allocator and the ambient tooling (config,
// logging, statistics) built around it.
//
// api:
//
// Interface specification an allocator backend must satisfy.
//
// lib:
//
// Convenience functions that can be used by other packages. Package shall
// not import packages other than golang's standard packages.
//
// malloc:
//
// The allocator: block codec, free-list directory, placement engine,
// transition engine, heap shell and debug-only consistency checker.
package segheap
