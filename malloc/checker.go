// +build debug

package malloc

// checkheap runs checkHeapInvariants (invariants.go) when built with the
// `debug` tag and the "debug" setting is on (see checker_stub.go for the
// no-op twin); call sites pass a short label identifying where in a public
// operation the check is being run, useful for narrowing down which
// transition broke an invariant.
func (h *Heap) checkheap(tag string) {
	if !h.debug {
		return
	}
	if err := h.checkHeapInvariants(); err != nil {
		errorf("malloc: %s: %v", tag, err)
		panic(err)
	}
}
