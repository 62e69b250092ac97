package malloc

import "testing"

// LogStats must not panic, and the size-distribution helpers it reports
// through must have actually accumulated one sample per successful
// Allocate.
func TestLogStatsAccumulatesSamples(t *testing.T) {
	h := newTestHeap(t)

	sizes := []int64{8, 64, 500, 4000}
	for _, size := range sizes {
		if p := h.Allocate(size); p == nil {
			t.Fatalf("unexpected allocation failure for size %v", size)
		}
	}

	if got := h.reqsizes.Samples(); got != int64(len(sizes)) {
		t.Fatalf("expected %v requested-size samples, got %v", len(sizes), got)
	}
	if got := h.granted.Samples(); got != int64(len(sizes)) {
		t.Fatalf("expected %v granted-size samples, got %v", len(sizes), got)
	}
	if h.granted.Min() < Minblocksize {
		t.Fatalf("expected every granted block to be at least %v bytes, got min %v",
			Minblocksize, h.granted.Min())
	}

	h.LogStats() // must not panic
}
