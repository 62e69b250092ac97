package malloc

import "testing"

// newBucketTestHeap gives each test a real heap with plenty of free space to
// carve fixed-size blocks out of by hand, bypassing Allocate/Release so the
// bucket discipline itself is exercised directly.
func newBucketTestHeap(t *testing.T) *Heap {
	h := newTestHeap(t)
	return h
}

// carve pulls the sole initial free block apart into count blocks of the
// given size, laying down valid headers/footers for each without threading
// them onto a bucket -- tests thread them on explicitly. The last bucket's
// head still names the original free block, whose offset blocks[0] reuses.
func carve(h *Heap, size int64, count int) []block {
	b := block(Wordsize)
	for h.isalloc(b) {
		b = h.nextOnHeap(b)
	}
	blocks := make([]block, count)
	prevAlloc, prevMin := true, false
	for i := 0; i < count; i++ {
		h.setwordat(b, packword(size, prevAlloc, false, prevMin))
		if size > Minblocksize {
			h.setwordat(h.footer(b), h.wordat(b))
		}
		blocks[i] = b
		b = h.nextOnHeap(b)
		prevAlloc, prevMin = false, size == Minblocksize
	}
	return blocks
}

// Bucket 0 (minimum-size, singly linked) threads new blocks at the head and
// terminates in a self-loop, never a nil/sentinel distinct from the node.
func TestBucket0InsertSelfLoop(t *testing.T) {
	h := newBucketTestHeap(t)
	blocks := carve(h, Minblocksize, 3)

	for _, b := range blocks {
		h.insertMin(b)
	}
	// LIFO: last inserted is head.
	if h.buckets[0] != blocks[2] {
		t.Fatalf("expected head %v, got %v", blocks[2], h.buckets[0])
	}
	if h.minnext(blocks[2]) != blocks[1] {
		t.Fatal("expected head to point at the previous head")
	}
	if h.minnext(blocks[1]) != blocks[0] {
		t.Fatal("expected middle node to point at the first")
	}
	if h.minnext(blocks[0]) != blocks[0] {
		t.Fatal("expected the sole original node to self-loop")
	}
}

// Removing the head, a middle node, and the last node of a bucket-0 list
// all leave the remaining members correctly linked.
func TestBucket0RemoveMidAndHead(t *testing.T) {
	h := newBucketTestHeap(t)
	blocks := carve(h, Minblocksize, 3)
	for _, b := range blocks {
		h.insertMin(b)
	}
	// list is blocks[2] -> blocks[1] -> blocks[0] -> (self)

	h.removeMin(blocks[1]) // remove the middle node
	if h.minnext(blocks[2]) != blocks[0] {
		t.Fatal("expected middle removal to splice the list")
	}

	h.removeMin(blocks[2]) // remove the (new) head
	if h.buckets[0] != blocks[0] {
		t.Fatalf("expected new head %v, got %v", blocks[0], h.buckets[0])
	}

	h.removeMin(blocks[0]) // remove the sole remaining node
	if h.buckets[0] != noblock {
		t.Fatal("expected an empty bucket after removing the last node")
	}
}

// Buckets 1..13 are doubly linked and circular: the head's prev is the
// tail, and removal from any position preserves that circularity.
func TestBucketBasicDoublyLinkedCircular(t *testing.T) {
	h := newBucketTestHeap(t)
	blocks := carve(h, 64, 3)
	i := bucketindex(64)

	for _, b := range blocks {
		h.insertBasic(i, b)
	}
	head := h.buckets[i]
	if head != blocks[2] {
		t.Fatalf("expected LIFO head %v, got %v", blocks[2], head)
	}
	// walk all the way around and land back on head.
	x := head
	for n := 0; n < 3; n++ {
		x = h.dnext(x)
	}
	if x != head {
		t.Fatal("expected a full walk of 3 links to return to head")
	}
	if h.dprev(head) != blocks[0] {
		t.Fatal("expected head's prev to be the tail")
	}
}

func TestBucketBasicRemoveMidPreservesCircularity(t *testing.T) {
	h := newBucketTestHeap(t)
	blocks := carve(h, 64, 3)
	i := bucketindex(64)
	for _, b := range blocks {
		h.insertBasic(i, b)
	}

	h.removeBasic(i, blocks[1]) // middle
	head := h.buckets[i]
	if h.dnext(head) == blocks[1] || h.dprev(head) == blocks[1] {
		t.Fatal("removed node still reachable from head")
	}
	// exactly two nodes remain, still circular.
	x := h.dnext(head)
	if h.dnext(x) != head {
		t.Fatal("expected the two survivors to form a 2-cycle")
	}
}

func TestBucketBasicRemoveSoleElement(t *testing.T) {
	h := newBucketTestHeap(t)
	blocks := carve(h, 64, 1)
	i := bucketindex(64)
	h.insertBasic(i, blocks[0])

	h.removeBasic(i, blocks[0])
	if h.buckets[i] != noblock {
		t.Fatal("expected an empty bucket after removing the sole element")
	}
}

// bucketindex never returns a class whose bound is below size, and always
// returns the smallest such class.
func TestBucketIndexMonotonic(t *testing.T) {
	for _, size := range []int64{16, 17, 32, 33, 4096, 4097, 1 << 40} {
		i := bucketindex(size)
		if size > bucketbounds[i] {
			t.Fatalf("size %v: bucket %v bound %v too small", size, i, bucketbounds[i])
		}
		if i > 0 && size <= bucketbounds[i-1] {
			t.Fatalf("size %v: bucket %v isn't the smallest fit", size, i)
		}
	}
}
