// Command segheapcheck drives a malloc.Heap through a randomized stress
// run and reports its accounting, the way tools/pools does for llrb's
// block sizing in the repo this was adapted from.
package main

import "fmt"
import "flag"
import "math/rand"
import "unsafe"

import s "github.com/bnclabs/gosettings"
import "github.com/cloudfoundry/gosigar"
import humanize "github.com/dustin/go-humanize"

import "github.com/bnclabs/segheap/malloc"

var options struct {
	rounds  int
	maxsize int
	chunk   int64
	logall  bool
}

func argParse() {
	flag.IntVar(&options.rounds, "rounds", 1000000,
		"number of allocate/release steps to run")
	flag.IntVar(&options.maxsize, "maxsize", 4096,
		"largest single allocation request")
	flag.Int64Var(&options.chunk, "chunk", malloc.Chunksize,
		"bytes requested from the OS on every heap extension")
	flag.BoolVar(&options.logall, "log", false,
		"enable malloc package logging")
	flag.Parse()
}

func main() {
	argParse()
	if options.logall {
		malloc.LogComponents("all")
	}

	mem := sigar.Mem{}
	if err := mem.Get(); err == nil {
		fmt.Printf("free system memory before run: %v\n", humanize.Bytes(mem.Free))
	}

	h, err := malloc.NewHeap(s.Settings{"chunk": options.chunk})
	if err != nil {
		panic(err)
	}
	stress(h)

	heapBytes, allocBytes, overhead := h.Info()
	fmt.Printf(
		"heap %v alloc %v overhead %v\n",
		humanize.Bytes(uint64(heapBytes)), humanize.Bytes(uint64(allocBytes)),
		humanize.Bytes(uint64(overhead)),
	)
	buckets, percentFree := h.Utilization()
	for i, upper := range buckets {
		fmt.Printf("bucket <= %-10v percent-free %.1f\n", upper, percentFree[i])
	}
}

func stress(h *malloc.Heap) {
	var live []unsafe.Pointer
	for i := 0; i < options.rounds; i++ {
		if len(live) == 0 || rand.Intn(3) != 0 {
			size := int64(1 + rand.Intn(options.maxsize))
			ptr := h.Allocate(size)
			if ptr == nil {
				continue
			}
			live = append(live, ptr)
		} else {
			j := rand.Intn(len(live))
			h.Release(live[j])
			live[j] = live[len(live)-1]
			live = live[:len(live)-1]
		}
	}
	for _, ptr := range live {
		h.Release(ptr)
	}
}
