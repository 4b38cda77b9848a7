package pool

import (
	"fmt"
	"sync"
)

// classes are the size buckets the allocator rounds requests up to. The
// largest class covers a full early-data/header-carrying WebSocket frame
// with room to spare; bigger requests allocate directly and are not pooled.
var classes = []int{512, 2048, 8192, 16384, 65536}

// Allocator is a sync.Pool-backed byte-slice allocator with size classes,
// the same lazy-allocator shape the teacher's pool package exposes as
// DefaultAllocator, implemented directly instead of reusing an external
// zero-copy buffer type (see DESIGN.md).
type Allocator struct {
	pools []sync.Pool
}

func NewAllocator() *Allocator {
	a := &Allocator{pools: make([]sync.Pool, len(classes))}
	for i, size := range classes {
		size := size
		a.pools[i].New = func() any {
			buf := make([]byte, size)
			return &buf
		}
	}
	return a
}

func (a *Allocator) classFor(size int) int {
	for i, c := range classes {
		if size <= c {
			return i
		}
	}
	return -1
}

// Get returns a slice of length size. Slices from a size class are reused
// across calls; oversized requests are allocated fresh.
func (a *Allocator) Get(size int) []byte {
	if size < 0 {
		panic("pool: negative size")
	}
	idx := a.classFor(size)
	if idx < 0 {
		return make([]byte, size)
	}
	buf := a.pools[idx].Get().(*[]byte)
	return (*buf)[:size]
}

// Put returns buf to its size class. Buffers not obtained from Get (or
// already resliced past a class boundary) are simply dropped.
func (a *Allocator) Put(buf []byte) error {
	c := cap(buf)
	for i, size := range classes {
		if c == size {
			full := buf[:size]
			a.pools[i].Put(&full)
			return nil
		}
	}
	if c == 0 {
		return fmt.Errorf("pool: put empty buffer")
	}
	return nil
}
