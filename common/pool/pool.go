// Package pool provides a size-classed byte-slice pool; the tunnel engine
// uses it for the egress pump's read buffer.
package pool

var DefaultAllocator = NewAllocator()

func Get(size int) []byte {
	return DefaultAllocator.Get(size)
}

func Put(buf []byte) error {
	return DefaultAllocator.Put(buf)
}
