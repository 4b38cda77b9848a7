// Package atomic provides a small generic compare-and-swap box used by the
// connection lifecycle (C8) to guard the close-exactly-once teardown (P4)
// against the connection's Run goroutine and the watchdog's watcher
// goroutine both racing to tear a connection down.
package atomic

import "sync"

// TypedValue is a concurrency-safe compare-and-swap box for a single value
// of type T. Its only caller is the connection lifecycle's close guard, so
// the exported surface is limited to CompareAndSwap — there is no Store,
// Load, or LoadOk to carry around unused.
type TypedValue[T comparable] struct {
	mu    sync.Mutex
	value T
}

// CompareAndSwap stores newVal only if the current value equals old,
// reporting whether the swap happened.
func (v *TypedValue[T]) CompareAndSwap(old, newVal T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.value != old {
		return false
	}
	v.value = newVal
	return true
}
