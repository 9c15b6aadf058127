package order

import "sync/atomic"

// IDAllocator hands out order ids from a monotonically increasing counter,
// starting at 1, scoped to the allocator itself. It replaces the
// class-level counter of the reference implementation with a field each
// Engine owns, so every engine starts its own id sequence at 1, keeping id
// allocation testable and deterministic.
type IDAllocator struct {
	counter uint64
}

// Next returns the next order id, starting at 1.
func (a *IDAllocator) Next() uint64 {
	return atomic.AddUint64(&a.counter, 1)
}
