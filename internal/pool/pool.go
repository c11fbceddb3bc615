package pool

import (
	"errors"
	"sync"
)

var (
	// ErrInvalidHandle indicates a handle outside the pool's range.
	ErrInvalidHandle = errors.New("INVALID_HANDLE")

	// ErrNotAcquired indicates a release of a slot that is already free.
	ErrNotAcquired = errors.New("NOT_ACQUIRED")
)

// Pool is a fixed-capacity allocator of T slots. Slots are not zeroed on
// release; acquirers must initialize every field they rely on.
type Pool[T any] struct {
	mu    sync.Mutex
	slots []T
	used  []bool
	free  []uint16
}

// New creates a pool with the given capacity.
func New[T any](capacity int) *Pool[T] {
	p := &Pool[T]{
		slots: make([]T, capacity),
		used:  make([]bool, capacity),
		free:  make([]uint16, 0, capacity),
	}
	p.initFree()
	return p
}

func (p *Pool[T]) initFree() {
	p.free = p.free[:0]
	for i := len(p.slots) - 1; i >= 0; i-- {
		p.used[i] = false
		p.free = append(p.free, uint16(i))
	}
}

// Acquire returns an exclusive slot and its handle, or ok=false when the
// pool is exhausted.
func (p *Pool[T]) Acquire() (*T, uint16, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		return nil, 0, false
	}
	h := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.used[h] = true
	return &p.slots[h], h, true
}

// Release returns a slot to the free list. The caller must guarantee no
// scheduler activity still references the slot.
func (p *Pool[T]) Release(h uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if int(h) >= len(p.slots) {
		return ErrInvalidHandle
	}
	if !p.used[h] {
		return ErrNotAcquired
	}
	p.used[h] = false
	p.free = append(p.free, h)
	return nil
}

// Get returns the slot for a handle, or nil when the handle is out of
// range or the slot is free.
func (p *Pool[T]) Get(h uint16) *T {
	p.mu.Lock()
	defer p.mu.Unlock()

	if int(h) >= len(p.slots) || !p.used[h] {
		return nil
	}
	return &p.slots[h]
}

// HandleOf maps a slot reference back to its handle. ok=false means the
// reference does not lie within the pool.
func (p *Pool[T]) HandleOf(ref *T) (uint16, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.slots {
		if &p.slots[i] == ref {
			return uint16(i), true
		}
	}
	return 0, false
}

// Capacity returns the total slot count.
func (p *Pool[T]) Capacity() int {
	return len(p.slots)
}

// Free returns the number of unallocated slots.
func (p *Pool[T]) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Reset marks every slot free again.
func (p *Pool[T]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initFree()
}
