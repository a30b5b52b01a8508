package tracing

import (
	"sync/atomic"
)

// slotPoolCacheLine pads a slot so consecutive slots in the backing array do
// not share a cache line, the same rationale as the original's
// alignas(64) std::array<AtomicContainerElement, N>.
const slotPoolCacheLine = 64

// slot is one cell of a SlotPool: a payload plus an atomic occupancy flag.
// All transitions of occupied happen via CAS, acquire-release ordered, per
// spec §3/§4.1.
type slot[T any] struct {
	data     T
	occupied atomic.Bool
	_        [slotPoolCacheLine]byte // cache-line padding, see slotPoolCacheLine
}

// SlotPool is a fixed-capacity pool of slots supporting lock-free
// acquire/release. Acquire never double-hands-out a slot; Release is
// idempotent on an already-free slot. empty_count and next_hint are
// best-effort hints: correctness never depends on their exact value.
//
// Go has no const-generic array length, so capacity is supplied to
// NewSlotPool instead of being a type parameter (the idiomatic substitute
// for the original's AtomicContainerSize non-type template parameter).
type SlotPool[T any] struct {
	slots      []*slot[T]
	nextHint   atomic.Uint64
	emptyCount atomic.Int64
}

// NewSlotPool constructs a pool of the given capacity with all slots free.
// Panics if capacity <= 0.
func NewSlotPool[T any](capacity int) *SlotPool[T] {
	if capacity <= 0 {
		panic("tracing: slot pool capacity must be > 0")
	}
	p := &SlotPool[T]{
		slots: make([]*slot[T], capacity),
	}
	for i := range p.slots {
		p.slots[i] = new(slot[T])
	}
	p.emptyCount.Store(int64(capacity))
	return p
}

// Capacity returns the fixed number of slots in the pool.
func (p *SlotPool[T]) Capacity() int {
	return len(p.slots)
}

// EmptyCount returns a best-effort estimate of the number of free slots. It
// may lag concurrent acquire/release activity by the number of in-flight
// CASes; callers must not depend on its exact value for correctness.
func (p *SlotPool[T]) EmptyCount() int {
	return int(p.emptyCount.Load())
}

// Acquire claims a free slot and returns a pointer to its payload, or nil if
// no free slot could be claimed within one full scan starting at the
// current hint. Never double-hands-out a slot under contention; may
// spuriously return nil under contention even when a slot is concurrently
// released.
func (p *SlotPool[T]) Acquire() *T {
	if p.emptyCount.Load() == 0 {
		return nil
	}

	n := len(p.slots)
	start := int(p.nextHint.Load()) % n
	for i := 0; i < n; i++ {
		index := (start + i) % n
		s := p.slots[index]
		if s.occupied.CompareAndSwap(false, true) {
			p.emptyCount.Add(-1)
			p.nextHint.Store(uint64((index + 1) % n)) // hint only, relaxed is fine
			return &s.data
		}
	}
	return nil
}

// Release transitions the slot holding payload (matched by value equality)
// back to free. A no-op if no occupied slot's payload equals payload.
func (p *SlotPool[T]) Release(payload T, equal func(a, b T) bool) {
	for _, s := range p.slots {
		if s.occupied.Load() && equal(s.data, payload) {
			if s.occupied.CompareAndSwap(true, false) {
				p.emptyCount.Add(1)
				return
			}
		}
	}
}

// ReleaseIndex transitions the slot at index back to free directly. Ignores
// out-of-range indexes (no mutation). A no-op if the slot was already free.
func (p *SlotPool[T]) ReleaseIndex(index int) {
	if index < 0 || index >= len(p.slots) {
		return
	}
	s := p.slots[index]
	if s.occupied.CompareAndSwap(true, false) {
		p.emptyCount.Add(1)
	}
}

// FindIf returns a pointer to the first occupied slot whose payload
// satisfies pred, or nil if none match. A concurrent Release during the
// scan may hide a candidate; the result, if non-nil, was occupied at the
// instant of inspection.
func (p *SlotPool[T]) FindIf(pred func(*T) bool) *T {
	for _, s := range p.slots {
		if s.occupied.Load() && pred(&s.data) {
			return &s.data
		}
	}
	return nil
}

// IsFreeAt reports whether the slot at index is currently free. Panics if
// index is out of bounds (programmer error, per spec §4.1).
func (p *SlotPool[T]) IsFreeAt(index int) bool {
	return !p.slots[index].occupied.Load()
}

// IndexOf returns the index of the slot whose payload pointer is ptr, or -1
// if ptr does not point into this pool's backing storage.
func (p *SlotPool[T]) IndexOf(ptr *T) int {
	for i, s := range p.slots {
		if &s.data == ptr {
			return i
		}
	}
	return -1
}

// ForEachOccupied calls fn once for every currently occupied slot's
// payload, in index order. A concurrent Acquire/Release during the scan
// may include or exclude a slot that transitioned mid-scan; callers that
// need a point-in-time view must provide their own external
// synchronization.
func (p *SlotPool[T]) ForEachOccupied(fn func(*T)) {
	for _, s := range p.slots {
		if s.occupied.Load() {
			fn(&s.data)
		}
	}
}
