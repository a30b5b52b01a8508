package tracing

import (
	"sync/atomic"
)

// casMaxRetries bounds every compare-and-swap retry loop in this file, and
// the "wait for the head producer to finish filling" spin in PeekReady.
// Matches CAS_MAX_RETRIES from spec §6.
const casMaxRetries = 10

// ringElement is one cell of a JobRing: a payload plus an atomic ready flag.
// The producer writes the payload, then stores ready=true with release; the
// consumer loads ready with acquire before reading the payload. That
// acquire/release pair is the only happens-before edge the ring provides
// between a single producer and the consumer for that element.
type ringElement[T any] struct {
	data  T
	ready atomic.Bool
	_     [slotPoolCacheLine]byte
}

// JobRing is a fixed-capacity, lock-free, single-producer-friendly,
// multi-consumer-safe ring buffer. Its start/end/empty state is packed into
// one ringState word so head/tail movement and fullness transitions are
// atomic under a single CAS — this is what prevents the classic race where
// two consumers both observe "non-empty" and both advance.
type JobRing[T any] struct {
	state      atomic.Uint32
	emptyCount atomic.Int64
	elements   []*ringElement[T]
}

// NewJobRing constructs a ring of the given capacity, initially empty.
// capacity must fit the 15-bit start / 16-bit end packed fields (<= 32768);
// the concrete tracing runtime uses RingCapacity (500).
func NewJobRing[T any](capacity int) *JobRing[T] {
	if capacity <= 0 || capacity > 1<<15 {
		panic("tracing: job ring capacity must be in (0, 32768]")
	}
	r := &JobRing[T]{
		elements: make([]*ringElement[T], capacity),
	}
	for i := range r.elements {
		r.elements[i] = new(ringElement[T])
	}
	r.state.Store(uint32(packRingState(true, 0, 0)))
	r.emptyCount.Store(int64(capacity))
	return r
}

// Capacity returns the fixed number of elements in the ring.
func (r *JobRing[T]) Capacity() int {
	return len(r.elements)
}

// EmptyCount returns a best-effort estimate of the number of free (not yet
// reserved) elements.
func (r *JobRing[T]) EmptyCount() int {
	return int(r.emptyCount.Load())
}

// ReserveEmpty atomically advances end by one and returns the element at
// the old end, exclusively reserved for the calling producer to fill. The
// caller must write the payload and then call MarkReady on the returned
// element before any consumer may observe it.
//
// Returns KindAtomicRingBufferFull if the ring is currently full, or
// KindAtomicRingBufferMaxRetries if 10 consecutive CAS attempts all lost to
// contention.
func (r *JobRing[T]) ReserveEmpty() (*ringElement[T], error) {
	n := uint16(len(r.elements))
	for attempt := 0; attempt < casMaxRetries; attempt++ {
		old := ringState(r.state.Load())
		if old.isFull() {
			return nil, NewError(KindAtomicRingBufferFull, "ring is full")
		}
		_, start, end := old.unpack()
		newEnd := (end + 1) % n
		newState := packRingState(false, start, newEnd)
		if r.state.CompareAndSwap(uint32(old), uint32(newState)) {
			r.emptyCount.Add(-1)
			return r.elements[end], nil
		}
	}
	return nil, NewError(KindAtomicRingBufferMaxRetries, "reserve empty: exceeded %d CAS retries", casMaxRetries)
}

// PeekReady returns the element at the current start index iff its ready
// flag is observed true, without advancing start. If the ring is empty,
// returns KindAtomicRingBufferEmpty. If the head element is reserved but
// not yet marked ready, retries up to 10 times (waiting for the producer to
// finish filling it) before returning KindAtomicRingBufferMaxRetries.
func (r *JobRing[T]) PeekReady() (*ringElement[T], error) {
	for attempt := 0; attempt < casMaxRetries; attempt++ {
		state := ringState(r.state.Load())
		if state.isEmpty() {
			return nil, NewError(KindAtomicRingBufferEmpty, "ring is empty")
		}
		_, start, _ := state.unpack()
		elem := r.elements[start]
		if elem.ready.Load() {
			return elem, nil
		}
	}
	return nil, NewError(KindAtomicRingBufferMaxRetries, "peek ready: exceeded %d retries waiting for head producer", casMaxRetries)
}

// ReleaseHead advances start by one modulo capacity, setting empty=true iff
// the new start equals end. Returns false if the ring was empty, or if 10
// consecutive CAS attempts all lost to contention.
func (r *JobRing[T]) ReleaseHead() bool {
	n := uint16(len(r.elements))
	for attempt := 0; attempt < casMaxRetries; attempt++ {
		old := ringState(r.state.Load())
		if old.isEmpty() {
			return false
		}
		_, start, end := old.unpack()
		newStart := (start + 1) % n
		newState := packRingState(newStart == end, newStart, end)
		if r.state.CompareAndSwap(uint32(old), uint32(newState)) {
			r.emptyCount.Add(1)
			return true
		}
	}
	return false
}

// MarkReady stores elem's ready flag as true with release ordering, after
// the producer has finished writing its payload. Must be called exactly
// once per element returned by ReserveEmpty before any consumer call to
// PeekReady can observe it.
func (e *ringElement[T]) MarkReady() {
	e.ready.Store(true)
}

// Data returns a pointer to the element's payload, for the producer to fill
// (before MarkReady) or the consumer to read (after PeekReady/CAS-claim).
func (e *ringElement[T]) Data() *T {
	return &e.data
}

// clearReady transitions ready from true to false via a seq-cst CAS,
// reporting success. Used exclusively by the job processor's deallocate
// step, which relies on seq-cst ordering to serialize exactly one
// deallocation per ready edge across competing consumers (spec §4.5/§5).
func (e *ringElement[T]) clearReady() bool {
	return e.ready.CompareAndSwap(true, false)
}
