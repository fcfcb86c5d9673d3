// spscring.go
//
// SpscRing composes two Ring[T] halves — free and ready — into the
// acquire/publish/consume/release slot-recycling contract required on
// the receive hot path: a producer pulls a reusable *T from free,
// fills it in place, and publishes it to ready; a consumer pops it from
// ready, reads it, and returns it to free. No slot value is ever copied
// once recycling starts; only its address moves between the two rings.
package ring

// SpscRing recycles N pre-allocated values of T between one producer and
// one consumer. Capacity N must be a power of two (enforced by New).
type SpscRing[T any] struct {
	free  *Ring[T]
	ready *Ring[T]
	slots []T
}

// NewSpscRing allocates N slots of T and seeds the free ring with all of
// them.
func NewSpscRing[T any](n int) *SpscRing[T] {
	r := &SpscRing[T]{
		free:  New[T](n),
		ready: New[T](n),
		slots: make([]T, n),
	}
	for i := range r.slots {
		r.free.Push(&r.slots[i])
	}
	return r
}

// Acquire pulls one recycled slot from free, or returns (nil, false) if
// the producer has exhausted all N slots (the ring-full drop condition).
func (r *SpscRing[T]) Acquire() (*T, bool) {
	p := r.free.Pop()
	return p, p != nil
}

// Publish hands a filled slot to the consumer. False means ready was
// full — the caller must return the slot to free itself to avoid
// leaking it out of the recycling cycle.
func (r *SpscRing[T]) Publish(p *T) bool {
	return r.ready.Push(p)
}

// Consume pops the next ready slot, or nil if none is available yet.
func (r *SpscRing[T]) Consume() *T {
	return r.ready.Pop()
}

// Release returns a consumed slot to the free ring so a producer may
// reuse it. Never fails: free always has at least as much spare capacity
// as there are slots outside it.
func (r *SpscRing[T]) Release(p *T) {
	r.free.Push(p)
}

// ReadyLen and FreeLen are racy diagnostic counters; see Ring.Len.
func (r *SpscRing[T]) ReadyLen() int { return r.ready.Len() }
func (r *SpscRing[T]) FreeLen() int  { return r.free.Len() }
