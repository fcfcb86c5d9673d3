package ring

import "testing"

// TestSpscRingAcquirePublishConsumeRelease exercises one full lifecycle
// of a slot and checks conservation of the N-slot budget throughout.
func TestSpscRingAcquirePublishConsumeRelease(t *testing.T) {
	const n = 4
	r := NewSpscRing[[8]byte](n)

	if got := r.FreeLen(); got != n {
		t.Fatalf("FreeLen() = %d, want %d", got, n)
	}

	slot, ok := r.Acquire()
	if !ok {
		t.Fatal("Acquire failed on a fresh ring")
	}
	slot[0] = 0x42

	if !r.Publish(slot) {
		t.Fatal("Publish failed with ready ring empty")
	}
	if got := r.ReadyLen(); got != 1 {
		t.Fatalf("ReadyLen() = %d, want 1", got)
	}

	got := r.Consume()
	if got == nil || got[0] != 0x42 {
		t.Fatalf("Consume() = %v, want slot with 0x42", got)
	}

	r.Release(got)
	if got := r.FreeLen(); got != n {
		t.Fatalf("FreeLen() after release = %d, want %d", got, n)
	}
}

// TestSpscRingAcquireFailsWhenExhausted drains every slot and confirms
// Acquire reports failure rather than blocking.
func TestSpscRingAcquireFailsWhenExhausted(t *testing.T) {
	const n = 2
	r := NewSpscRing[[8]byte](n)

	for i := 0; i < n; i++ {
		if _, ok := r.Acquire(); !ok {
			t.Fatalf("Acquire %d unexpectedly failed", i)
		}
	}
	if _, ok := r.Acquire(); ok {
		t.Fatal("Acquire on exhausted ring should fail")
	}
}

// TestSpscRingSlotConservation pushes and releases slots in a loop and
// checks free+ready is always exactly N, mirroring the slot-conservation
// invariant the merger and sessions rely on.
func TestSpscRingSlotConservation(t *testing.T) {
	const n = 8
	r := NewSpscRing[[8]byte](n)

	for round := 0; round < 100; round++ {
		var acquired []*[8]byte
		for {
			s, ok := r.Acquire()
			if !ok {
				break
			}
			acquired = append(acquired, s)
		}
		if got := r.FreeLen() + r.ReadyLen() + len(acquired); got != n {
			t.Fatalf("round %d: free+ready+inflight = %d, want %d", round, got, n)
		}
		for _, s := range acquired {
			r.Publish(s)
		}
		for {
			s := r.Consume()
			if s == nil {
				break
			}
			r.Release(s)
		}
		if got := r.FreeLen(); got != n {
			t.Fatalf("round %d: FreeLen() = %d, want %d after drain", round, got, n)
		}
	}
}
