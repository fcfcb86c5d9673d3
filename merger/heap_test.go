package merger

import (
	"container/heap"
	"testing"
)

func TestEntryHeapPopsInAscendingU(t *testing.T) {
	h := &entryHeap{}
	heap.Init(h)
	for _, u := range []uint64{5, 1, 4, 2, 3} {
		heap.Push(h, &HeapEntry{u: u})
	}

	var got []uint64
	for h.Len() > 0 {
		got = append(got, heap.Pop(h).(*HeapEntry).u)
	}

	want := []uint64{1, 2, 3, 4, 5}
	for i, u := range want {
		if got[i] != u {
			t.Fatalf("index %d: got %d, want %d", i, got[i], u)
		}
	}
}
