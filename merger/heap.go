package merger

import "github.com/codewanderer42820/marketfeed/types"

// HeapEntry is one in-flight candidate for emission: the update id that
// orders it, when the merger first accepted it (for hold-back window
// accounting), which ring it must be released back to, and the moved-in
// buffer itself.
type HeapEntry struct {
	u         uint64
	firstSeen int64 // monotonic nanoseconds, from nowMonoNanos
	src       int
	buf       *types.RawUpdate
}

// entryHeap is a container/heap min-heap ordered by u, giving the
// merger O(log K·batches) access to the smallest not-yet-emitted
// update id across every session.
type entryHeap []*HeapEntry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].u < h[j].u }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x interface{}) { *h = append(*h, x.(*HeapEntry)) }
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
