// Package merger reorders K sessions' raw update streams into one
// strictly-increasing, deduplicated, append-only file. It is the sole
// consumer of every session's raw ring and the sole writer of the
// merged output file descriptor.
//
// An update with u == 0 is never emitted: lastEmittedU starts at 0 and
// ingest drops every u <= lastEmittedU.
package merger

import (
	"container/heap"
	"sync/atomic"
	"time"

	"github.com/codewanderer42820/marketfeed/constants"
	"github.com/codewanderer42820/marketfeed/ring"
	"github.com/codewanderer42820/marketfeed/types"
	"github.com/codewanderer42820/marketfeed/wire"
	"golang.org/x/sys/unix"
)

// Merger owns every session's raw ring and the merged output fd.
type Merger struct {
	rings []*ring.SpscRing[types.RawUpdate]
	fd    int
	stop  *uint32

	lastEmittedU uint64
	h            entryHeap

	newline [1]byte

	// iovs and popped are reused across every flush call; the hot loop
	// never allocates a batch, it only resets these to a zero length.
	iovs   [][]byte
	popped []*HeapEntry
}

// New builds a merger over rings, indexed the same way sessions are
// (rings[i] belongs to session i). fd is the already-opened merged
// output file descriptor; stop is the process-wide stop signal.
func New(rings []*ring.SpscRing[types.RawUpdate], fd int, stop *uint32) *Merger {
	m := &Merger{rings: rings, fd: fd, stop: stop}
	m.newline[0] = '\n'
	m.iovs = make([][]byte, 0, 2*constants.MergerBatchPayloads)
	m.popped = make([]*HeapEntry, 0, constants.MergerBatchPayloads)
	heap.Init(&m.h)
	return m
}

// Run drives ingest/flush until stop is observed, then drains every
// ring and the heap before returning. It never blocks on a wakeup: a
// pass that leaves every ring and the heap empty sleeps 1ms so the
// polling thread doesn't spin the core at 100% when upstream is quiet.
func (m *Merger) Run() {
	for atomic.LoadUint32(m.stop) == 0 {
		m.ingest()
		m.flush(false)
		if m.idle() {
			time.Sleep(time.Millisecond)
		}
	}
	m.drain()
}

func (m *Merger) idle() bool {
	if m.h.Len() > 0 {
		return false
	}
	for _, r := range m.rings {
		if r.ReadyLen() > 0 {
			return false
		}
	}
	return true
}

// ingest drains every ring's currently-ready entries into the heap,
// parsing and validating u along the way.
func (m *Merger) ingest() {
	for src, r := range m.rings {
		for {
			buf := r.Consume()
			if buf == nil {
				break
			}
			u, ok := wire.UpdateID(buf.Payload())
			if !ok {
				r.Release(buf)
				continue
			}
			if u <= m.lastEmittedU {
				r.Release(buf)
				continue
			}
			heap.Push(&m.h, &HeapEntry{u: u, firstSeen: nowMonoNanos(), src: src, buf: buf})
		}
	}
}

// flush pops ripe heap entries into a batch and performs one vectored
// write. ignoreWindow disables the hold-back check, used during
// shutdown drain.
func (m *Merger) flush(ignoreWindow bool) {
	now := nowMonoNanos()

	iovs := m.iovs[:0]
	popped := m.popped[:0]

	for len(popped) < constants.MergerBatchPayloads && m.h.Len() > 0 {
		top := m.h[0]

		if top.u <= m.lastEmittedU {
			heap.Pop(&m.h)
			m.rings[top.src].Release(top.buf)
			continue
		}
		if !ignoreWindow && time.Duration(now-top.firstSeen) < constants.HoldBackWindow {
			break
		}

		heap.Pop(&m.h)
		iovs = append(iovs, top.buf.Payload(), m.newline[:])
		m.lastEmittedU = top.u
		popped = append(popped, top)
	}

	if len(iovs) == 0 {
		return
	}

	if err := writevAll(m.fd, iovs); err != nil {
		panic("merger: fatal write error: " + err.Error())
	}

	for _, e := range popped {
		m.rings[e.src].Release(e.buf)
	}
}

// drain repeats ingest/flush ignoring the hold-back window until every
// ring and the heap are empty, guaranteeing all in-flight entries are
// either emitted or released before the merger exits.
func (m *Merger) drain() {
	for {
		m.ingest()
		m.flush(true)
		if m.idle() {
			return
		}
	}
}

// monoBase anchors nowMonoNanos; time.Since reads the monotonic clock.
var monoBase = time.Now()

// nowMonoNanos returns monotonic nanoseconds elapsed since monoBase.
func nowMonoNanos() int64 { return int64(time.Since(monoBase)) }

func writevAll(fd int, iovs [][]byte) error {
	for len(iovs) > 0 {
		n, err := unix.Writev(fd, iovs)
		if err != nil {
			if err == unix.EINTR || err == unix.EAGAIN {
				continue
			}
			return err
		}
		if n == 0 {
			continue
		}
		iovs = advance(iovs, n)
	}
	return nil
}

func advance(iovs [][]byte, n int) [][]byte {
	for n > 0 && len(iovs) > 0 {
		if n < len(iovs[0]) {
			iovs[0] = iovs[0][n:]
			return iovs
		}
		n -= len(iovs[0])
		iovs = iovs[1:]
	}
	return iovs
}
