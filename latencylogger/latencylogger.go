// Package latencylogger drains every session's latency-event ring
// round-robin, formatting one ASCII millisecond integer per line and
// batching output into per-session files with vectored writes.
package latencylogger

import (
	"sync/atomic"
	"time"

	"github.com/codewanderer42820/marketfeed/constants"
	"github.com/codewanderer42820/marketfeed/ring"
	"github.com/codewanderer42820/marketfeed/types"
	"golang.org/x/sys/unix"
)

// Logger is the sole consumer of every LatencyEvent ring and the sole
// writer of every per-session .lat file.
type Logger struct {
	rings   []*ring.SpscRing[types.LatencyEvent]
	fds     []int
	running *uint32

	lineBufs [constants.LoggerBatchLines][24]byte

	// iovs is reused across every drainOne call; the hot loop never
	// allocates a batch, it only resets this to a zero length.
	iovs [][]byte
}

// New builds a logger over rings and their matching output file
// descriptors (rings[i] pairs with fds[i]). running is the process-wide
// "keep going" flag; the logger performs one final full drain once it
// observes running == 0.
func New(rings []*ring.SpscRing[types.LatencyEvent], fds []int, running *uint32) *Logger {
	return &Logger{
		rings:   rings,
		fds:     fds,
		running: running,
		iovs:    make([][]byte, 0, constants.LoggerBatchLines),
	}
}

// Run polls every ring round-robin until running is cleared, then
// drains whatever remains before returning.
func (l *Logger) Run() {
	for atomic.LoadUint32(l.running) != 0 {
		wrote := false
		for i := range l.rings {
			if l.drainOne(i) {
				wrote = true
			}
		}
		if !wrote {
			time.Sleep(time.Millisecond)
		}
	}
	for i := range l.rings {
		for l.drainOne(i) {
		}
	}
}

// drainOne drains up to LoggerBatchLines entries from ring i and
// performs at most one vectored write. Returns whether it wrote
// anything, so the caller can tell an idle ring from a busy one.
func (l *Logger) drainOne(i int) bool {
	r := l.rings[i]
	iovs := l.iovs[:0]
	n := 0

	for n < constants.LoggerBatchLines {
		e := r.Consume()
		if e == nil {
			break
		}
		buf := l.lineBufs[n][:0]
		buf = appendInt(buf, e.LatencyMillis())
		buf = append(buf, '\n')
		iovs = append(iovs, buf)
		r.Release(e)
		n++
	}

	if n == 0 {
		return false
	}

	if err := writevAll(l.fds[i], iovs); err != nil {
		panic("latencylogger: fatal write error: " + err.Error())
	}
	return true
}

func writevAll(fd int, iovs [][]byte) error {
	for len(iovs) > 0 {
		wn, err := unix.Writev(fd, iovs)
		if err != nil {
			if err == unix.EINTR || err == unix.EAGAIN {
				continue
			}
			return err
		}
		if wn == 0 {
			continue
		}
		iovs = advance(iovs, wn)
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
