// async.go — reactor-driven cooperative variant. The session's read
// loop never blocks a dedicated OS thread; it suspends on the
// reactor's readiness channel between reads and yields back to the Go
// scheduler like every other task the reactor hosts.
package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/codewanderer42820/marketfeed/backoff"
	"github.com/codewanderer42820/marketfeed/reactor"
	"github.com/codewanderer42820/marketfeed/wsproto"
)

// AsyncTask adapts a Session to reactor.Task.
type AsyncTask struct {
	S   *Session
	Ctx context.Context
}

// Run implements reactor.Task. It reconnects and re-registers with the
// reactor across drops until stop fires or *S.Stop is set.
func (a *AsyncTask) Run(r *reactor.Reactor, stop <-chan struct{}) {
	s := a.S
	b := backoff.New()

	for atomic.LoadUint32(s.Stop) == 0 {
		select {
		case <-stop:
			return
		default:
		}

		conn, err := s.connectOnce(a.Ctx)
		if err != nil {
			if !asyncBackoffWait(a.Ctx, stop, b) {
				return
			}
			continue
		}
		b.Reset()
		s.Counters.Reconnects++

		a.asyncReadLoop(r, conn, stop)
		conn.Close()

		if atomic.LoadUint32(s.Stop) != 0 {
			return
		}
		if !asyncBackoffWait(a.Ctx, stop, b) {
			return
		}
	}
}

// asyncReadLoop waits for the connection's fd to be readable before
// each read, suspending the goroutine rather than blocking the
// reactor's OS thread. A negative fd (readiness source unavailable)
// falls back to a direct blocking read.
func (a *AsyncTask) asyncReadLoop(r *reactor.Reactor, conn *wsproto.Conn, stop <-chan struct{}) {
	s := a.S
	fd := conn.Fd()
	for atomic.LoadUint32(s.Stop) == 0 {
		if fd >= 0 {
			select {
			case <-r.WaitReadable(fd):
			case <-stop:
				return
			}
		}
		if err := s.readOne(conn); err != nil {
			return
		}
	}
}

func asyncBackoffWait(ctx context.Context, stop <-chan struct{}, b *backoff.Backoff) bool {
	timer := time.NewTimer(b.Next())
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-stop:
		return false
	case <-ctx.Done():
		return false
	}
}
