// sync.go — thread-per-connection blocking variant. One dedicated OS
// thread performs blocking reads with a recurring short deadline used
// solely to re-check the stop signal, mirroring the teacher's own
// processEventStream dial-then-loop shape but generalized to the
// reconnect/backoff state machine required here.
package session

import (
	"context"
	"fmt"
	"net"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/codewanderer42820/marketfeed/affinity"
	"github.com/codewanderer42820/marketfeed/backoff"
	"github.com/codewanderer42820/marketfeed/constants"
	"github.com/codewanderer42820/marketfeed/wsproto"
)

// RunSync drives the session on the calling goroutine's dedicated OS
// thread until *s.Stop is set. Intended to be launched as
// `go session.RunSync(ctx, s)`.
func RunSync(ctx context.Context, s *Session) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if s.Core >= 0 {
		_ = affinity.Pin(s.Core, fmt.Sprintf("session-%d", s.ID))
	}

	b := backoff.New()

	for atomic.LoadUint32(s.Stop) == 0 {
		conn, err := s.connectOnce(ctx)
		if err != nil {
			if !backoffWait(ctx, b) {
				return
			}
			continue
		}
		b.Reset()
		s.Counters.Reconnects++

		s.syncReadLoop(conn)
		conn.Close()

		if atomic.LoadUint32(s.Stop) != 0 {
			return
		}
		if !backoffWait(ctx, b) {
			return
		}
	}
}

func (s *Session) syncReadLoop(conn *wsproto.Conn) {
	for atomic.LoadUint32(s.Stop) == 0 {
		_ = conn.SetReadDeadline(time.Now().Add(constants.SyncReadDeadline))
		if err := s.readOne(conn); err != nil {
			if isTimeout(err) {
				continue
			}
			return
		}
	}
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
