// Package session implements one connection's state machine:
// Connecting → Reading → Backoff → Connecting. Two scheduling wrappers
// (async.go, sync.go) share this file's FastConnect/ReadLoop core but
// differ in how they wait for I/O readiness.
package session

import (
	"context"
	"time"

	"github.com/codewanderer42820/marketfeed/backoff"
	"github.com/codewanderer42820/marketfeed/debug"
	"github.com/codewanderer42820/marketfeed/ring"
	"github.com/codewanderer42820/marketfeed/types"
	"github.com/codewanderer42820/marketfeed/urlutil"
	"github.com/codewanderer42820/marketfeed/wire"
	"github.com/codewanderer42820/marketfeed/wsproto"
)

// Counters are the cold-path reconnect/drop statistics a runner can
// sample for its shutdown summary; never written from more than one
// goroutine (this session's own).
type Counters struct {
	Reconnects uint64
	RawDrops   uint64
	LatDrops   uint64
}

// Session owns one connection's sockets and ring producer ends.
type Session struct {
	ID       int
	Endpoint urlutil.Endpoint
	RawRing  *ring.SpscRing[types.RawUpdate]
	LatRing  *ring.SpscRing[types.LatencyEvent]
	Stop     *uint32 // process-wide stop_signal, read with atomic.LoadUint32

	// Core is the CPU this session's dedicated thread should be pinned
	// to (sync mode only); -1 means no pin.
	Core int

	Counters Counters
}

// connectOnce runs FastConnect and reports the outcome via debug.StageError
// on failure, never panicking or returning the underlying conn to the
// caller in a half-usable state.
func (s *Session) connectOnce(ctx context.Context) (*wsproto.Conn, error) {
	conn, err := wsproto.FastConnect(ctx, s.Endpoint)
	if err != nil {
		if se, ok := err.(*wsproto.StageError); ok {
			debug.StageError(s.ID, se.Stage, se.Cause)
		} else {
			debug.StageError(s.ID, "connect", err)
		}
		return nil, err
	}
	return conn, nil
}

// readOne pulls one message off conn into a freshly acquired ring slot,
// stamps arrival/event times, and publishes both the raw update and the
// latency event. Ring-full conditions are dropped, never retried or
// blocked on.
func (s *Session) readOne(conn *wsproto.Conn) error {
	slot, ok := s.RawRing.Acquire()
	if !ok {
		// No free slot: still drain the socket into a scratch buffer so
		// the connection doesn't stall, but discard the result.
		s.Counters.RawDrops++
		var scratch types.RawUpdate
		_, err := wsproto.ReadMessage(conn, scratch.Buf[:])
		return err
	}

	n, err := wsproto.ReadMessage(conn, slot.Buf[:])
	if err != nil {
		s.RawRing.Release(slot)
		return err
	}
	slot.Len = n
	slot.Src = s.ID

	arrival := nowMillis()
	event, _ := wire.EventMillis(slot.Payload())

	if latSlot, ok := s.LatRing.Acquire(); ok {
		latSlot.Arrival = arrival
		latSlot.Event = event
		latSlot.Src = s.ID
		if !s.LatRing.Publish(latSlot) {
			s.LatRing.Release(latSlot)
		}
	} else {
		s.Counters.LatDrops++
	}

	if !s.RawRing.Publish(slot) {
		s.Counters.RawDrops++
		s.RawRing.Release(slot)
	}
	return nil
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// backoffWait sleeps per b.Next(), returning false if ctx is cancelled
// first (the caller should then stop reconnecting).
func backoffWait(ctx context.Context, b *backoff.Backoff) bool {
	return b.Wait(ctx) == nil
}
