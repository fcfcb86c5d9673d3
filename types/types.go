package types

// ============================================================================
// WIRE RECORD TYPES — fixed-size, pre-allocated, ring-recycled
// ============================================================================

// MaxPayloadSize bounds a single WebSocket text frame this process will
// accept. wsproto.ReadMessage rejects a larger frame with an error,
// which ends the session's read loop and leads to a reconnect.
const MaxPayloadSize = 8192

// RawUpdate holds one complete exchange payload inside a fixed-capacity
// buffer that is reused for the lifetime of the process. A session writes
// Len bytes into Buf, publishes the slot to its ring, and never touches it
// again until the consumer releases it back to the free ring.
//
//go:notinheap
//go:align 64
type RawUpdate struct {
	Buf [MaxPayloadSize]byte
	Len int

	// Src identifies which session produced this record. The merger
	// does not read it; it tracks the source ring in HeapEntry.src.
	Src int
}

// Payload returns the written portion of Buf.
func (r *RawUpdate) Payload() []byte {
	return r.Buf[:r.Len]
}

// Reset clears Len so a recycled slot never leaks a stale length if the
// next write is shorter than the previous one and some caller forgets to
// respect Len.
func (r *RawUpdate) Reset() {
	r.Len = 0
}

// LatencyEvent is a fixed-size pair of millisecond epoch timestamps
// recorded once per received message: when the session observed the
// frame (Arrival) and when the exchange says the event occurred (Event,
// parsed from payload field T, falling back to E, else 0).
type LatencyEvent struct {
	Arrival int64
	Event   int64
	Src     int
}

// LatencyMillis returns the non-negative latency sample this event
// represents.
func (e *LatencyEvent) LatencyMillis() int64 {
	d := e.Arrival - e.Event
	if d < 0 {
		return -d
	}
	return d
}

// SessionID identifies one of the K parallel connections to the
// exchange; also used as the index of its rings and its latency file.
type SessionID int
