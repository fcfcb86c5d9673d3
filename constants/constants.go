// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go — Global Ingester Tunables & Parsing Probes
//
// Purpose:
//   - Defines process-wide constants for ring sizing, reorder tolerance,
//     syscall batching caps, and WebSocket defaults.
//   - Includes byte-scan probes for zero-alloc field detection in the
//     exchange's JSON payloads.
//
// Notes:
//   - Tuned for sub-millisecond hand-off latency and bounded reorder.
//   - Cache-friendly sizing with power-of-2 alignment where it matters.
//
// No runtime logic here — all values must be compile-time resolvable.
// ─────────────────────────────────────────────────────────────────────────────

package constants

import "time"

// ───────────────────────────── Ring sizing ────────────────────────────────

const (
	// RawRingSize is the capacity of each session's raw-update SPSC ring.
	// Power of two, sized to absorb several seconds of burst traffic
	// before the producer starts dropping (ring-full, never blocking).
	RawRingSize = 1 << 14 // 16384 slots

	// LatencyRingSize is the capacity of each session's latency-event
	// ring. Larger than RawRingSize since each slot is far smaller.
	LatencyRingSize = 1 << 16 // 65536 slots
)

// ───────────────────────────── Merger tuning ───────────────────────────────

const (
	// HoldBackWindow bounds how long the merger waits for an
	// out-of-order update before emitting the next ripe entry ahead of
	// it. Roughly 1-2 network RTT jitter for exchanges replicated over
	// K redundant connections.
	HoldBackWindow = 20 * time.Millisecond

	// MergerBatchPayloads caps how many payloads one vectored write
	// batches together before the merger flushes and yields.
	MergerBatchPayloads = 64
)

// ──────────────────────────── Logger tuning ────────────────────────────────

const (
	// LoggerBatchLines caps how many latency lines one vectored write
	// batches together per ring, per round-robin pass.
	LoggerBatchLines = 128
)

// ──────────────────────────── Backoff tuning ───────────────────────────────

const (
	BackoffInitial = 200 * time.Millisecond
	BackoffMax     = 5000 * time.Millisecond

	// SyncReadDeadline is the recurring read deadline sync sessions use
	// solely to re-check the stop signal while blocked in a read.
	SyncReadDeadline = 200 * time.Millisecond
)

// ─────────────────────────── CLI / wire defaults ───────────────────────────

const (
	DefaultURL    = "wss://stream.binance.com:9443/ws/btcusdt@bookTicker"
	DefaultOut    = "stream.ndjson"
	DefaultMode   = "async"
	DefaultN      = 2
	UserAgent     = "marketfeed/1.0"
	LatencyDir    = "latencies"
)

// ──────────────────────── WebSocket framing caps ───────────────────────────

const (
	// MaxFrameSize is not consulted by the frame reader; the per-frame
	// payload bound is types.MaxPayloadSize, the size of a ring slot.
	MaxFrameSize = 64 << 10 // 64 KiB

	// ReadBufSize is the size of the buffer FastConnect reads the
	// WebSocket upgrade response into.
	ReadBufSize = 128 << 10 // 128 KiB
)

// ────────────────────── JSON key probes for byte-scan parsing ─────────────

var (
	// These probes are used for unsafe JSON field detection in the
	// exchange's bookTicker payload. Each must be ASCII-safe so a plain
	// byte compare suffices.

	// KeyU probes for the "u" (update id) field.
	KeyU = [4]byte{'"', 'u', '"', ':'}

	// KeyT probes for the "T" (event time) field.
	KeyT = [4]byte{'"', 'T', '"', ':'}

	// KeyE probes for the "E" (emit time) field.
	KeyE = [4]byte{'"', 'E', '"', ':'}
)
