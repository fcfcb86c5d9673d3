// Package wire extracts the three hot-path fields — u, T, E — directly
// from a raw bookTicker payload with byte-scanning instead of a JSON
// unmarshal. Whitespace between a field's colon and its digits is
// tolerated; anything else aborts that field's scan.
package wire

import "github.com/codewanderer42820/marketfeed/constants"

// findKey returns the index just past the matching 4-byte key probe, or
// -1 if the probe is not present in b.
//
//go:nosplit
//go:inline
func findKey(b []byte, key [4]byte) int {
	if len(b) < 4 {
		return -1
	}
	last := len(b) - 4
	for i := 0; i <= last; i++ {
		if b[i] == key[0] && b[i+1] == key[1] && b[i+2] == key[2] && b[i+3] == key[3] {
			return i + 4
		}
	}
	return -1
}

// scanUint64 reads an unsigned decimal integer starting at b[i],
// skipping leading whitespace. Returns (value, ok).
//
//go:nosplit
func scanUint64(b []byte, i int) (uint64, bool) {
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	start := i
	var v uint64
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		v = v*10 + uint64(b[i]-'0')
		i++
	}
	if i == start {
		return 0, false
	}
	return v, true
}

// scanInt64 is scanUint64 with an optional leading '-'.
//
//go:nosplit
func scanInt64(b []byte, i int) (int64, bool) {
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	neg := false
	if i < len(b) && b[i] == '-' {
		neg = true
		i++
	}
	v, ok := scanUint64(b, i)
	if !ok {
		return 0, false
	}
	if neg {
		return -int64(v), true
	}
	return int64(v), true
}

// UpdateID extracts the "u" field (the exchange's total-order update
// id). ok is false if the field is absent or malformed.
//
//go:nosplit
func UpdateID(payload []byte) (u uint64, ok bool) {
	i := findKey(payload, constants.KeyU)
	if i < 0 {
		return 0, false
	}
	return scanUint64(payload, i)
}

// EventMillis extracts the event timestamp: field "T", falling back to
// field "E", else 0 with ok=false.
//
//go:nosplit
func EventMillis(payload []byte) (ms int64, ok bool) {
	if i := findKey(payload, constants.KeyT); i >= 0 {
		if v, ok2 := scanInt64(payload, i); ok2 {
			return v, true
		}
	}
	if i := findKey(payload, constants.KeyE); i >= 0 {
		if v, ok2 := scanInt64(payload, i); ok2 {
			return v, true
		}
	}
	return 0, false
}
