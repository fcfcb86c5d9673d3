package latencylogger

// appendInt writes the decimal ASCII representation of v (always
// non-negative per LatencyEvent.LatencyMillis) to the end of dst
// without allocating, mirroring the debug package's own hand-rolled
// itoa rather than reaching for strconv on this hot path.
func appendInt(dst []byte, v int64) []byte {
	if v == 0 {
		return append(dst, '0')
	}
	var tmp [20]byte
	i := len(tmp)
	for v > 0 {
		i--
		tmp[i] = byte('0' + v%10)
		v /= 10
	}
	return append(dst, tmp[i:]...)
}
