// Package verify is an offline, non-hot-path tool for confirming a
// completed merged output file is well-formed: every line parses as
// JSON and its "u" field is present and strictly increasing. It is
// never imported by the ingest pipeline itself.
package verify

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sugawarayuuta/sonnet"
)

// Report summarizes one pass over a merged output file.
type Report struct {
	Lines      int
	LastU      uint64
	FirstError error
}

// File validates every line of r: each must unmarshal as JSON and carry
// a "u" field whose value is strictly greater than the previous line's.
// It does not stop at the first bad line; FirstError records the
// earliest failure while Lines still counts every line seen.
func File(r io.Reader) Report {
	var rep Report
	var last uint64

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for sc.Scan() {
		rep.Lines++
		line := sc.Bytes()

		// u is decoded straight into a uint64 field rather than via
		// map[string]interface{} (which would box every number as
		// float64 and lose precision above 2^53) so ids across the
		// full 64-bit range compare exactly.
		var doc struct {
			U *uint64 `json:"u"`
		}
		if err := sonnet.Unmarshal(line, &doc); err != nil {
			if rep.FirstError == nil {
				rep.FirstError = fmt.Errorf("line %d: invalid JSON: %w", rep.Lines, err)
			}
			continue
		}

		if doc.U == nil {
			if rep.FirstError == nil {
				rep.FirstError = fmt.Errorf("line %d: missing or non-numeric \"u\"", rep.Lines)
			}
			continue
		}
		u := *doc.U
		if rep.Lines > 1 && u <= last {
			if rep.FirstError == nil {
				rep.FirstError = fmt.Errorf("line %d: u=%d is not strictly greater than previous u=%d", rep.Lines, u, last)
			}
		}
		last = u
		rep.LastU = u
	}
	if err := sc.Err(); err != nil && rep.FirstError == nil {
		rep.FirstError = err
	}
	return rep
}
