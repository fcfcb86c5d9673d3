package merger

import (
	"bytes"
	"testing"

	"github.com/codewanderer42820/marketfeed/internal/verify"
	"github.com/codewanderer42820/marketfeed/ring"
	"github.com/codewanderer42820/marketfeed/types"
)

func TestMergedOutputPassesStructuralVerification(t *testing.T) {
	r := ring.NewSpscRing[types.RawUpdate](256)
	for _, u := range []uint64{1, 3, 2, 4, 5} {
		publish(t, r, u)
	}

	fd, read := tempOutFd(t)
	var stop uint32
	m := New([]*ring.SpscRing[types.RawUpdate]{r}, fd, &stop)
	m.ingest()
	m.drain()

	rep := verify.File(bytes.NewReader(read()))
	if rep.FirstError != nil {
		t.Fatalf("merged output failed structural verification: %v", rep.FirstError)
	}
	if rep.Lines != 5 {
		t.Fatalf("got %d lines, want 5", rep.Lines)
	}
}
