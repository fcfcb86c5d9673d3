package verify

import (
	"strings"
	"testing"
)

func TestFileAcceptsMonotonicOutput(t *testing.T) {
	in := `{"u":1,"T":1}` + "\n" + `{"u":2,"T":2}` + "\n" + `{"u":3,"T":3}` + "\n"
	rep := File(strings.NewReader(in))
	if rep.Lines != 3 {
		t.Fatalf("got %d lines, want 3", rep.Lines)
	}
	if rep.FirstError != nil {
		t.Fatalf("unexpected error: %v", rep.FirstError)
	}
	if rep.LastU != 3 {
		t.Fatalf("got LastU=%d, want 3", rep.LastU)
	}
}

func TestFileFlagsNonMonotonicU(t *testing.T) {
	in := `{"u":5,"T":1}` + "\n" + `{"u":3,"T":2}` + "\n"
	rep := File(strings.NewReader(in))
	if rep.FirstError == nil {
		t.Fatal("expected an error for decreasing u")
	}
}

func TestFileFlagsInvalidJSON(t *testing.T) {
	in := `not json` + "\n"
	rep := File(strings.NewReader(in))
	if rep.FirstError == nil {
		t.Fatal("expected an error for invalid JSON")
	}
}
