package merger

import (
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/codewanderer42820/marketfeed/ring"
	"github.com/codewanderer42820/marketfeed/types"
)

func publish(t *testing.T, r *ring.SpscRing[types.RawUpdate], u uint64) {
	t.Helper()
	slot, ok := r.Acquire()
	if !ok {
		t.Fatal("ring exhausted in test setup")
	}
	payload := []byte(`{"u":` + strconv.FormatUint(u, 10) + `,"T":1}`)
	n := copy(slot.Buf[:], payload)
	slot.Len = n
	if !r.Publish(slot) {
		t.Fatal("publish failed in test setup")
	}
}

func tempOutFd(t *testing.T) (int, func() []byte) {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "merger-*.ndjson")
	if err != nil {
		t.Fatal(err)
	}
	return int(f.Fd()), func() []byte {
		f.Sync()
		b, _ := os.ReadFile(f.Name())
		f.Close()
		return b
	}
}

func TestSingleConnectionInOrder(t *testing.T) {
	r := ring.NewSpscRing[types.RawUpdate](256)
	for u := uint64(1); u <= 100; u++ {
		publish(t, r, u)
	}

	fd, read := tempOutFd(t)
	var stop uint32
	m := New([]*ring.SpscRing[types.RawUpdate]{r}, fd, &stop)

	m.ingest()
	time.Sleep(3 * time.Millisecond)
	m.drain()

	lines := strings.Split(strings.TrimRight(string(read()), "\n"), "\n")
	if len(lines) != 100 {
		t.Fatalf("got %d lines, want 100", len(lines))
	}
	for i, line := range lines {
		want := `{"u":` + strconv.Itoa(i+1) + `,"T":1}`
		if line != want {
			t.Fatalf("line %d: got %q, want %q", i, line, want)
		}
	}
}

func TestReorderedWithinWindow(t *testing.T) {
	r := ring.NewSpscRing[types.RawUpdate](256)
	for _, u := range []uint64{1, 3, 2, 4, 5} {
		publish(t, r, u)
	}

	fd, read := tempOutFd(t)
	var stop uint32
	m := New([]*ring.SpscRing[types.RawUpdate]{r}, fd, &stop)

	m.ingest()
	m.drain()

	lines := strings.Split(strings.TrimRight(string(read()), "\n"), "\n")
	want := []string{"1", "2", "3", "4", "5"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %v", len(lines), len(want), lines)
	}
	for i, line := range lines {
		u, _ := extractU(line)
		if u != want[i] {
			t.Fatalf("line %d: got u=%s, want %s", i, u, want[i])
		}
	}
}

func extractU(line string) (string, bool) {
	idx := strings.Index(line, `"u":`)
	if idx < 0 {
		return "", false
	}
	rest := line[idx+4:]
	end := strings.IndexByte(rest, ',')
	if end < 0 {
		end = strings.IndexByte(rest, '}')
	}
	return rest[:end], true
}

func TestDropsLateDuplicateBeyondLastEmitted(t *testing.T) {
	r := ring.NewSpscRing[types.RawUpdate](256)
	publish(t, r, 5)

	fd, read := tempOutFd(t)
	var stop uint32
	m := New([]*ring.SpscRing[types.RawUpdate]{r}, fd, &stop)

	m.ingest()
	m.drain()

	publish(t, r, 3) // arrives after 5 was already emitted
	m.ingest()
	m.drain()

	out := strings.TrimRight(string(read()), "\n")
	lines := strings.Split(out, "\n")
	if len(lines) != 1 {
		t.Fatalf("expected exactly the single ripe entry, got %v", lines)
	}
}

func TestSlotsReturnedToRingAfterEmit(t *testing.T) {
	r := ring.NewSpscRing[types.RawUpdate](16)
	for u := uint64(1); u <= 16; u++ {
		publish(t, r, u)
	}
	if _, ok := r.Acquire(); ok {
		t.Fatal("ring should be fully drained into ready")
	}

	fd, _ := tempOutFd(t)
	var stop uint32
	m := New([]*ring.SpscRing[types.RawUpdate]{r}, fd, &stop)
	m.ingest()
	m.drain()

	if _, ok := r.Acquire(); !ok {
		t.Fatal("expected slots released back to free after drain")
	}
}
