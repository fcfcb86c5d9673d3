package session

import (
	"net"
	"testing"

	"github.com/codewanderer42820/marketfeed/ring"
	"github.com/codewanderer42820/marketfeed/types"
	"github.com/codewanderer42820/marketfeed/urlutil"
	"github.com/codewanderer42820/marketfeed/wsproto"
)

func buildUnmaskedTextFrame(payload []byte) []byte {
	hdr := []byte{0x81, byte(len(payload))}
	return append(hdr, payload...)
}

func newTestSession() (*Session, *uint32) {
	var stop uint32
	s := &Session{
		ID:       0,
		Endpoint: urlutil.Endpoint{Host: "example.invalid", Port: "443", Target: "/"},
		RawRing:  ring.NewSpscRing[types.RawUpdate](16),
		LatRing:  ring.NewSpscRing[types.LatencyEvent](16),
		Stop:     &stop,
		Core:     -1,
	}
	return s, &stop
}

func TestReadOnePublishesRawAndLatency(t *testing.T) {
	s, _ := newTestSession()

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	payload := []byte(`{"u":7,"T":5}`)
	go server.Write(buildUnmaskedTextFrame(payload))

	if err := s.readOne(&wsproto.Conn{Conn: client}); err != nil {
		t.Fatalf("readOne failed: %v", err)
	}

	raw := s.RawRing.Consume()
	if raw == nil {
		t.Fatal("expected a published raw update")
	}
	if string(raw.Payload()) != string(payload) {
		t.Fatalf("got %q, want %q", raw.Payload(), payload)
	}

	lat := s.LatRing.Consume()
	if lat == nil {
		t.Fatal("expected a published latency event")
	}
	if lat.Event != 5 {
		t.Fatalf("got event=%d, want 5", lat.Event)
	}
}

func TestReadOneDropsWhenRawRingExhausted(t *testing.T) {
	s, _ := newTestSession()
	for {
		if _, ok := s.RawRing.Acquire(); !ok {
			break
		}
	}

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go server.Write(buildUnmaskedTextFrame([]byte(`{"u":1}`)))

	if err := s.readOne(&wsproto.Conn{Conn: client}); err != nil {
		t.Fatalf("readOne should still drain the socket: %v", err)
	}
	if s.Counters.RawDrops != 1 {
		t.Fatalf("got RawDrops=%d, want 1", s.Counters.RawDrops)
	}
}
