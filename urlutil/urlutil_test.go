package urlutil

import "testing"

func TestParseDefaults(t *testing.T) {
	e, err := Parse("wss://stream.binance.com:9443/ws/btcusdt@bookTicker")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if e.Host != "stream.binance.com" || e.Port != "9443" || e.Target != "/ws/btcusdt@bookTicker" {
		t.Fatalf("got %+v", e)
	}
}

func TestParseMissingPortAndPath(t *testing.T) {
	e, err := Parse("wss://example.com")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if e.Port != "443" || e.Target != "/" {
		t.Fatalf("got %+v, want port 443 target /", e)
	}
	if e.Addr() != "example.com:443" {
		t.Fatalf("Addr() = %q", e.Addr())
	}
}

func TestParseRejectsWrongScheme(t *testing.T) {
	if _, err := Parse("https://example.com"); err == nil {
		t.Fatal("expected error for non-wss scheme")
	}
}

func TestParseRejectsMissingHost(t *testing.T) {
	if _, err := Parse("wss:///path"); err == nil {
		t.Fatal("expected error for missing host")
	}
}
