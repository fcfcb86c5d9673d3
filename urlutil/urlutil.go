// Package urlutil parses the one URL form this ingester accepts:
// wss://HOST[:PORT]/TARGET, applying the default port 443 and default
// target "/" when omitted. Generalizes the teacher's compile-time
// WsDialAddr/WsPath/WsHost split into a runtime parser, since the
// endpoint is now a CLI flag rather than a constant.
package urlutil

import (
	"fmt"
	"net/url"
)

// Endpoint is a decomposed wss:// URL ready for FastConnect.
type Endpoint struct {
	Host   string // for DNS resolve and TLS SNI
	Port   string // dial port
	Target string // WebSocket handshake path (+ query)
}

// Parse decomposes raw into an Endpoint, defaulting port to 443 and
// target to "/".
func Parse(raw string) (Endpoint, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("urlutil: %w", err)
	}
	if u.Scheme != "wss" {
		return Endpoint{}, fmt.Errorf("urlutil: unsupported scheme %q, want wss", u.Scheme)
	}
	if u.Hostname() == "" {
		return Endpoint{}, fmt.Errorf("urlutil: missing host in %q", raw)
	}

	port := u.Port()
	if port == "" {
		port = "443"
	}

	target := u.Path
	if target == "" {
		target = "/"
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}

	return Endpoint{
		Host:   u.Hostname(),
		Port:   port,
		Target: target,
	}, nil
}

// Addr returns "host:port" suitable for net.Dial.
func (e Endpoint) Addr() string {
	return e.Host + ":" + e.Port
}
