package scanning

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"
)

// DefaultProbeTimeout bounds the connectivity check before a scan.
const DefaultProbeTimeout = 2 * time.Second

// Connectivity reports whether the remote recognizer can be reached.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// DialProbe checks connectivity with a TCP dial to the remote host.
type DialProbe struct {
	address string
	timeout time.Duration
}

// NewDialProbe probes the host of endpoint, on the scheme's default port when
// the URL has none.
func NewDialProbe(endpoint string, timeout time.Duration) (*DialProbe, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint: %w", err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("endpoint %q has no host", endpoint)
	}
	port := u.Port()
	if port == "" {
		port = "443"
		if u.Scheme == "http" {
			port = "80"
		}
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &DialProbe{
		address: net.JoinHostPort(u.Hostname(), port),
		timeout: timeout,
	}, nil
}

// Online dials the remote host and closes the connection right away
func (p *DialProbe) Online(ctx context.Context) bool {
	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.address)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
