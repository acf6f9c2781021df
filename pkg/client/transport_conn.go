package client

import (
	"context"
	"fmt"
	"io"
	"net"
)

// connTransport implements Transport over a raw TCP connection: the request is framed
// by net/http, the response is read until the server closes and split by SplitResponse.
type connTransport struct {
	addr   string
	dialer *net.Dialer
}

// NewConnTransport constructs a transport that reads each response until EOF.
func NewConnTransport(cfg Config) Transport {
	cfg = cfg.withDefaults()
	return &connTransport{addr: cfg.Addr(), dialer: &net.Dialer{Timeout: cfg.DialTimeout}}
}

func (t *connTransport) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	hr, err := newHTTPRequest(ctx, t.addr, req)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	conn, err := t.dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return nil, &ConnectionError{Addr: t.addr, Err: err}
	}
	defer conn.Close()
	// Unblock pending I/O when the context ends.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := hr.Write(conn); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, &TransportError{Op: "write", Err: err}
	}
	raw, err := io.ReadAll(conn)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, &TransportError{Op: "read", Err: err}
	}
	return SplitResponse(raw)
}
