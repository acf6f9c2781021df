package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// httpTransport implements Transport on net/http with keep-alives disabled so every
// call owns its connection.
type httpTransport struct {
	addr       string
	httpClient *http.Client
}

// NewHTTPTransport constructs the net/http-backed transport. It is opt-in; the
// raw-connection transport is the default.
func NewHTTPTransport(cfg Config) Transport {
	cfg = cfg.withDefaults()
	addr := cfg.Addr()
	dialer := &net.Dialer{Timeout: cfg.DialTimeout}
	tr := &http.Transport{
		Proxy: nil,
		DialContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
			// Always dial the configured address; the request URL host is only cosmetic.
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, &ConnectionError{Addr: addr, Err: err}
			}
			if tap, ok := ctx.Value(wireTapKey{}).(*wireTap); ok {
				return &tappedConn{Conn: conn, tap: tap}, nil
			}
			return conn, nil
		},
		DisableKeepAlives:     true,
		DisableCompression:    true,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Intentionally set Timeout=0 here: all requests carry context-based deadlines.
	return &httpTransport{addr: addr, httpClient: &http.Client{Transport: tr, Timeout: 0}}
}

func (t *httpTransport) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	tap := &wireTap{}
	hr, err := newHTTPRequest(context.WithValue(ctx, wireTapKey{}, tap), t.addr, req)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := t.httpClient.Do(hr)
	if err != nil {
		return nil, tap.classify(ctx, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read", Err: err}
	}
	var head bytes.Buffer
	fmt.Fprintf(&head, "HTTP/%d.%d %s\r\n", resp.ProtoMajor, resp.ProtoMinor, resp.Status)
	_ = resp.Header.Write(&head)
	return &Response{
		StatusCode: resp.StatusCode,
		Head:       bytes.TrimRight(head.Bytes(), "\r\n"),
		Body:       body,
	}, nil
}

type wireTapKey struct{}

// wireTap records what crossed the connection of one request so a failed Do can
// be attributed to the write or read side, or to a malformed reply.
type wireTap struct {
	mu    sync.Mutex
	wrote int
	read  bytes.Buffer
}

func (w *wireTap) classify(ctx context.Context, err error) error {
	var ce *ConnectionError
	if errors.As(err, &ce) {
		return ce
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	op := "write"
	if w.wrote > 0 {
		op = "read"
	}
	if ctx.Err() != nil {
		return &TransportError{Op: op, Err: ctx.Err()}
	}
	if w.read.Len() == 0 {
		return &TransportError{Op: op, Err: err}
	}
	raw := bytes.Clone(w.read.Bytes())
	if !bytes.Contains(raw, []byte(headerBodySep)) {
		return &ProtocolError{Msg: "Invalid HTTP response (missing body)", Body: raw, Err: err}
	}
	return &ProtocolError{Msg: "Invalid HTTP response", Body: raw, Err: err}
}

type tappedConn struct {
	net.Conn
	tap *wireTap
}

func (c *tappedConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if n > 0 {
		c.tap.mu.Lock()
		c.tap.read.Write(p[:n])
		c.tap.mu.Unlock()
	}
	return n, err
}

func (c *tappedConn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	c.tap.mu.Lock()
	c.tap.wrote += n
	c.tap.mu.Unlock()
	return n, err
}
