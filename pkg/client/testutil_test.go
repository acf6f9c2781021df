package client

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"
)

// fakeTransport is an in-memory Transport returning a canned response.
type fakeTransport struct {
	mu   sync.Mutex
	resp *Response
	err  error
	reqs []*Request
}

func (f *fakeTransport) RoundTrip(ctx context.Context, req *Request) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func (f *fakeTransport) lastRequest() *Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reqs) == 0 {
		return nil
	}
	return f.reqs[len(f.reqs)-1]
}

// rawResponse builds a Response the way the conn transport would from wire bytes.
func rawResponse(t *testing.T, status string, body string) *Response {
	t.Helper()
	resp, err := SplitResponse([]byte("HTTP/1.1 " + status + "\r\nContent-Type: application/json\r\nConnection: close\r\n\r\n" + body))
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	return resp
}

// newTestClient returns a client over tr with launching disabled.
func newTestClient(t *testing.T, tr Transport, model string) (*Client, *MemoryPublisher) {
	t.Helper()
	pub := NewMemoryPublisher()
	c := NewWithConfig(Config{Model: model, RoundTripper: tr, Launcher: NoopLauncher{}, Publisher: pub})
	return c, pub
}

// closedAddr returns a loopback address nothing listens on.
func closedAddr(t *testing.T) (string, int) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()
	return "127.0.0.1", port
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}
