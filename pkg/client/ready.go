package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultReadyInterval = 100 * time.Millisecond
	pingTimeout          = time.Second
)

// Ping probes the version endpoint once and returns nil on a 2xx status.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	resp, err := c.transport.RoundTrip(ctx, &Request{Method: http.MethodGet, Path: "/api/version"})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

// WaitReady polls the version endpoint until it answers with a 2xx status or ctx ends.
// Construction never calls it; callers that need the server up before the first real
// call opt in explicitly.
func (c *Client) WaitReady(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultReadyInterval
	}
	for {
		err := c.Ping(ctx)
		if err == nil {
			c.publisher.Publish(Event{Name: "server_ready", Fields: map[string]any{"addr": c.Addr()}})
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("server not ready at %s: %w (last: %v)", c.Addr(), ctx.Err(), err)
		case <-time.After(interval):
		}
	}
}
