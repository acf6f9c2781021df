package client

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Client talks to a local model server. Each call opens its own connection;
// the only shared state is the bound model name.
type Client struct {
	mu    sync.RWMutex
	model string

	cfg       Config
	transport Transport
	publisher EventPublisher
	log       zerolog.Logger
}

// New constructs a client bound to initialModel (may be empty) using package defaults.
// It makes one best-effort attempt to launch the server in the background.
func New(initialModel string) *Client {
	// Delegate to NewWithConfig to centralize defaults
	return NewWithConfig(Config{Model: initialModel})
}

// NewWithConfig constructs a Client from Config. Construction never fails: launcher
// errors are logged and published, and the first real call fails naturally if the
// server is unreachable.
func NewWithConfig(cfg Config) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		model:     cfg.Model,
		cfg:       cfg,
		publisher: cfg.Publisher,
		log:       cfg.Logger.With().Str("component", "client").Str("addr", cfg.Addr()).Logger(),
	}
	switch {
	case cfg.RoundTripper != nil:
		c.transport = cfg.RoundTripper
	case cfg.Transport == TransportHTTP:
		c.transport = NewHTTPTransport(cfg)
	default:
		c.transport = NewConnTransport(cfg)
	}

	launcher := cfg.Launcher
	if launcher == nil {
		launcher = NewProcessLauncher(DefaultServerBin, []string{"serve"}, cfg.Addr())
	}
	if pl, ok := launcher.(*ProcessLauncher); ok {
		pl.setPublisher(c.publisher)
		pl.setLogger(c.log)
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	if err := launcher.Launch(ctx); err != nil {
		c.log.Debug().Err(err).Msg("launch server")
		c.publisher.Publish(Event{Name: "launch_failed", Fields: map[string]any{"error": err.Error()}})
	}
	cancel()
	return c
}

// Model returns the bound model name.
func (c *Client) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// SwitchModel rebinds the model used by prompts that do not name one.
func (c *Client) SwitchModel(model string) {
	c.mu.Lock()
	prev := c.model
	c.model = model
	c.mu.Unlock()
	c.publisher.Publish(Event{Name: "model_switched", Model: model, Fields: map[string]any{"previous": prev}})
}

// Addr returns the server address this client targets.
func (c *Client) Addr() string { return c.cfg.Addr() }

// roundTrip executes one request, applying the request timeout and recording
// metrics, logs and events for the endpoint.
func (c *Client) roundTrip(ctx context.Context, endpoint string, req *Request, model string) (*Response, error) {
	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}
	callID := uuid.NewString()
	start := time.Now()
	resp, err := c.transport.RoundTrip(ctx, req)
	dur := time.Since(start)
	outcome := outcomeOf(err)
	observeRequest(endpoint, outcome, dur)
	if err != nil {
		c.log.Debug().Str("call_id", callID).Str("endpoint", endpoint).Str("model", model).Dur("dur", dur).Err(err).Msg("request failed")
		c.publisher.Publish(Event{Name: "request_failed", Model: model, Fields: map[string]any{"endpoint": endpoint, "call_id": callID, "outcome": outcome}})
		return nil, err
	}
	c.log.Debug().Str("call_id", callID).Str("endpoint", endpoint).Str("model", model).Int("status", resp.StatusCode).Dur("dur", dur).Msg("request done")
	c.publisher.Publish(Event{Name: "request_done", Model: model, Fields: map[string]any{"endpoint": endpoint, "call_id": callID, "status": resp.StatusCode}})
	return resp, nil
}

// outcomeOf classifies err into a low-cardinality metrics label.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsConnectionError(err):
		return "connection_error"
	case IsTransportError(err):
		return "transport_error"
	case IsProtocolError(err):
		return "protocol_error"
	default:
		return "error"
	}
}
