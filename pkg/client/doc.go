// Package client is a small client for a local model server (the Ollama HTTP API on
// loopback port 11434). It is structured into small files by concern:
//
//   - client.go: Client type, constructors, bound-model state.
//   - config.go: Config and package defaults.
//   - errors.go: error types and helpers (IsConnectionError, IsProtocolError, ...).
//   - transport.go: Transport interface, Request/Response, header/body splitting.
//   - transport_http.go, transport_conn.go: net/http and raw-connection transports.
//   - version.go, models.go, generate.go: the three API operations.
//   - launcher.go: best-effort background server launch.
//   - ready.go: opt-in readiness probe.
//   - events.go, metrics.go: lifecycle events and Prometheus instrumentation.
//
// Every call opens a fresh connection, sends one request with "Connection: close",
// reads until the server closes, and returns. There are no retries.
//
// Version is advisory and never fails; it degrades to descriptive sentinels such as
// VersionNotConnected. ListModels, Prompt and Generate return typed errors.
package client
