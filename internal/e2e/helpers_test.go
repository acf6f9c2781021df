package e2e

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"ollamactl/internal/httpapi"
	"ollamactl/pkg/client"
)

// fakeOllama mimics the three endpoints the client uses and records generate bodies.
type fakeOllama struct {
	mu        sync.Mutex
	generated []map[string]any
	hosts     []string
	ndjson    bool
}

func (f *fakeOllama) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/version", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		_, _ = w.Write([]byte(`{"version":"0.5.7"}`))
	})
	mux.HandleFunc("GET /api/tags", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:latest","size":2019393189},{"name":"mistral:latest"}]}`))
	})
	mux.HandleFunc("POST /api/generate", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.generated = append(f.generated, body)
		ndjson := f.ndjson
		f.mu.Unlock()
		model, _ := body["model"].(string)
		if model == "missing" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"model 'missing' not found"}`))
			return
		}
		prompt, _ := body["prompt"].(string)
		if ndjson {
			_, _ = w.Write([]byte(`{"response":"echo: "}` + "\n" + `{"response":"` + prompt + `","done":true}` + "\n"))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"model": model, "response": "echo: " + prompt, "done": true})
	})
	return mux
}

func (f *fakeOllama) record(r *http.Request) {
	f.mu.Lock()
	f.hosts = append(f.hosts, r.Host)
	f.mu.Unlock()
}

func (f *fakeOllama) lastGenerate() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.generated) == 0 {
		return nil
	}
	return f.generated[len(f.generated)-1]
}

// newStack starts a fake model server and a gateway in front of a client for it.
func newStack(t *testing.T, transport, model string) (*fakeOllama, *client.Client, *httptest.Server) {
	t.Helper()
	fake := &fakeOllama{}
	upstream := httptest.NewServer(fake.handler())
	t.Cleanup(upstream.Close)
	host, port := splitHostPort(t, upstream.Listener.Addr().String())
	c := client.NewWithConfig(client.Config{
		Model:     model,
		Host:      host,
		Port:      port,
		Transport: transport,
		Launcher:  client.NoopLauncher{},
	})
	return fake, c, newGateway(t, c)
}

func splitHostPort(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, p, err := net.SplitHostPort(addr)
	if err != nil { t.Fatalf("split %q: %v", addr, err) }
	port, err := strconv.Atoi(p)
	if err != nil { t.Fatalf("port %q: %v", p, err) }
	return host, port
}

func postJSON(t *testing.T, url, method, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil { t.Fatalf("new req: %v", err) }
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil { t.Fatalf("do req: %v", err) }
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func newGateway(t *testing.T, c *client.Client) *httptest.Server {
	t.Helper()
	gw := httptest.NewServer(httpapi.NewMux(c))
	t.Cleanup(gw.Close)
	return gw
}

// closedPort returns a loopback port nothing listens on.
func closedPort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil { t.Fatalf("listen: %v", err) }
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()
	return port
}
