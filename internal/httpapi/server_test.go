package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ollamactl/pkg/client"
	"ollamactl/pkg/types"
)

type mockService struct {
	mu        sync.Mutex
	version   string
	models    []types.ModelDescriptor
	modelsErr error
	reply     string
	promptErr error
	pingErr   error
	model     string

	gotModel  string
	gotPrompt string
}

func (m *mockService) Version(ctx context.Context) string { return m.version }
func (m *mockService) ListModels(ctx context.Context) ([]types.ModelDescriptor, error) {
	return append([]types.ModelDescriptor(nil), m.models...), m.modelsErr
}
func (m *mockService) Prompt(ctx context.Context, model, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotModel, m.gotPrompt = model, text
	if m.promptErr != nil { return "", m.promptErr }
	if model == "" { return "", client.ErrNoModelSelected }
	return m.reply, nil
}
func (m *mockService) SwitchModel(model string) { m.mu.Lock(); m.model = model; m.mu.Unlock() }
func (m *mockService) Model() string          { m.mu.Lock(); defer m.mu.Unlock(); return m.model }
func (m *mockService) Ping(ctx context.Context) error { return m.pingErr }

func postJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var e types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil { t.Fatalf("json: %v body=%q", err, w.Body.String()) }
	return e
}

func TestVersionHandler(t *testing.T) {
	r := NewMux(&mockService{version: "0.5.7"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))
	if w.Code != http.StatusOK { t.Fatalf("status=%d", w.Code) }
	var body types.VersionInfo
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil { t.Fatalf("json: %v", err) }
	if body.Version != "0.5.7" { t.Fatalf("version=%q", body.Version) }
}

func TestVersionHandler_SentinelStill200(t *testing.T) {
	r := NewMux(&mockService{version: client.VersionNotConnected})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))
	if w.Code != http.StatusOK { t.Fatalf("status=%d", w.Code) }
	if !strings.Contains(w.Body.String(), "not connected") { t.Fatalf("body=%q", w.Body.String()) }
}

func TestModelsHandler(t *testing.T) {
	svc := &mockService{models: []types.ModelDescriptor{{Name: "llama3.2:latest"}, {Name: "mistral:latest"}}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models", nil))
	if w.Code != http.StatusOK { t.Fatalf("status=%d", w.Code) }
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") { t.Fatalf("content-type=%s", ct) }
	var body types.ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil { t.Fatalf("json: %v", err) }
	if len(body.Models) != 2 || body.Models[1].Name != "mistral:latest" { t.Fatalf("models=%+v", body.Models) }
}

func TestModelsHandler_EmptyListIsArray(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models", nil))
	if !strings.Contains(w.Body.String(), `"models":[]`) { t.Fatalf("body=%q", w.Body.String()) }
}

func TestModelsHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"connection", &client.ConnectionError{Addr: "127.0.0.1:11434", Err: errors.New("refused")}, http.StatusServiceUnavailable},
		{"protocol", &client.ProtocolError{Msg: "Invalid models format in response"}, http.StatusBadGateway},
		{"transport", &client.TransportError{Op: "read", Err: io.ErrUnexpectedEOF}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewMux(&mockService{modelsErr: tc.err})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/models", nil))
			if w.Code != tc.want { t.Fatalf("status=%d want %d", w.Code, tc.want) }
			e := decodeError(t, w)
			if e.Code != tc.want || e.Error != tc.err.Error() { t.Fatalf("error body=%+v", e) }
		})
	}
}

func TestPromptHandler(t *testing.T) {
	svc := &mockService{reply: "Because of Rayleigh scattering."}
	r := NewMux(svc)
	w := postJSON(t, r, http.MethodPost, "/prompt", `{"model":"llama3.2","prompt":"Why is the sky blue?"}`)
	if w.Code != http.StatusOK { t.Fatalf("status=%d body=%s", w.Code, w.Body.String()) }
	var body types.PromptResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil { t.Fatalf("json: %v", err) }
	if body.Model != "llama3.2" || body.Response != "Because of Rayleigh scattering." { t.Fatalf("body=%+v", body) }
	if svc.gotPrompt != "Why is the sky blue?" { t.Fatalf("prompt=%q", svc.gotPrompt) }
}

func TestPromptHandler_UsesBoundModel(t *testing.T) {
	svc := &mockService{reply: "ok", model: "mistral"}
	w := postJSON(t, NewMux(svc), http.MethodPost, "/prompt", `{"prompt":"hi"}`)
	if w.Code != http.StatusOK { t.Fatalf("status=%d", w.Code) }
	if svc.gotModel != "mistral" { t.Fatalf("model=%q", svc.gotModel) }
}

func TestPromptHandler_NoModelIs400(t *testing.T) {
	w := postJSON(t, NewMux(&mockService{}), http.MethodPost, "/prompt", `{"prompt":"hi"}`)
	if w.Code != http.StatusBadRequest { t.Fatalf("status=%d", w.Code) }
	if e := decodeError(t, w); e.Error != client.ErrNoModelSelected.Error() { t.Fatalf("error=%q", e.Error) }
}

func TestPromptHandler_EmptyResponseIs502(t *testing.T) {
	svc := &mockService{promptErr: &client.EmptyResponseError{Body: []byte(`{"done":true}`)}}
	w := postJSON(t, NewMux(svc), http.MethodPost, "/prompt", `{"model":"m","prompt":"hi"}`)
	if w.Code != http.StatusBadGateway { t.Fatalf("status=%d", w.Code) }
	if e := decodeError(t, w); !strings.Contains(e.Error, "no 'response' field") { t.Fatalf("error=%q", e.Error) }
}

func TestPromptHandler_Validation(t *testing.T) {
	r := NewMux(&mockService{reply: "x"})

	w := postJSON(t, r, http.MethodPost, "/prompt", "not-json")
	if w.Code != http.StatusBadRequest { t.Fatalf("bad json status=%d", w.Code) }

	w = postJSON(t, r, http.MethodPost, "/prompt", `{"model":"m","prompt":"   "}`)
	if w.Code != http.StatusBadRequest { t.Fatalf("blank prompt status=%d", w.Code) }
	if e := decodeError(t, w); e.Error != "prompt is required" { t.Fatalf("error=%q", e.Error) }

	req := httptest.NewRequest(http.MethodPost, "/prompt", strings.NewReader(`{"prompt":"hi"}`))
	req.Header.Set("Content-Type", "text/plain")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType { t.Fatalf("content-type status=%d", w.Code) }
}

func TestPromptHandler_BodyTooLarge(t *testing.T) {
	r := NewMux(&mockService{reply: "x"})
	big := bytes.Repeat([]byte("a"), (1<<20)+10)
	req := httptest.NewRequest(http.MethodPost, "/prompt", bytes.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest { t.Fatalf("expected 400 for too-large body, got %d", w.Code) }
}

func TestModelSelection(t *testing.T) {
	svc := &mockService{model: "llama3.2"}
	r := NewMux(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/model", nil))
	if !strings.Contains(w.Body.String(), `"model":"llama3.2"`) { t.Fatalf("body=%q", w.Body.String()) }

	w = postJSON(t, r, http.MethodPut, "/model", `{"model":"mistral"}`)
	if w.Code != http.StatusNoContent { t.Fatalf("status=%d", w.Code) }
	if svc.Model() != "mistral" { t.Fatalf("model=%q", svc.Model()) }

	w = postJSON(t, r, http.MethodPut, "/model", `{"model":`)
	if w.Code != http.StatusBadRequest { t.Fatalf("status=%d", w.Code) }
}

func TestHealthAndReady(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK { t.Fatalf("healthz status=%d", w.Code) }

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ready" { t.Fatalf("readyz=%d %q", w.Code, w.Body.String()) }

	r = NewMux(&mockService{pingErr: &client.ConnectionError{Addr: "x", Err: errors.New("refused")}})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable { t.Fatalf("readyz status=%d", w.Code) }
}

func TestSecurityHeader(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Header().Get("X-Content-Type-Options") != "nosniff" { t.Fatalf("missing nosniff header") }
}

func TestCORS_OptIn(t *testing.T) {
	t.Cleanup(func() { SetCORSOrigins(nil) })
	preflight := func(h http.Handler) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/prompt", nil)
		req.Header.Set("Origin", "http://app.local")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}
	if w := preflight(NewMux(&mockService{})); w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("CORS headers present without configuration")
	}
	SetCORSOrigins([]string{"http://app.local"})
	if w := preflight(NewMux(&mockService{})); w.Header().Get("Access-Control-Allow-Origin") != "http://app.local" {
		t.Fatalf("allow-origin=%q", w.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestSwaggerDocServed(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	if w.Code != http.StatusOK { t.Fatalf("status=%d", w.Code) }
	if !strings.Contains(w.Body.String(), `"/prompt"`) { t.Fatalf("doc missing /prompt path") }
}

type blockingService struct {
	mockService
	started chan struct{}
}

func (b *blockingService) Prompt(ctx context.Context, model, text string) (string, error) {
	close(b.started)
	<-ctx.Done()
	return "", ctx.Err()
}

func TestPrompt_CanceledByBaseContext(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	SetBaseContext(base)
	t.Cleanup(func() { SetBaseContext(nil) })

	svc := &blockingService{started: make(chan struct{})}
	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- postJSON(t, NewMux(svc), http.MethodPost, "/prompt", `{"model":"m","prompt":"hi"}`) }()
	<-svc.started
	cancel()
	select {
	case w := <-done:
		if w.Body.Len() != 0 { t.Fatalf("expected no body after shutdown, got %q", w.Body.String()) }
	case <-time.After(2 * time.Second):
		t.Fatalf("handler did not return after base context cancel")
	}
}

func TestUpstreamTimeout(t *testing.T) {
	SetUpstreamTimeout(20 * time.Millisecond)
	t.Cleanup(func() { SetUpstreamTimeout(0) })
	svc := &blockingService{started: make(chan struct{})}
	w := postJSON(t, NewMux(svc), http.MethodPost, "/prompt", `{"model":"m","prompt":"hi"}`)
	if w.Code != http.StatusGatewayTimeout { t.Fatalf("status=%d", w.Code) }
	if !strings.Contains(w.Body.String(), "deadline exceeded") { t.Fatalf("body=%q", w.Body.String()) }
}
