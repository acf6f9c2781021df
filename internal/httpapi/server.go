package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ollamactl/pkg/types"
)

// Service defines the methods required by the HTTP API layer. *client.Client satisfies it.
type Service interface {
	Version(ctx context.Context) string
	ListModels(ctx context.Context) ([]types.ModelDescriptor, error)
	Prompt(ctx context.Context, model, text string) (string, error)
	SwitchModel(model string)
	Model() string
	Ping(ctx context.Context) error
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if h := corsHandler(); h != nil {
		r.Use(h)
	}

	h := &handlers{svc: svc}
	r.Get("/version", h.version)
	r.Get("/models", h.models)
	r.Post("/prompt", h.prompt)
	r.Get("/model", h.getModel)
	r.Put("/model", h.putModel)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("waiting for model server"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)
	return r
}

type handlers struct {
	svc Service
}

// version godoc
// @Summary      Model server version
// @Description  Returns the server version, or a diagnostic such as "not connected" when the server is unreachable.
// @Tags         server
// @Produce      json
// @Success      200  {object}  types.VersionInfo
// @Router       /version [get]
func (h *handlers) version(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()
	writeJSON(w, http.StatusOK, types.VersionInfo{Version: h.svc.Version(ctx)})
}

// models godoc
// @Summary      List installed models
// @Tags         models
// @Produce      json
// @Success      200  {object}  types.ModelsResponse
// @Failure      502  {object}  types.ErrorResponse
// @Failure      503  {object}  types.ErrorResponse
// @Router       /models [get]
func (h *handlers) models(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()
	start := time.Now()
	models, err := h.svc.ListModels(ctx)
	if err != nil {
		status := writeServiceError(w, err)
		logRequest(r, "models", status, start, err)
		return
	}
	if models == nil {
		models = []types.ModelDescriptor{}
	}
	writeJSON(w, http.StatusOK, types.ModelsResponse{Models: models})
	logRequest(r, "models", http.StatusOK, start, nil)
}

// prompt godoc
// @Summary      Generate a completion
// @Description  Sends the prompt to the model server with streaming disabled and returns the full text.
// @Tags         generate
// @Accept       json
// @Produce      json
// @Param        request  body      types.PromptRequest  true  "Prompt"
// @Success      200      {object}  types.PromptResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Failure      502      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Router       /prompt [post]
func (h *handlers) prompt(w http.ResponseWriter, r *http.Request) {
	if !isJSON(r) {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSONError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	model := req.Model
	if model == "" {
		model = h.svc.Model()
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	start := time.Now()
	text, err := h.svc.Prompt(ctx, model, req.Prompt)
	if err != nil {
		// client went away or server is shutting down
		if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
			return
		}
		status := writeServiceError(w, err)
		logRequest(r, model, status, start, err)
		return
	}
	if requestLogLevel(r) >= LevelDebug {
		debugf(r, "prompt> %s", text)
	}
	writeJSON(w, http.StatusOK, types.PromptResponse{Model: model, Response: text})
	logRequest(r, model, http.StatusOK, start, nil)
}

// getModel godoc
// @Summary      Bound model
// @Tags         models
// @Produce      json
// @Success      200  {object}  types.ModelSelection
// @Router       /model [get]
func (h *handlers) getModel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.ModelSelection{Model: h.svc.Model()})
}

// putModel godoc
// @Summary      Switch the bound model
// @Description  Later prompts without an explicit model use this one. The name is not validated.
// @Tags         models
// @Accept       json
// @Param        request  body  types.ModelSelection  true  "Model"
// @Success      204
// @Failure      400  {object}  types.ErrorResponse
// @Failure      415  {object}  types.ErrorResponse
// @Router       /model [put]
func (h *handlers) putModel(w http.ResponseWriter, r *http.Request) {
	if !isJSON(r) {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var sel types.ModelSelection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	h.svc.SwitchModel(sel.Model)
	w.WriteHeader(http.StatusNoContent)
}

func isJSON(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct != "" && strings.HasPrefix(strings.ToLower(ct), "application/json")
}

// requestContext joins the request with the server base context and applies the
// configured upstream timeout.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	if upstreamTimeout <= 0 {
		return ctx, cancel
	}
	tctx, tcancel := context.WithTimeout(ctx, upstreamTimeout)
	return tctx, func() { tcancel(); cancel() }
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debugf(nil, "encode response: %v", err)
	}
}
