package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
)

// maxBodyBytes caps JSON request bodies. Default 1 MiB.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes sets the request body cap; n <= 0 restores the default.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// upstreamTimeout bounds each call to the model server. Zero disables it.
var upstreamTimeout time.Duration

// SetUpstreamTimeout sets the per-request timeout for model server calls.
func SetUpstreamTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	upstreamTimeout = d
}

// CORS is opt-in; with no origins configured no CORS middleware is installed.
var corsAllowedOrigins []string

// SetCORSOrigins configures the allowed CORS origins.
func SetCORSOrigins(origins []string) {
	corsAllowedOrigins = append([]string(nil), origins...)
}

func corsHandler() func(http.Handler) http.Handler {
	if len(corsAllowedOrigins) == 0 {
		return nil
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Log-Level", "X-Request-Id"},
		MaxAge:         300,
	})
}
