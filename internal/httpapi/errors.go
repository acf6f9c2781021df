package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"ollamactl/pkg/client"
	"ollamactl/pkg/types"
)

// statusFor maps client errors to gateway status codes.
func statusFor(err error) int {
	switch {
	case client.IsNoModelSelected(err):
		return http.StatusBadRequest
	case client.IsConnectionError(err):
		return http.StatusServiceUnavailable
	case client.IsEmptyResponse(err), client.IsProtocolError(err), client.IsTransportError(err):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) int {
	status := statusFor(err)
	upstreamErrorsTotal.WithLabelValues(http.StatusText(status)).Inc()
	writeJSONError(w, status, err.Error())
	return status
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}
