package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/ulasbyzdvr/is-takip/internal/app"
	"github.com/ulasbyzdvr/is-takip/internal/dto"
)

// Handler is a container for application dependencies that are required by HTTP handlers.
// By embedding the application's dependency injection container, it provides handlers
// with access to services, repositories, and configuration.
type Handler struct {
	container *app.Container
}

// NewHandler creates and returns a new Handler instance.
// It takes the application's dependency injection container as a parameter,
// making it available to all HTTP handlers attached to this Handler.
func NewHandler(container *app.Container) *Handler {
	return &Handler{container: container}
}

// successResponse sends the standard {success,message,data} envelope with
// status 200. Every /api reply, success or failure, uses this envelope so
// clients only ever parse one shape.
func successResponse(w http.ResponseWriter, message string, data *dto.SnapshotData) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse sends a failure envelope with the given HTTP status.
func ErrorResponse(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(dto.APIResponse{
		Success: false,
		Message: message,
	})
}

// checkAPIKey compares a presented key against the configured shared secret
// in constant time. A rejected key is counted as an auth failure.
func (h *Handler) checkAPIKey(presented string) bool {
	expected := h.container.Config.Auth.APIKey
	if subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) == 1 {
		return true
	}
	h.container.Metrics.RecordAuthFailure()
	return false
}

// limitRequestBody wraps a request body with MaxBytesReader to limit its size.
// This prevents resource exhaustion via large request bodies.
func limitRequestBody(w http.ResponseWriter, r *http.Request, maxBytes int64) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
}
