package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HealthResponse represents the response structure for health check endpoints.
type HealthResponse struct {
	Status      string            `json:"status"`                 // "ok" or "error"
	Timestamp   time.Time         `json:"timestamp"`              // Current server time
	Checks      map[string]string `json:"checks,omitempty"`       // Individual component health
	Uptime      string            `json:"uptime,omitempty"`       // Server uptime
	LastUpdated string            `json:"last_updated,omitempty"` // When the store last accepted an upload
}

var startTime = time.Now()

// HealthCheck handles the /health endpoint.
// This is a lightweight endpoint that always returns 200 OK if the service is
// running. It does NOT check dependencies; use /readiness for that.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Uptime:    formatUptime(time.Since(startTime)),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// ReadinessCheck handles the /readiness endpoint.
// It verifies the persistence backend is reachable before declaring the
// service ready to accept sync traffic.
//
// Returns:
// - 200 OK if the storage backend is healthy
// - 503 Service Unavailable otherwise
func (h *Handler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	allHealthy := true

	storageStatus, lastUpdated := h.checkStorage()
	checks["storage"] = storageStatus
	if storageStatus != "ok" {
		allHealthy = false
	}

	status := "ok"
	httpStatus := http.StatusOK

	if !allHealthy {
		status = "error"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}
	if !lastUpdated.IsZero() {
		response.LastUpdated = lastUpdated.UTC().Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(response)
}

// checkStorage verifies the snapshot repository is readable. For the sqlite
// backend this also pings the connection pool.
func (h *Handler) checkStorage() (string, time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if h.container.DB != nil {
		if err := h.container.DB.PingContext(ctx); err != nil {
			return "error", time.Time{}
		}
	}

	if _, err := h.container.SnapshotRepo.Load(ctx); err != nil {
		return "error", time.Time{}
	}

	lastUpdated, err := h.container.SnapshotRepo.LastUpdated(ctx)
	if err != nil {
		return "ok", time.Time{}
	}
	return "ok", lastUpdated
}

// formatUptime converts a duration into a human-readable uptime string,
// e.g. "2h 15m 30s" or "1d 5h 23m".
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
