package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ulasbyzdvr/is-takip/internal/dto"
)

// maxUploadBytes bounds a full snapshot upload. Snapshots are small; a
// multi-megabyte body is either abuse or a bug.
const maxUploadBytes = 8 * 1024 * 1024

// Download handles GET /api?action=download&api_key=K.
// It serves the full stored snapshot, tombstones included, so devices can
// merge deletions like any other edit.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("action") != dto.ActionDownload {
		ErrorResponse(w, "invalid action", http.StatusBadRequest)
		return
	}
	if !h.checkAPIKey(r.URL.Query().Get("api_key")) {
		ErrorResponse(w, "invalid api key", http.StatusUnauthorized)
		return
	}

	snap, err := h.container.SyncSvc.Download(r.Context())
	if err != nil {
		ErrorResponse(w, "failed to load data", http.StatusInternalServerError)
		return
	}

	successResponse(w, "data downloaded", dto.NewSnapshotData(snap))
}

// Upload handles POST /api with an upload request body. The incoming
// snapshot is merged into the stored one and the merged result is echoed
// back so the device can adopt the authoritative state in one round trip.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	limitRequestBody(w, r, maxUploadBytes)

	var req dto.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !h.checkAPIKey(req.APIKey) {
		ErrorResponse(w, "invalid api key", http.StatusUnauthorized)
		return
	}

	if err := req.Validate(); err != nil {
		switch {
		case errors.Is(err, dto.ErrInvalidAction):
			ErrorResponse(w, "invalid action", http.StatusBadRequest)
		case errors.Is(err, dto.ErrMissingData):
			ErrorResponse(w, "companies and works are required", http.StatusBadRequest)
		default:
			ErrorResponse(w, "invalid request", http.StatusBadRequest)
		}
		return
	}

	merged, err := h.container.SyncSvc.Upload(r.Context(), req.Snapshot())
	if err != nil {
		slog.Error("upload failed", "err", err)
		ErrorResponse(w, "failed to save data", http.StatusInternalServerError)
		return
	}

	successResponse(w, "data uploaded", dto.NewSnapshotData(merged))
}
