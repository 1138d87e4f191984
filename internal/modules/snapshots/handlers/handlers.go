// Package handlers provides HTTP handlers for portfolio snapshots.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/vigil/internal/modules/snapshots"
	"github.com/aristath/vigil/internal/utils"
)

// Handler handles snapshot HTTP requests
type Handler struct {
	service *snapshots.Service
	log     zerolog.Logger
}

// NewHandler creates a new snapshots handler
func NewHandler(service *snapshots.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "snapshots").Logger(),
	}
}

// HandleCapture handles POST /api/snapshots
func (h *Handler) HandleCapture(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Capture()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to capture snapshot")
		http.Error(w, "Failed to capture snapshot", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": snapshot,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusCreated, response)
}

// HandleList handles GET /api/snapshots
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list snapshots")
		http.Error(w, "Failed to list snapshots", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"snapshots": list,
			"count":     len(list),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGet handles GET /api/snapshots/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request, id string) {
	snapshot, payload, err := h.service.Get(id)
	if err != nil {
		h.log.Error().Err(err).Str("snapshot_id", id).Msg("Failed to get snapshot")
		http.Error(w, "Failed to get snapshot", http.StatusInternalServerError)
		return
	}
	if snapshot == nil {
		http.Error(w, "Snapshot not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"snapshot": snapshot,
			"detail":   payload,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDelete handles DELETE /api/snapshots/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request, id string) {
	deleted, err := h.service.Delete(id)
	if err != nil {
		h.log.Error().Err(err).Str("snapshot_id", id).Msg("Failed to delete snapshot")
		http.Error(w, "Failed to delete snapshot", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "Snapshot not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"snapshot_id": id,
			"deleted":     true,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleBulkDelete handles DELETE /api/snapshots?before=YYYY-MM-DD
func (h *Handler) HandleBulkDelete(w http.ResponseWriter, r *http.Request) {
	before := r.URL.Query().Get("before")
	if before == "" {
		http.Error(w, "before is required", http.StatusBadRequest)
		return
	}
	if _, err := utils.ParseDay(before); err != nil {
		http.Error(w, "Invalid before date (want YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	deleted, err := h.service.DeleteBefore(before)
	if err != nil {
		h.log.Error().Err(err).Str("before", before).Msg("Failed to delete snapshots")
		http.Error(w, "Failed to delete snapshots", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"deleted": deleted,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
