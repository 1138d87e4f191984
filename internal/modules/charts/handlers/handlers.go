package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/vigil/internal/modules/charts"
	"github.com/aristath/vigil/internal/utils"
)

// Handler handles HTTP requests for chart data
type Handler struct {
	service *charts.Service
	log     zerolog.Logger
}

// NewHandler creates a new charts handler
func NewHandler(service *charts.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "charts").Logger(),
	}
}

// HandleGetChart handles GET /api/charts/{symbol}
func (h *Handler) HandleGetChart(w http.ResponseWriter, r *http.Request, symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		http.Error(w, "Symbol is required", http.StatusBadRequest)
		return
	}

	rangeStr := r.URL.Query().Get("range")
	if rangeStr == "" {
		rangeStr = "all"
	}
	switch rangeStr {
	case "1m", "3m", "6m", "1y", "all":
	default:
		http.Error(w, "Invalid range (want 1m, 3m, 6m, 1y or all)", http.StatusBadRequest)
		return
	}

	overlays := utils.ParseCSV(r.URL.Query().Get("overlays"))
	for _, overlay := range overlays {
		switch overlay {
		case "sma20", "sma50", "ema20", "rsi14":
		default:
			http.Error(w, "Unknown overlay: "+overlay, http.StatusBadRequest)
			return
		}
	}

	chart, err := h.service.SymbolChart(symbol, rangeStr, overlays)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to build chart")
		http.Error(w, "Failed to build chart", http.StatusInternalServerError)
		return
	}
	if chart == nil {
		http.Error(w, "Symbol not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"data": chart,
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
