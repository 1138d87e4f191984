// Package handlers provides HTTP handlers for market data operations.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/vigil/internal/modules/marketdata"
)

// Handler handles market data HTTP requests
type Handler struct {
	service *marketdata.Service
	repo    *marketdata.Repository
	log     zerolog.Logger
}

// NewHandler creates a new market data handler
func NewHandler(
	service *marketdata.Service,
	repo *marketdata.Repository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service: service,
		repo:    repo,
		log:     log.With().Str("handler", "marketdata").Logger(),
	}
}

// HandleImport handles POST /api/market/import.
// Accepts either a multipart upload (field "file") or a raw CSV body.
// Responds 200 even when rows were rejected; the summary carries the counts.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	var reader io.Reader = r.Body

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			h.log.Warn().Err(err).Msg("Import request missing file field")
			http.Error(w, "Missing file upload", http.StatusBadRequest)
			return
		}
		defer file.Close()
		reader = file
	}

	summary, err := h.service.Import(reader)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to import CSV")
		http.Error(w, "Failed to import CSV", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": summary,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetSymbols handles GET /api/market/symbols
func (h *Handler) HandleGetSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.repo.Symbols()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get symbols")
		http.Error(w, "Failed to get symbols", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"symbols": symbols,
			"count":   len(symbols),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetOverview handles GET /api/market/overview
func (h *Handler) HandleGetOverview(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Overview()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get market overview")
		http.Error(w, "Failed to get market overview", http.StatusInternalServerError)
		return
	}

	latestDate := ""
	if len(rows) > 0 {
		latestDate = rows[0].Date
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"date":  latestDate,
			"rows":  rows,
			"count": len(rows),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetSymbolDetail handles GET /api/market/symbols/{symbol}
func (h *Handler) HandleGetSymbolDetail(w http.ResponseWriter, r *http.Request, symbol string) {
	detail, err := h.service.SymbolDetail(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to get symbol detail")
		http.Error(w, "Failed to get symbol detail", http.StatusInternalServerError)
		return
	}
	if detail == nil {
		http.Error(w, "Symbol not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"data": detail,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetPrices handles GET /api/market/symbols/{symbol}/prices
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request, symbol string) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	bars, err := h.repo.Query(symbol, from, to)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to query prices")
		http.Error(w, "Failed to query prices", http.StatusBadRequest)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"symbol": symbol,
			"prices": bars,
			"count":  len(bars),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDeleteSymbol handles DELETE /api/market/symbols/{symbol}
func (h *Handler) HandleDeleteSymbol(w http.ResponseWriter, r *http.Request, symbol string) {
	deleted, err := h.service.RemoveSymbol(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to delete symbol")
		http.Error(w, "Failed to delete symbol", http.StatusInternalServerError)
		return
	}
	if deleted == 0 {
		http.Error(w, "Symbol not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"symbol":  symbol,
			"deleted": deleted,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response with the given status code
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
