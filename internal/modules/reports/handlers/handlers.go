package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/vigil/internal/modules/reports"
)

// Handler handles HTTP requests for reports
type Handler struct {
	service  *reports.Service
	exporter *reports.Exporter
	log      zerolog.Logger
}

// NewHandler creates a new reports handler
func NewHandler(service *reports.Service, exporter *reports.Exporter, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		exporter: exporter,
		log:      log.With().Str("handler", "reports").Logger(),
	}
}

// HandleAccountReport handles GET /api/reports/accounts/{id}
func (h *Handler) HandleAccountReport(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}

	report, err := h.service.ForAccount(id)
	if err != nil {
		h.log.Error().Err(err).Int64("account_id", id).Msg("Failed to build account report")
		http.Error(w, "Failed to build report", http.StatusInternalServerError)
		return
	}
	if report == nil {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"data": report,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandlePortfolioReport handles GET /api/reports/portfolio
func (h *Handler) HandlePortfolioReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.ForPortfolio()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build portfolio report")
		http.Error(w, "Failed to build report", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": report,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleStocksSummary handles GET /api/reports/stocks
func (h *Handler) HandleStocksSummary(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.service.StocksSummary()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build stocks summary")
		http.Error(w, "Failed to build report", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"stocks": stocks,
			"count":  len(stocks),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleExport handles GET /api/reports/portfolio/export
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.ForPortfolio()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build portfolio report")
		http.Error(w, "Failed to build report", http.StatusInternalServerError)
		return
	}

	workbook, err := h.exporter.Export(report)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to export workbook")
		http.Error(w, "Failed to export report", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("portfolio-%s.xlsx", report.AsOf)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(workbook)))

	if _, err := w.Write(workbook); err != nil {
		h.log.Error().Err(err).Msg("Failed to write workbook response")
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
