package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all report routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/portfolio", h.HandlePortfolioReport)
		r.Get("/portfolio/export", h.HandleExport)
		r.Get("/stocks", h.HandleStocksSummary)

		r.Get("/accounts/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleAccountReport(w, r, chi.URLParam(r, "id"))
		})
	})
}
