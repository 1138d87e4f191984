package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all market data routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/market", func(r chi.Router) {
		r.Post("/import", h.HandleImport)
		r.Get("/overview", h.HandleGetOverview)

		r.Route("/symbols", func(r chi.Router) {
			r.Get("/", h.HandleGetSymbols)
			r.Get("/{symbol}", func(w http.ResponseWriter, r *http.Request) {
				symbol := chi.URLParam(r, "symbol")
				h.HandleGetSymbolDetail(w, r, symbol)
			})
			r.Get("/{symbol}/prices", func(w http.ResponseWriter, r *http.Request) {
				symbol := chi.URLParam(r, "symbol")
				h.HandleGetPrices(w, r, symbol)
			})
			r.Delete("/{symbol}", func(w http.ResponseWriter, r *http.Request) {
				symbol := chi.URLParam(r, "symbol")
				h.HandleDeleteSymbol(w, r, symbol)
			})
		})
	})
}
