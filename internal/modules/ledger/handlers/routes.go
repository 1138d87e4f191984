package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all ledger routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ledger", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.HandleGetAccounts)
			r.Post("/", h.HandleCreateAccount)

			r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
				h.HandleGetAccount(w, r, chi.URLParam(r, "id"))
			})
			r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
				h.HandleUpdateAccount(w, r, chi.URLParam(r, "id"))
			})
			r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
				h.HandleDeleteAccount(w, r, chi.URLParam(r, "id"))
			})
			r.Put("/{id}/balance", func(w http.ResponseWriter, r *http.Request) {
				h.HandleUpdateBalance(w, r, chi.URLParam(r, "id"))
			})

			r.Get("/{id}/transactions", func(w http.ResponseWriter, r *http.Request) {
				h.HandleGetTransactions(w, r, chi.URLParam(r, "id"))
			})
			r.Post("/{id}/transactions", func(w http.ResponseWriter, r *http.Request) {
				h.HandleCreateTransaction(w, r, chi.URLParam(r, "id"))
			})

			r.Get("/{id}/holdings", func(w http.ResponseWriter, r *http.Request) {
				h.HandleGetHoldings(w, r, chi.URLParam(r, "id"))
			})
			r.Post("/{id}/holdings", func(w http.ResponseWriter, r *http.Request) {
				h.HandleCreateHolding(w, r, chi.URLParam(r, "id"))
			})
		})

		r.Delete("/transactions/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleDeleteTransaction(w, r, chi.URLParam(r, "id"))
		})

		r.Route("/holdings", func(r chi.Router) {
			r.Get("/", h.HandleGetAllHoldings)
			r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
				h.HandleUpdateHolding(w, r, chi.URLParam(r, "id"))
			})
			r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
				h.HandleDeleteHolding(w, r, chi.URLParam(r, "id"))
			})
		})
	})
}
