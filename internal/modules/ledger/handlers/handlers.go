// Package handlers provides HTTP handlers for ledger operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/vigil/internal/modules/ledger"
	"github.com/aristath/vigil/internal/utils"
)

// Handler handles ledger HTTP requests
type Handler struct {
	service *ledger.Service
	log     zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(service *ledger.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "ledger").Logger(),
	}
}

// AccountRequest is the create/update payload for accounts
type AccountRequest struct {
	Name          string  `json:"name"`
	Platform      string  `json:"platform"`
	InitialAmount float64 `json:"initial_amount,omitempty"`
}

// BalanceRequest is the payload for updating an account's current value
type BalanceRequest struct {
	Balance *float64 `json:"balance"`
}

// TransactionRequest is the create payload for transactions
type TransactionRequest struct {
	Date      string  `json:"date"`
	Amount    float64 `json:"amount"`
	Direction string  `json:"direction"`
	Note      string  `json:"note,omitempty"`
}

// HoldingRequest is the create/update payload for holding lots
type HoldingRequest struct {
	Symbol           string  `json:"symbol"`
	Shares           float64 `json:"shares"`
	AcquisitionPrice float64 `json:"acquisition_price"`
	AcquiredAt       string  `json:"acquired_at,omitempty"`
}

// HandleGetAccounts handles GET /api/ledger/accounts
func (h *Handler) HandleGetAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.Accounts()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get accounts")
		http.Error(w, "Failed to get accounts", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"accounts": accounts,
			"count":    len(accounts),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleCreateAccount handles POST /api/ledger/accounts
func (h *Handler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "Account name is required", http.StatusBadRequest)
		return
	}
	if req.InitialAmount < 0 {
		http.Error(w, "Initial amount cannot be negative", http.StatusBadRequest)
		return
	}

	account, err := h.service.CreateAccount(req.Name, req.Platform, req.InitialAmount)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create account")
		http.Error(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": account,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusCreated, response)
}

// HandleGetAccount handles GET /api/ledger/accounts/{id}
func (h *Handler) HandleGetAccount(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}

	account, err := h.service.GetAccount(id)
	if err != nil {
		h.log.Error().Err(err).Int64("account_id", id).Msg("Failed to get account")
		http.Error(w, "Failed to get account", http.StatusInternalServerError)
		return
	}
	if account == nil {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"data": account,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleUpdateAccount handles PUT /api/ledger/accounts/{id}
func (h *Handler) HandleUpdateAccount(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}

	var req AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "Account name is required", http.StatusBadRequest)
		return
	}

	account, err := h.service.UpdateAccount(id, req.Name, req.Platform)
	if err != nil {
		h.log.Error().Err(err).Int64("account_id", id).Msg("Failed to update account")
		http.Error(w, "Failed to update account", http.StatusInternalServerError)
		return
	}
	if account == nil {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"data": account,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleUpdateBalance handles PUT /api/ledger/accounts/{id}/balance
func (h *Handler) HandleUpdateBalance(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}

	var req BalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Balance == nil {
		http.Error(w, "Balance is required", http.StatusBadRequest)
		return
	}

	account, err := h.service.UpdateBalance(id, *req.Balance)
	if err != nil {
		h.log.Error().Err(err).Int64("account_id", id).Msg("Failed to update balance")
		http.Error(w, "Failed to update balance", http.StatusInternalServerError)
		return
	}
	if account == nil {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"data": account,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDeleteAccount handles DELETE /api/ledger/accounts/{id}
func (h *Handler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}

	deleted, err := h.service.DeleteAccount(id)
	if err != nil {
		h.log.Error().Err(err).Int64("account_id", id).Msg("Failed to delete account")
		http.Error(w, "Failed to delete account", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"account_id": id,
			"deleted":    true,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetTransactions handles GET /api/ledger/accounts/{id}/transactions
func (h *Handler) HandleGetTransactions(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}

	account, err := h.service.GetAccount(id)
	if err != nil {
		h.log.Error().Err(err).Int64("account_id", id).Msg("Failed to get account")
		http.Error(w, "Failed to get account", http.StatusInternalServerError)
		return
	}
	if account == nil {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}

	transactions, err := h.service.Transactions(id)
	if err != nil {
		h.log.Error().Err(err).Int64("account_id", id).Msg("Failed to get transactions")
		http.Error(w, "Failed to get transactions", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"account":      account,
			"transactions": transactions,
			"count":        len(transactions),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleCreateTransaction handles POST /api/ledger/accounts/{id}/transactions
func (h *Handler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}

	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Direction != ledger.DirectionDeposit && req.Direction != ledger.DirectionWithdrawal {
		http.Error(w, "Direction must be deposit or withdrawal", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		http.Error(w, "Amount must be positive", http.StatusBadRequest)
		return
	}
	if _, err := utils.ParseDay(req.Date); err != nil {
		http.Error(w, "Invalid date (want YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	txn, err := h.service.RecordTransaction(id, req.Date, req.Amount, req.Direction, req.Note)
	if err != nil {
		h.log.Error().Err(err).Int64("account_id", id).Msg("Failed to record transaction")
		http.Error(w, "Failed to record transaction", http.StatusInternalServerError)
		return
	}
	if txn == nil {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"data": txn,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusCreated, response)
}

// HandleDeleteTransaction handles DELETE /api/ledger/transactions/{id}
func (h *Handler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid transaction ID", http.StatusBadRequest)
		return
	}

	deleted, err := h.service.DeleteTransaction(id)
	if err != nil {
		h.log.Error().Err(err).Int64("transaction_id", id).Msg("Failed to delete transaction")
		http.Error(w, "Failed to delete transaction", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "Transaction not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"transaction_id": id,
			"deleted":        true,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetHoldings handles GET /api/ledger/accounts/{id}/holdings
func (h *Handler) HandleGetHoldings(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}

	account, err := h.service.GetAccount(id)
	if err != nil {
		h.log.Error().Err(err).Int64("account_id", id).Msg("Failed to get account")
		http.Error(w, "Failed to get account", http.StatusInternalServerError)
		return
	}
	if account == nil {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}

	holdings, err := h.service.Holdings(id)
	if err != nil {
		h.log.Error().Err(err).Int64("account_id", id).Msg("Failed to get holdings")
		http.Error(w, "Failed to get holdings", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"account":  account,
			"holdings": holdings,
			"count":    len(holdings),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetAllHoldings handles GET /api/ledger/holdings
func (h *Handler) HandleGetAllHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.service.AllHoldings()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get holdings")
		http.Error(w, "Failed to get holdings", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"holdings": holdings,
			"count":    len(holdings),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleCreateHolding handles POST /api/ledger/accounts/{id}/holdings
func (h *Handler) HandleCreateHolding(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}

	req, ok := h.decodeHoldingRequest(w, r)
	if !ok {
		return
	}

	holding, err := h.service.CreateHolding(id, req.Symbol, req.Shares, req.AcquisitionPrice, req.AcquiredAt)
	if err != nil {
		h.log.Error().Err(err).Int64("account_id", id).Msg("Failed to create holding")
		http.Error(w, "Failed to create holding", http.StatusInternalServerError)
		return
	}
	if holding == nil {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"data": holding,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusCreated, response)
}

// HandleUpdateHolding handles PUT /api/ledger/holdings/{id}
func (h *Handler) HandleUpdateHolding(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid holding ID", http.StatusBadRequest)
		return
	}

	req, ok := h.decodeHoldingRequest(w, r)
	if !ok {
		return
	}

	holding, err := h.service.UpdateHolding(id, req.Symbol, req.Shares, req.AcquisitionPrice, req.AcquiredAt)
	if err != nil {
		h.log.Error().Err(err).Int64("holding_id", id).Msg("Failed to update holding")
		http.Error(w, "Failed to update holding", http.StatusInternalServerError)
		return
	}
	if holding == nil {
		http.Error(w, "Holding not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"data": holding,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDeleteHolding handles DELETE /api/ledger/holdings/{id}
func (h *Handler) HandleDeleteHolding(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid holding ID", http.StatusBadRequest)
		return
	}

	deleted, err := h.service.DeleteHolding(id)
	if err != nil {
		h.log.Error().Err(err).Int64("holding_id", id).Msg("Failed to delete holding")
		http.Error(w, "Failed to delete holding", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "Holding not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"holding_id": id,
			"deleted":    true,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// decodeHoldingRequest decodes and validates a holding payload.
// Writes the error response itself and returns ok=false on failure.
func (h *Handler) decodeHoldingRequest(w http.ResponseWriter, r *http.Request) (HoldingRequest, bool) {
	var req HoldingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return req, false
	}

	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" {
		http.Error(w, "Symbol is required", http.StatusBadRequest)
		return req, false
	}
	if req.Shares <= 0 {
		http.Error(w, "Shares must be positive", http.StatusBadRequest)
		return req, false
	}
	if req.AcquisitionPrice < 0 {
		http.Error(w, "Acquisition price cannot be negative", http.StatusBadRequest)
		return req, false
	}
	if req.AcquiredAt != "" {
		if _, err := utils.ParseDay(req.AcquiredAt); err != nil {
			http.Error(w, "Invalid acquired date (want YYYY-MM-DD)", http.StatusBadRequest)
			return req, false
		}
	}

	return req, true
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
