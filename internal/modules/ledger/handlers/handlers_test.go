package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/vigil/internal/modules/ledger"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	err = ledger.InitSchema(db)
	require.NoError(t, err)

	return db
}

func setupHandler(t *testing.T) (*Handler, *ledger.Service, func()) {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	db := setupTestDB(t)

	repo := ledger.NewRepository(db, logger)
	service := ledger.NewService(repo, nil, logger)
	handler := NewHandler(service, logger)

	return handler, service, func() { db.Close() }
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotNil(t, response["data"])
	require.NotNil(t, response["metadata"])
	return response["data"].(map[string]interface{})
}

func TestHandleCreateAccount(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		validate       func(t *testing.T, w *httptest.ResponseRecorder)
	}{
		{
			name:           "valid account with initial amount",
			body:           `{"name": "Retirement", "platform": "COL Financial", "initial_amount": 5000}`,
			expectedStatus: http.StatusCreated,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				data := decodeEnvelope(t, w)
				assert.Equal(t, "Retirement", data["name"])
				assert.Equal(t, float64(5000), data["balance"])
				assert.Equal(t, float64(5000), data["principal"])
				assert.Equal(t, float64(0), data["profit_loss"])
			},
		},
		{
			name:           "missing name",
			body:           `{"platform": "COL Financial"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "negative initial amount",
			body:           `{"name": "Bad", "initial_amount": -100}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed body",
			body:           `{not json`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _, cleanup := setupHandler(t)
			defer cleanup()

			req := httptest.NewRequest("POST", "/api/ledger/accounts", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.HandleCreateAccount(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validate != nil {
				tt.validate(t, w)
			}
		})
	}
}

func TestHandleGetAccounts(t *testing.T) {
	handler, svc, cleanup := setupHandler(t)
	defer cleanup()

	_, err := svc.CreateAccount("Alpha", "Broker", 1000)
	require.NoError(t, err)
	_, err = svc.CreateAccount("Beta", "Broker", 0)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/ledger/accounts", nil)
	w := httptest.NewRecorder()

	handler.HandleGetAccounts(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)
	assert.Equal(t, float64(2), data["count"])

	accounts := data["accounts"].([]interface{})
	first := accounts[0].(map[string]interface{})
	assert.Equal(t, "Alpha", first["name"])
}

func TestHandleGetAccount(t *testing.T) {
	handler, svc, cleanup := setupHandler(t)
	defer cleanup()

	account, err := svc.CreateAccount("Retirement", "Broker", 1000)
	require.NoError(t, err)

	tests := []struct {
		name           string
		idStr          string
		expectedStatus int
	}{
		{"known account", "1", http.StatusOK},
		{"unknown account", "999", http.StatusNotFound},
		{"bad ID", "abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/ledger/accounts/"+tt.idStr, nil)
			w := httptest.NewRecorder()

			handler.HandleGetAccount(w, req, tt.idStr)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				data := decodeEnvelope(t, w)
				assert.Equal(t, account.Name, data["name"])
			}
		})
	}
}

func TestHandleUpdateAccount(t *testing.T) {
	handler, svc, cleanup := setupHandler(t)
	defer cleanup()

	_, err := svc.CreateAccount("Old Name", "Broker", 0)
	require.NoError(t, err)

	body := `{"name": "New Name", "platform": "NewBroker"}`
	req := httptest.NewRequest("PUT", "/api/ledger/accounts/1", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.HandleUpdateAccount(w, req, "1")

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)
	assert.Equal(t, "New Name", data["name"])
	assert.Equal(t, "NewBroker", data["platform"])

	req = httptest.NewRequest("PUT", "/api/ledger/accounts/999", strings.NewReader(body))
	w = httptest.NewRecorder()

	handler.HandleUpdateAccount(w, req, "999")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleUpdateBalance(t *testing.T) {
	handler, svc, cleanup := setupHandler(t)
	defer cleanup()

	_, err := svc.CreateAccount("Trading", "Broker", 1000)
	require.NoError(t, err)

	req := httptest.NewRequest("PUT", "/api/ledger/accounts/1/balance", strings.NewReader(`{"balance": 1200}`))
	w := httptest.NewRecorder()

	handler.HandleUpdateBalance(w, req, "1")

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)
	assert.Equal(t, float64(1200), data["balance"])
	assert.Equal(t, float64(200), data["profit_loss"])

	// The field is required, not defaulted
	req = httptest.NewRequest("PUT", "/api/ledger/accounts/1/balance", strings.NewReader(`{}`))
	w = httptest.NewRecorder()

	handler.HandleUpdateBalance(w, req, "1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Balance is required")
}

func TestHandleDeleteAccount(t *testing.T) {
	handler, svc, cleanup := setupHandler(t)
	defer cleanup()

	_, err := svc.CreateAccount("Doomed", "Broker", 100)
	require.NoError(t, err)

	req := httptest.NewRequest("DELETE", "/api/ledger/accounts/1", nil)
	w := httptest.NewRecorder()

	handler.HandleDeleteAccount(w, req, "1")

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)
	assert.Equal(t, true, data["deleted"])

	req = httptest.NewRequest("DELETE", "/api/ledger/accounts/1", nil)
	w = httptest.NewRecorder()

	handler.HandleDeleteAccount(w, req, "1")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleCreateTransaction(t *testing.T) {
	handler, svc, cleanup := setupHandler(t)
	defer cleanup()

	_, err := svc.CreateAccount("Trading", "Broker", 0)
	require.NoError(t, err)

	tests := []struct {
		name           string
		idStr          string
		body           string
		expectedStatus int
	}{
		{
			name:           "valid deposit",
			idStr:          "1",
			body:           `{"date": "2024-01-02", "amount": 500, "direction": "deposit", "note": "top-up"}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "valid withdrawal",
			idStr:          "1",
			body:           `{"date": "2024-02-01", "amount": 200, "direction": "withdrawal"}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad direction",
			idStr:          "1",
			body:           `{"date": "2024-01-02", "amount": 500, "direction": "transfer"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "non-positive amount",
			idStr:          "1",
			body:           `{"date": "2024-01-02", "amount": 0, "direction": "deposit"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad date",
			idStr:          "1",
			body:           `{"date": "01/02/2024", "amount": 100, "direction": "deposit"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown account",
			idStr:          "999",
			body:           `{"date": "2024-01-02", "amount": 100, "direction": "deposit"}`,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/ledger/accounts/"+tt.idStr+"/transactions", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.HandleCreateTransaction(w, req, tt.idStr)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	// Both accepted rows moved the principal
	account, err := svc.GetAccount(1)
	require.NoError(t, err)
	assert.Equal(t, 300.0, account.Principal)
}

func TestHandleGetTransactions(t *testing.T) {
	handler, svc, cleanup := setupHandler(t)
	defer cleanup()

	account, err := svc.CreateAccount("Trading", "Broker", 0)
	require.NoError(t, err)

	_, err = svc.RecordTransaction(account.ID, "2024-01-02", 500, ledger.DirectionDeposit, "")
	require.NoError(t, err)
	_, err = svc.RecordTransaction(account.ID, "2024-02-01", 100, ledger.DirectionWithdrawal, "")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/ledger/accounts/1/transactions", nil)
	w := httptest.NewRecorder()

	handler.HandleGetTransactions(w, req, "1")

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)
	assert.Equal(t, float64(2), data["count"])

	transactions := data["transactions"].([]interface{})
	newest := transactions[0].(map[string]interface{})
	assert.Equal(t, "2024-02-01", newest["date"])

	accountData := data["account"].(map[string]interface{})
	assert.Equal(t, float64(400), accountData["principal"])

	req = httptest.NewRequest("GET", "/api/ledger/accounts/999/transactions", nil)
	w = httptest.NewRecorder()

	handler.HandleGetTransactions(w, req, "999")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleDeleteTransaction(t *testing.T) {
	handler, svc, cleanup := setupHandler(t)
	defer cleanup()

	account, err := svc.CreateAccount("Trading", "Broker", 0)
	require.NoError(t, err)

	_, err = svc.RecordTransaction(account.ID, "2024-01-02", 500, ledger.DirectionDeposit, "")
	require.NoError(t, err)

	req := httptest.NewRequest("DELETE", "/api/ledger/transactions/1", nil)
	w := httptest.NewRecorder()

	handler.HandleDeleteTransaction(w, req, "1")

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)
	assert.Equal(t, true, data["deleted"])

	got, err := svc.GetAccount(account.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Principal)

	req = httptest.NewRequest("DELETE", "/api/ledger/transactions/1", nil)
	w = httptest.NewRecorder()

	handler.HandleDeleteTransaction(w, req, "1")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleCreateHolding(t *testing.T) {
	handler, svc, cleanup := setupHandler(t)
	defer cleanup()

	_, err := svc.CreateAccount("Stocks", "Broker", 0)
	require.NoError(t, err)

	tests := []struct {
		name           string
		idStr          string
		body           string
		expectedStatus int
		validate       func(t *testing.T, w *httptest.ResponseRecorder)
	}{
		{
			name:           "valid holding",
			idStr:          "1",
			body:           `{"symbol": "tel", "shares": 10, "acquisition_price": 1250, "acquired_at": "2024-01-02"}`,
			expectedStatus: http.StatusCreated,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				data := decodeEnvelope(t, w)
				assert.Equal(t, "TEL", data["symbol"])
				assert.Equal(t, float64(10), data["shares"])
			},
		},
		{
			name:           "missing symbol",
			idStr:          "1",
			body:           `{"shares": 10, "acquisition_price": 1250}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "non-positive shares",
			idStr:          "1",
			body:           `{"symbol": "TEL", "shares": 0, "acquisition_price": 1250}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad acquired date",
			idStr:          "1",
			body:           `{"symbol": "TEL", "shares": 10, "acquisition_price": 1250, "acquired_at": "Jan 2"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown account",
			idStr:          "999",
			body:           `{"symbol": "TEL", "shares": 10, "acquisition_price": 1250}`,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/ledger/accounts/"+tt.idStr+"/holdings", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.HandleCreateHolding(w, req, tt.idStr)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.validate != nil {
				tt.validate(t, w)
			}
		})
	}
}

func TestHandleGetHoldings(t *testing.T) {
	handler, svc, cleanup := setupHandler(t)
	defer cleanup()

	account, err := svc.CreateAccount("Stocks", "Broker", 0)
	require.NoError(t, err)

	_, err = svc.CreateHolding(account.ID, "TEL", 10, 1250, "")
	require.NoError(t, err)
	_, err = svc.CreateHolding(account.ID, "BDO", 100, 130, "")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/ledger/accounts/1/holdings", nil)
	w := httptest.NewRecorder()

	handler.HandleGetHoldings(w, req, "1")

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)
	assert.Equal(t, float64(2), data["count"])

	holdings := data["holdings"].([]interface{})
	first := holdings[0].(map[string]interface{})
	assert.Equal(t, "BDO", first["symbol"])
}

func TestHandleGetAllHoldings(t *testing.T) {
	handler, svc, cleanup := setupHandler(t)
	defer cleanup()

	first, err := svc.CreateAccount("First", "Broker", 0)
	require.NoError(t, err)
	second, err := svc.CreateAccount("Second", "Broker", 0)
	require.NoError(t, err)

	_, err = svc.CreateHolding(first.ID, "TEL", 10, 1250, "")
	require.NoError(t, err)
	_, err = svc.CreateHolding(second.ID, "BDO", 100, 130, "")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/ledger/holdings", nil)
	w := httptest.NewRecorder()

	handler.HandleGetAllHoldings(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)
	assert.Equal(t, float64(2), data["count"])
}

func TestHandleUpdateHolding(t *testing.T) {
	handler, svc, cleanup := setupHandler(t)
	defer cleanup()

	account, err := svc.CreateAccount("Stocks", "Broker", 0)
	require.NoError(t, err)

	_, err = svc.CreateHolding(account.ID, "TEL", 10, 1250, "")
	require.NoError(t, err)

	body := `{"symbol": "TEL", "shares": 25, "acquisition_price": 1225}`
	req := httptest.NewRequest("PUT", "/api/ledger/holdings/1", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.HandleUpdateHolding(w, req, "1")

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)
	assert.Equal(t, float64(25), data["shares"])

	req = httptest.NewRequest("PUT", "/api/ledger/holdings/999", strings.NewReader(body))
	w = httptest.NewRecorder()

	handler.HandleUpdateHolding(w, req, "999")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleDeleteHolding(t *testing.T) {
	handler, svc, cleanup := setupHandler(t)
	defer cleanup()

	account, err := svc.CreateAccount("Stocks", "Broker", 0)
	require.NoError(t, err)

	_, err = svc.CreateHolding(account.ID, "TEL", 10, 1250, "")
	require.NoError(t, err)

	req := httptest.NewRequest("DELETE", "/api/ledger/holdings/1", nil)
	w := httptest.NewRecorder()

	handler.HandleDeleteHolding(w, req, "1")

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)
	assert.Equal(t, true, data["deleted"])

	req = httptest.NewRequest("DELETE", "/api/ledger/holdings/1", nil)
	w = httptest.NewRecorder()

	handler.HandleDeleteHolding(w, req, "1")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
