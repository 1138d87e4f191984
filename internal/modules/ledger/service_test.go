package ledger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/vigil/internal/events"
)

func setupTestService(t *testing.T) (*Service, func()) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())
	svc := NewService(repo, nil, zerolog.Nop())
	return svc, func() { db.Close() }
}

func TestCreateAccountWithInitialAmount(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	account, err := svc.CreateAccount("Retirement", "COL Financial", 5000)
	require.NoError(t, err)

	// The opening deposit sets both sides of the ledger
	assert.Equal(t, 5000.0, account.Balance)
	assert.Equal(t, 5000.0, account.Principal)
	assert.Zero(t, account.ProfitLoss)

	txns, err := svc.Transactions(account.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, 5000.0, txns[0].Amount)
	assert.Equal(t, DirectionDeposit, txns[0].Direction)
	assert.Equal(t, "Initial deposit", txns[0].Note)
}

func TestCreateAccountWithoutInitialAmount(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	account, err := svc.CreateAccount("Empty", "Broker", 0)
	require.NoError(t, err)

	assert.Zero(t, account.Balance)
	assert.Zero(t, account.Principal)

	txns, err := svc.Transactions(account.ID)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestUpdateBalanceMovesProfitLoss(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	account, err := svc.CreateAccount("Trading", "Broker", 1000)
	require.NoError(t, err)

	updated, err := svc.UpdateBalance(account.ID, 1200)
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, 1200.0, updated.Balance)
	assert.Equal(t, 1000.0, updated.Principal)
	assert.Equal(t, 200.0, updated.ProfitLoss)
}

func TestUpdateBalanceUnknownAccount(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	updated, err := svc.UpdateBalance(999, 1200)
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestRecordTransactionUnknownAccount(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	txn, err := svc.RecordTransaction(999, "2024-01-02", 100, DirectionDeposit, "")
	require.NoError(t, err)
	assert.Nil(t, txn)
}

func TestRecordTransactionUpdatesPrincipal(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	account, err := svc.CreateAccount("Trading", "Broker", 0)
	require.NoError(t, err)

	_, err = svc.RecordTransaction(account.ID, "2024-01-02", 300, DirectionDeposit, "")
	require.NoError(t, err)

	_, err = svc.RecordTransaction(account.ID, "2024-02-01", 100, DirectionWithdrawal, "fees")
	require.NoError(t, err)

	got, err := svc.GetAccount(account.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, got.Principal)
}

func TestCreateHoldingUnknownAccount(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	holding, err := svc.CreateHolding(999, "TEL", 10, 1250, "")
	require.NoError(t, err)
	assert.Nil(t, holding)
}

func TestUpdateHolding(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	account, err := svc.CreateAccount("Stocks", "Broker", 0)
	require.NoError(t, err)

	holding, err := svc.CreateHolding(account.ID, "TEL", 10, 1250, "2024-01-02")
	require.NoError(t, err)
	require.NotNil(t, holding)

	updated, err := svc.UpdateHolding(holding.ID, "TEL", 20, 1225, "2024-01-02")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, 20.0, updated.Shares)
	assert.Equal(t, 1225.0, updated.AcquisitionPrice)

	missing, err := svc.UpdateHolding(999, "TEL", 1, 1, "")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAccountEventsPublished(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	bus := events.NewBus(zerolog.Nop())
	repo := NewRepository(db, zerolog.Nop())
	svc := NewService(repo, bus, zerolog.Nop())

	var got []*events.Event
	for _, eventType := range []events.EventType{events.AccountCreated, events.AccountUpdated, events.AccountDeleted} {
		bus.Subscribe(eventType, func(e *events.Event) {
			got = append(got, e)
		})
	}

	account, err := svc.CreateAccount("Retirement", "Broker", 0)
	require.NoError(t, err)

	_, err = svc.UpdateAccount(account.ID, "Renamed", "Broker")
	require.NoError(t, err)

	deleted, err := svc.DeleteAccount(account.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	require.Len(t, got, 3)
	assert.Equal(t, events.AccountCreated, got[0].Type)
	assert.Equal(t, events.AccountUpdated, got[1].Type)
	assert.Equal(t, events.AccountDeleted, got[2].Type)
	assert.Equal(t, "ledger", got[0].Module)

	// The deletion event carries the name as of deletion
	data, ok := got[2].Data.(*events.AccountChangedData)
	require.True(t, ok)
	assert.Equal(t, account.ID, data.AccountID)
	assert.Equal(t, "Renamed", data.Name)
}

func TestTransactionEventsPublished(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	bus := events.NewBus(zerolog.Nop())
	repo := NewRepository(db, zerolog.Nop())
	svc := NewService(repo, bus, zerolog.Nop())

	var recorded, removed *events.Event
	bus.Subscribe(events.TransactionRecorded, func(e *events.Event) { recorded = e })
	bus.Subscribe(events.TransactionDeleted, func(e *events.Event) { removed = e })

	account, err := svc.CreateAccount("Trading", "Broker", 0)
	require.NoError(t, err)

	txn, err := svc.RecordTransaction(account.ID, "2024-01-02", 250, DirectionDeposit, "")
	require.NoError(t, err)
	require.NotNil(t, txn)

	require.NotNil(t, recorded)
	data, ok := recorded.Data.(*events.TransactionData)
	require.True(t, ok)
	assert.Equal(t, txn.ID, data.TransactionID)
	assert.Equal(t, 250.0, data.Amount)
	assert.False(t, data.Deleted)

	ok2, err := svc.DeleteTransaction(txn.ID)
	require.NoError(t, err)
	assert.True(t, ok2)

	require.NotNil(t, removed)
	data, ok = removed.Data.(*events.TransactionData)
	require.True(t, ok)
	assert.True(t, data.Deleted)
}

func TestHoldingEventsPublished(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	bus := events.NewBus(zerolog.Nop())
	repo := NewRepository(db, zerolog.Nop())
	svc := NewService(repo, bus, zerolog.Nop())

	var got []*events.Event
	bus.Subscribe(events.HoldingChanged, func(e *events.Event) {
		got = append(got, e)
	})

	account, err := svc.CreateAccount("Stocks", "Broker", 0)
	require.NoError(t, err)

	holding, err := svc.CreateHolding(account.ID, "TEL", 10, 1250, "")
	require.NoError(t, err)

	_, err = svc.UpdateHolding(holding.ID, "TEL", 15, 1250, "")
	require.NoError(t, err)

	deleted, err := svc.DeleteHolding(holding.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	require.Len(t, got, 3)
	actions := make([]string, 0, 3)
	for _, e := range got {
		data, ok := e.Data.(*events.HoldingChangedData)
		require.True(t, ok)
		assert.Equal(t, "TEL", data.Symbol)
		actions = append(actions, data.Action)
	}
	assert.Equal(t, []string{"created", "updated", "deleted"}, actions)
}

func TestDeleteAccountUnknown(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	deleted, err := svc.DeleteAccount(999)
	require.NoError(t, err)
	assert.False(t, deleted)
}
