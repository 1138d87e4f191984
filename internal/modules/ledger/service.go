package ledger

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/vigil/internal/events"
	"github.com/aristath/vigil/internal/utils"
)

// Service provides ledger operations above the repository: account
// lifecycle, transaction recording with principal recomputation, and
// holding lot maintenance. Mutations publish domain events.
type Service struct {
	repo *Repository
	bus  *events.Bus
	log  zerolog.Logger
}

// NewService creates a new ledger service
func NewService(repo *Repository, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		bus:  bus,
		log:  log.With().Str("service", "ledger").Logger(),
	}
}

// CreateAccount creates a new investment account. A positive initial
// amount also records an opening deposit so the principal starts correct.
func (s *Service) CreateAccount(name, platform string, initialAmount float64) (*InvestmentAccount, error) {
	account, err := s.repo.CreateAccount(&InvestmentAccount{
		Name:     name,
		Platform: platform,
		Balance:  initialAmount,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if initialAmount > 0 {
		_, err := s.repo.CreateTransaction(&Transaction{
			AccountID: account.ID,
			Date:      utils.FormatDay(utils.Today()),
			Amount:    initialAmount,
			Direction: DirectionDeposit,
			Note:      "Initial deposit",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to record initial deposit: %w", err)
		}

		account, err = s.repo.GetAccount(account.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload account: %w", err)
		}
	}

	s.log.Info().
		Int64("account_id", account.ID).
		Str("name", account.Name).
		Msg("Created investment account")

	s.publishAccountEvent(account.ID, account.Name, "created")
	return account, nil
}

// GetAccount returns one account, or nil when the ID is unknown
func (s *Service) GetAccount(id int64) (*InvestmentAccount, error) {
	return s.repo.GetAccount(id)
}

// Accounts returns all accounts
func (s *Service) Accounts() ([]InvestmentAccount, error) {
	return s.repo.GetAllAccounts()
}

// UpdateAccount renames an account. Returns nil when the ID is unknown.
func (s *Service) UpdateAccount(id int64, name, platform string) (*InvestmentAccount, error) {
	account, err := s.repo.GetAccount(id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, nil
	}

	if err := s.repo.UpdateAccount(id, name, platform); err != nil {
		return nil, err
	}

	account, err = s.repo.GetAccount(id)
	if err != nil {
		return nil, err
	}

	s.publishAccountEvent(id, name, "updated")
	return account, nil
}

// UpdateBalance sets the account's current value as reported by the
// platform. Returns nil when the ID is unknown.
func (s *Service) UpdateBalance(id int64, balance float64) (*InvestmentAccount, error) {
	account, err := s.repo.GetAccount(id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, nil
	}

	if err := s.repo.SetBalance(id, balance); err != nil {
		return nil, err
	}

	account, err = s.repo.GetAccount(id)
	if err != nil {
		return nil, err
	}

	s.publishAccountEvent(id, account.Name, "updated")
	return account, nil
}

// DeleteAccount removes an account with all its transactions and
// holdings. Returns false when the ID is unknown.
func (s *Service) DeleteAccount(id int64) (bool, error) {
	account, err := s.repo.GetAccount(id)
	if err != nil {
		return false, err
	}
	if account == nil {
		return false, nil
	}

	deleted, err := s.repo.DeleteAccountCascade(id)
	if err != nil {
		return false, err
	}

	if deleted {
		s.publishAccountEvent(id, account.Name, "deleted")
	}

	return deleted, nil
}

// RecordTransaction records a deposit or withdrawal against an account
// and recomputes its principal. Returns nil when the account is unknown.
func (s *Service) RecordTransaction(accountID int64, date string, amount float64, direction, note string) (*Transaction, error) {
	exists, err := s.repo.AccountExists(accountID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	txn, err := s.repo.CreateTransaction(&Transaction{
		AccountID: accountID,
		Date:      date,
		Amount:    amount,
		Direction: direction,
		Note:      note,
	})
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.PublishData("ledger", &events.TransactionData{
			TransactionID: txn.ID,
			AccountID:     txn.AccountID,
			Amount:        txn.Amount,
			Direction:     txn.Direction,
		})
	}

	return txn, nil
}

// Transactions returns an account's transactions, newest first
func (s *Service) Transactions(accountID int64) ([]Transaction, error) {
	return s.repo.GetTransactionsByAccount(accountID)
}

// DeleteTransaction removes a transaction and recomputes the owning
// account's principal. Returns false when the ID is unknown.
func (s *Service) DeleteTransaction(id int64) (bool, error) {
	txn, err := s.repo.DeleteTransaction(id)
	if err != nil {
		return false, err
	}
	if txn == nil {
		return false, nil
	}

	if s.bus != nil {
		s.bus.PublishData("ledger", &events.TransactionData{
			TransactionID: txn.ID,
			AccountID:     txn.AccountID,
			Amount:        txn.Amount,
			Direction:     txn.Direction,
			Deleted:       true,
		})
	}

	return true, nil
}

// CreateHolding adds a holding lot to an account.
// Returns nil when the account is unknown.
func (s *Service) CreateHolding(accountID int64, symbol string, shares, acquisitionPrice float64, acquiredAt string) (*HoldingLot, error) {
	exists, err := s.repo.AccountExists(accountID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	holding, err := s.repo.CreateHolding(&HoldingLot{
		AccountID:        accountID,
		Symbol:           symbol,
		Shares:           shares,
		AcquisitionPrice: acquisitionPrice,
		AcquiredAt:       acquiredAt,
	})
	if err != nil {
		return nil, err
	}

	s.publishHoldingEvent(holding, "created")
	return holding, nil
}

// Holdings returns an account's holding lots
func (s *Service) Holdings(accountID int64) ([]HoldingLot, error) {
	return s.repo.GetHoldingsByAccount(accountID)
}

// AllHoldings returns every holding lot across all accounts
func (s *Service) AllHoldings() ([]HoldingLot, error) {
	return s.repo.GetAllHoldings()
}

// UpdateHolding replaces a holding lot's mutable fields.
// Returns nil when the ID is unknown.
func (s *Service) UpdateHolding(id int64, symbol string, shares, acquisitionPrice float64, acquiredAt string) (*HoldingLot, error) {
	holding, err := s.repo.GetHolding(id)
	if err != nil {
		return nil, err
	}
	if holding == nil {
		return nil, nil
	}

	holding.Symbol = symbol
	holding.Shares = shares
	holding.AcquisitionPrice = acquisitionPrice
	holding.AcquiredAt = acquiredAt

	if err := s.repo.UpdateHolding(holding); err != nil {
		return nil, err
	}

	holding, err = s.repo.GetHolding(id)
	if err != nil {
		return nil, err
	}

	s.publishHoldingEvent(holding, "updated")
	return holding, nil
}

// DeleteHolding removes a holding lot. Returns false when the ID is unknown.
func (s *Service) DeleteHolding(id int64) (bool, error) {
	holding, err := s.repo.GetHolding(id)
	if err != nil {
		return false, err
	}
	if holding == nil {
		return false, nil
	}

	deleted, err := s.repo.DeleteHolding(id)
	if err != nil {
		return false, err
	}

	if deleted {
		s.publishHoldingEvent(holding, "deleted")
	}

	return deleted, nil
}

func (s *Service) publishAccountEvent(accountID int64, name, action string) {
	if s.bus == nil {
		return
	}

	s.bus.PublishData("ledger", &events.AccountChangedData{
		AccountID: accountID,
		Name:      name,
		Action:    action,
	})
}

func (s *Service) publishHoldingEvent(holding *HoldingLot, action string) {
	if s.bus == nil {
		return
	}

	s.bus.PublishData("ledger", &events.HoldingChangedData{
		HoldingID: holding.ID,
		AccountID: holding.AccountID,
		Symbol:    holding.Symbol,
		Action:    action,
	})
}
