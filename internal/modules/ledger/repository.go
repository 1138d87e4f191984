package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/vigil/internal/database"
	"github.com/aristath/vigil/internal/utils"
)

// Repository handles account, transaction and holding persistence
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new ledger repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
	}
}

// CreateAccount inserts a new account and returns it with its ID set
func (r *Repository) CreateAccount(account *InvestmentAccount) (*InvestmentAccount, error) {
	now := time.Now().Format("2006-01-02 15:04:05")

	result, err := r.db.Exec(
		`INSERT INTO accounts (name, platform, principal, balance, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		account.Name,
		account.Platform,
		account.Principal,
		account.Balance,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	account.ID = id
	account.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", now)
	account.UpdatedAt = account.CreatedAt
	account.ProfitLoss = account.Balance - account.Principal

	return account, nil
}

// GetAccount retrieves an account by ID.
// Returns nil if no such account exists (not an error).
func (r *Repository) GetAccount(id int64) (*InvestmentAccount, error) {
	query := `
		SELECT id, name, platform, principal, balance, created_at, updated_at
		FROM accounts
		WHERE id = ?
	`

	var account InvestmentAccount
	var createdAt, updatedAt string

	err := r.db.QueryRow(query, id).Scan(
		&account.ID,
		&account.Name,
		&account.Platform,
		&account.Principal,
		&account.Balance,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	account.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
	account.UpdatedAt, _ = time.Parse("2006-01-02 15:04:05", updatedAt)
	account.ProfitLoss = account.Balance - account.Principal

	return &account, nil
}

// GetAllAccounts returns all accounts sorted by name
func (r *Repository) GetAllAccounts() ([]InvestmentAccount, error) {
	query := `
		SELECT id, name, platform, principal, balance, created_at, updated_at
		FROM accounts
		ORDER BY name
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []InvestmentAccount
	for rows.Next() {
		var account InvestmentAccount
		var createdAt, updatedAt string

		err := rows.Scan(
			&account.ID,
			&account.Name,
			&account.Platform,
			&account.Principal,
			&account.Balance,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}

		account.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		account.UpdatedAt, _ = time.Parse("2006-01-02 15:04:05", updatedAt)
		account.ProfitLoss = account.Balance - account.Principal
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// AccountExists checks whether an account ID is present
func (r *Repository) AccountExists(id int64) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM accounts WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}
	return count > 0, nil
}

// UpdateAccount updates the account's name and platform
func (r *Repository) UpdateAccount(id int64, name, platform string) error {
	now := time.Now().Format("2006-01-02 15:04:05")

	_, err := r.db.Exec(
		"UPDATE accounts SET name = ?, platform = ?, updated_at = ? WHERE id = ?",
		name, platform, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	return nil
}

// SetBalance updates the account's current value as reported by the platform
func (r *Repository) SetBalance(id int64, balance float64) error {
	now := time.Now().Format("2006-01-02 15:04:05")

	_, err := r.db.Exec(
		"UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ?",
		balance, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set account balance: %w", err)
	}

	return nil
}

// DeleteAccountCascade removes an account together with all its
// transactions and holding lots in a single database transaction.
// All rows go or none do; a failure partway leaves nothing deleted.
// Returns false when the account did not exist.
func (r *Repository) DeleteAccountCascade(id int64) (bool, error) {
	existed := false

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRow("SELECT COUNT(*) FROM accounts WHERE id = ?", id).Scan(&count); err != nil {
			return fmt.Errorf("failed to check account: %w", err)
		}
		if count == 0 {
			return nil
		}
		existed = true

		// Children first so the account row never orphans them
		if _, err := tx.Exec("DELETE FROM holdings WHERE account_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete holdings: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM transactions WHERE account_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete transactions: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM accounts WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete account: %w", err)
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	if existed {
		r.log.Info().Int64("account_id", id).Msg("Deleted account with transactions and holdings")
	}

	return existed, nil
}

// CreateTransaction inserts a transaction and recomputes the owning
// account's principal in the same database transaction.
func (r *Repository) CreateTransaction(txn *Transaction) (*Transaction, error) {
	dateUnix, err := utils.ParseDay(txn.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transaction date: %w", err)
	}

	createdAt := time.Now().Format("2006-01-02 15:04:05")

	err = database.WithTransaction(r.db, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			`INSERT INTO transactions (account_id, date, amount, direction, note, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			txn.AccountID,
			dateUnix,
			txn.Amount,
			txn.Direction,
			txn.Note,
			createdAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert ID: %w", err)
		}
		txn.ID = id

		return r.recomputePrincipal(tx, txn.AccountID)
	})
	if err != nil {
		return nil, err
	}

	txn.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
	return txn, nil
}

// GetTransaction retrieves a transaction by ID.
// Returns nil if no such transaction exists (not an error).
func (r *Repository) GetTransaction(id int64) (*Transaction, error) {
	query := `
		SELECT id, account_id, date, amount, direction, note, created_at
		FROM transactions
		WHERE id = ?
	`

	var txn Transaction
	var dateUnix int64
	var note sql.NullString
	var createdAt string

	err := r.db.QueryRow(query, id).Scan(
		&txn.ID,
		&txn.AccountID,
		&dateUnix,
		&txn.Amount,
		&txn.Direction,
		&note,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	txn.Date = utils.FormatDay(dateUnix)
	txn.Note = note.String
	txn.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)

	return &txn, nil
}

// GetTransactionsByAccount returns an account's transactions, newest first
func (r *Repository) GetTransactionsByAccount(accountID int64) ([]Transaction, error) {
	query := `
		SELECT id, account_id, date, amount, direction, note, created_at
		FROM transactions
		WHERE account_id = ?
		ORDER BY date DESC, id DESC
	`

	rows, err := r.db.Query(query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		var txn Transaction
		var dateUnix int64
		var note sql.NullString
		var createdAt string

		err := rows.Scan(
			&txn.ID,
			&txn.AccountID,
			&dateUnix,
			&txn.Amount,
			&txn.Direction,
			&note,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		txn.Date = utils.FormatDay(dateUnix)
		txn.Note = note.String
		txn.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		transactions = append(transactions, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// DeleteTransaction removes a transaction and recomputes the owning
// account's principal in the same database transaction.
// Returns the deleted transaction, or nil if it did not exist.
func (r *Repository) DeleteTransaction(id int64) (*Transaction, error) {
	txn, err := r.GetTransaction(id)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, nil
	}

	err = database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM transactions WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete transaction: %w", err)
		}
		return r.recomputePrincipal(tx, txn.AccountID)
	})
	if err != nil {
		return nil, err
	}

	return txn, nil
}

// recomputePrincipal recalculates the account's principal from its
// remaining transactions. Runs inside the caller's transaction so the
// stored figure can never go stale relative to the rows it summarizes.
func (r *Repository) recomputePrincipal(tx *sql.Tx, accountID int64) error {
	query := `
		UPDATE accounts
		SET principal = (
			SELECT COALESCE(SUM(CASE WHEN direction = 'withdrawal' THEN -amount ELSE amount END), 0)
			FROM transactions
			WHERE account_id = ?
		), updated_at = ?
		WHERE id = ?
	`

	now := time.Now().Format("2006-01-02 15:04:05")
	if _, err := tx.Exec(query, accountID, now, accountID); err != nil {
		return fmt.Errorf("failed to recompute principal: %w", err)
	}

	return nil
}

// CreateHolding inserts a new holding lot and returns it with its ID set
func (r *Repository) CreateHolding(holding *HoldingLot) (*HoldingLot, error) {
	acquiredAt, err := nullableDay(holding.AcquiredAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse acquired date: %w", err)
	}

	now := time.Now().Format("2006-01-02 15:04:05")

	result, err := r.db.Exec(
		`INSERT INTO holdings (account_id, symbol, shares, acquisition_price, acquired_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		holding.AccountID,
		holding.Symbol,
		holding.Shares,
		holding.AcquisitionPrice,
		acquiredAt,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert holding: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	holding.ID = id
	holding.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", now)
	holding.UpdatedAt = holding.CreatedAt

	return holding, nil
}

// GetHolding retrieves a holding lot by ID.
// Returns nil if no such holding exists (not an error).
func (r *Repository) GetHolding(id int64) (*HoldingLot, error) {
	query := `
		SELECT id, account_id, symbol, shares, acquisition_price, acquired_at, created_at, updated_at
		FROM holdings
		WHERE id = ?
	`

	rows, err := r.db.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	defer rows.Close()

	holdings, err := r.scanHoldings(rows)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return nil, nil
	}

	return &holdings[0], nil
}

// GetHoldingsByAccount returns an account's holding lots sorted by symbol
func (r *Repository) GetHoldingsByAccount(accountID int64) ([]HoldingLot, error) {
	query := `
		SELECT id, account_id, symbol, shares, acquisition_price, acquired_at, created_at, updated_at
		FROM holdings
		WHERE account_id = ?
		ORDER BY symbol, id
	`

	rows, err := r.db.Query(query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	return r.scanHoldings(rows)
}

// GetAllHoldings returns every holding lot across all accounts
func (r *Repository) GetAllHoldings() ([]HoldingLot, error) {
	query := `
		SELECT id, account_id, symbol, shares, acquisition_price, acquired_at, created_at, updated_at
		FROM holdings
		ORDER BY symbol, account_id, id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	return r.scanHoldings(rows)
}

// UpdateHolding updates a holding lot's mutable fields
func (r *Repository) UpdateHolding(holding *HoldingLot) error {
	acquiredAt, err := nullableDay(holding.AcquiredAt)
	if err != nil {
		return fmt.Errorf("failed to parse acquired date: %w", err)
	}

	now := time.Now().Format("2006-01-02 15:04:05")

	_, err = r.db.Exec(
		`UPDATE holdings
		 SET symbol = ?, shares = ?, acquisition_price = ?, acquired_at = ?, updated_at = ?
		 WHERE id = ?`,
		holding.Symbol,
		holding.Shares,
		holding.AcquisitionPrice,
		acquiredAt,
		now,
		holding.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}

	return nil
}

// DeleteHolding removes a holding lot, reporting whether it existed
func (r *Repository) DeleteHolding(id int64) (bool, error) {
	result, err := r.db.Exec("DELETE FROM holdings WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete holding: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// scanHoldings is a helper to scan multiple holding rows
func (r *Repository) scanHoldings(rows *sql.Rows) ([]HoldingLot, error) {
	var holdings []HoldingLot

	for rows.Next() {
		var holding HoldingLot
		var acquiredAt sql.NullInt64
		var createdAt, updatedAt string

		err := rows.Scan(
			&holding.ID,
			&holding.AccountID,
			&holding.Symbol,
			&holding.Shares,
			&holding.AcquisitionPrice,
			&acquiredAt,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}

		if acquiredAt.Valid {
			holding.AcquiredAt = utils.FormatDay(acquiredAt.Int64)
		}
		holding.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		holding.UpdatedAt, _ = time.Parse("2006-01-02 15:04:05", updatedAt)
		holdings = append(holdings, holding)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// nullableDay converts an optional YYYY-MM-DD string to a nullable unix day
func nullableDay(day string) (interface{}, error) {
	if day == "" {
		return nil, nil
	}

	unix, err := utils.ParseDay(day)
	if err != nil {
		return nil, err
	}

	return unix, nil
}
