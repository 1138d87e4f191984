package ledger

import (
	"time"
)

// Transaction directions
const (
	DirectionDeposit    = "deposit"
	DirectionWithdrawal = "withdrawal"
)

// InvestmentAccount represents one brokerage or savings account.
// Principal is the running sum of deposits minus withdrawals; Balance
// is the current value as reported by the platform, set by the user.
type InvestmentAccount struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Platform   string    `json:"platform"`
	Principal  float64   `json:"principal"`
	Balance    float64   `json:"balance"`
	ProfitLoss float64   `json:"profit_loss"` // Balance minus Principal
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Transaction is one deposit into or withdrawal from an account.
// Amount is always positive; Direction carries the sign.
type Transaction struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Amount    float64   `json:"amount"`
	Direction string    `json:"direction"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HoldingLot is a position in one symbol held by one account
type HoldingLot struct {
	ID               int64     `json:"id"`
	AccountID        int64     `json:"account_id"`
	Symbol           string    `json:"symbol"`
	Shares           float64   `json:"shares"`
	AcquisitionPrice float64   `json:"acquisition_price"`
	AcquiredAt       string    `json:"acquired_at,omitempty"` // YYYY-MM-DD, may be empty
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CostBasis returns shares times acquisition price
func (h *HoldingLot) CostBasis() float64 {
	return h.Shares * h.AcquisitionPrice
}
