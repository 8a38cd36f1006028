package domain

import "time"

type WalletStatus string

const (
	WalletStatusActive   WalletStatus = "active"
	WalletStatusInactive WalletStatus = "inactive"
	WalletStatusBlocked  WalletStatus = "blocked"
)

// Wallet holds a single balance per user, in minor currency units (kobo).
// The balance is only ever mutated through ledger journals, never directly.
type Wallet struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Balance   int64        `json:"balance"`
	Currency  string       `json:"currency"`
	Status    WalletStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (w *Wallet) CanSpend(amount int64) bool {
	return w.Status == WalletStatusActive && w.Balance >= amount
}
