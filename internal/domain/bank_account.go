package domain

import "time"

// BankAccount is a withdrawal destination. A user holds at most one default
// account; the last remaining account cannot be deleted.
type BankAccount struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	AccountNumber string    `json:"account_number"`
	AccountName   string    `json:"account_name"`
	BankCode      string    `json:"bank_code"`
	BankName      string    `json:"bank_name"`
	RecipientCode *string   `json:"recipient_code,omitempty"`
	Verified      bool      `json:"verified"`
	IsDefault     bool      `json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
}

// Bank is a gateway-provided bank listing entry.
type Bank struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Slug string `json:"slug"`
}
