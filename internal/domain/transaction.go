package domain

import (
	"errors"
	"time"
)

type TransactionType string

const (
	TxTypeFunding       TransactionType = "funding"
	TxTypeWithdrawal    TransactionType = "withdrawal"
	TxTypeTransferIn    TransactionType = "transfer_in"
	TxTypeTransferOut   TransactionType = "transfer_out"
	TxTypeEscrowFreeze  TransactionType = "escrow_freeze"
	TxTypeEscrowRelease TransactionType = "escrow_release"
	TxTypeEscrowRefund  TransactionType = "escrow_refund"
)

type TransactionStatus string

const (
	TxStatusPending   TransactionStatus = "pending"
	TxStatusSuccess   TransactionStatus = "success"
	TxStatusFailed    TransactionStatus = "failed"
	TxStatusCancelled TransactionStatus = "cancelled"
)

// Terminal reports whether the status may no longer change.
func (s TransactionStatus) Terminal() bool {
	return s == TxStatusSuccess || s == TxStatusFailed || s == TxStatusCancelled
}

// Transaction is an append-only record of a balance-affecting event.
// Reference is globally unique and acts as the idempotency key: a second
// event carrying the same reference must never re-apply a balance change.
type Transaction struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	WalletID    string            `json:"wallet_id"`
	Type        TransactionType   `json:"type"`
	Amount      int64             `json:"amount"`
	Status      TransactionStatus `json:"status"`
	Reference   string            `json:"reference"`
	GatewayRef  *string           `json:"gateway_ref,omitempty"`
	Description string            `json:"description"`

	OrderID        *string `json:"order_id,omitempty"`
	CounterpartyID *string `json:"counterparty_id,omitempty"`
	EscrowID       *string `json:"escrow_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Transaction) Validate() error {
	if t.UserID == "" {
		return errors.New("user_id is required")
	}
	if t.Reference == "" {
		return errors.New("reference is required")
	}
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	switch t.Type {
	case TxTypeFunding, TxTypeWithdrawal, TxTypeTransferIn, TxTypeTransferOut,
		TxTypeEscrowFreeze, TxTypeEscrowRelease, TxTypeEscrowRefund:
	default:
		return errors.New("unknown transaction type")
	}
	return nil
}
