package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by usecases. Handlers map these to stable
// machine-readable codes instead of letting clients sniff message text.
var (
	ErrInvalidAmount             = errors.New("amount must be greater than 0")
	ErrInsufficientFunds         = errors.New("insufficient funds")
	ErrWalletNotFound            = errors.New("wallet not found")
	ErrWalletInactive            = errors.New("wallet is not active")
	ErrCurrencyMismatch          = errors.New("currency mismatch for wallet")
	ErrDuplicateReference        = errors.New("transaction reference already exists")
	ErrTransactionNotFound       = errors.New("transaction not found")
	ErrTransactionNotPending     = errors.New("transaction is not pending")
	ErrPINNotSet                 = errors.New("transaction PIN has not been set")
	ErrPINAlreadySet             = errors.New("transaction PIN already exists")
	ErrInvalidPIN                = errors.New("PIN must be exactly 6 digits")
	ErrPINMismatch               = errors.New("PIN confirmation does not match")
	ErrProductValidation         = errors.New("selected products are invalid or do not belong to the seller")
	ErrInvalidRecipient          = errors.New("transfer recipient is missing or invalid")
	ErrOrderNotFound             = errors.New("order not found")
	ErrInvalidOrderState         = errors.New("order is not in escrow")
	ErrNotParticipant            = errors.New("caller is not a participant in this order")
	ErrBankAccountNotFound       = errors.New("bank account not found")
	ErrCannotDeleteOnlyAccount   = errors.New("cannot delete the only bank account")
	ErrAccountVerificationFailed = errors.New("bank account verification failed")
	ErrGatewayUnavailable        = errors.New("payment gateway unavailable")
	ErrUnauthorized              = errors.New("unauthorized")
	ErrSessionNotFound           = errors.New("transfer session not found")
	ErrInvalidSessionStep        = errors.New("invalid transfer session step")
)

// IncorrectPINError carries the remaining attempt budget so clients can
// render it without parsing the message.
type IncorrectPINError struct {
	RemainingAttempts int
}

func (e *IncorrectPINError) Error() string {
	return fmt.Sprintf("incorrect PIN, %d attempts remaining", e.RemainingAttempts)
}

// PINLockedError is returned while the PIN guard is in lockout.
type PINLockedError struct {
	LockExpiresAt time.Time
}

func (e *PINLockedError) Error() string {
	return fmt.Sprintf("PIN locked until %s", e.LockExpiresAt.Format(time.RFC3339))
}
