package handler

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
	"github.com/Flickmart/flickmart-sub000/pkg/response"
)

type errorMapping struct {
	status int
	code   string
}

var errorMappings = []struct {
	err     error
	mapping errorMapping
}{
	{domain.ErrInvalidAmount, errorMapping{http.StatusBadRequest, "invalid_amount"}},
	{domain.ErrInsufficientFunds, errorMapping{http.StatusBadRequest, "insufficient_funds"}},
	{domain.ErrWalletNotFound, errorMapping{http.StatusNotFound, "wallet_not_found"}},
	{domain.ErrWalletInactive, errorMapping{http.StatusForbidden, "wallet_inactive"}},
	{domain.ErrDuplicateReference, errorMapping{http.StatusConflict, "duplicate_reference"}},
	{domain.ErrTransactionNotFound, errorMapping{http.StatusNotFound, "transaction_not_found"}},
	{domain.ErrTransactionNotPending, errorMapping{http.StatusConflict, "transaction_not_pending"}},
	{domain.ErrPINNotSet, errorMapping{http.StatusBadRequest, "pin_not_set"}},
	{domain.ErrPINAlreadySet, errorMapping{http.StatusConflict, "pin_already_set"}},
	{domain.ErrInvalidPIN, errorMapping{http.StatusBadRequest, "invalid_pin"}},
	{domain.ErrPINMismatch, errorMapping{http.StatusBadRequest, "pin_mismatch"}},
	{domain.ErrProductValidation, errorMapping{http.StatusBadRequest, "product_validation_failed"}},
	{domain.ErrInvalidRecipient, errorMapping{http.StatusBadRequest, "invalid_recipient"}},
	{domain.ErrOrderNotFound, errorMapping{http.StatusNotFound, "order_not_found"}},
	{domain.ErrInvalidOrderState, errorMapping{http.StatusConflict, "invalid_order_state"}},
	{domain.ErrNotParticipant, errorMapping{http.StatusForbidden, "not_participant"}},
	{domain.ErrBankAccountNotFound, errorMapping{http.StatusNotFound, "bank_account_not_found"}},
	{domain.ErrCannotDeleteOnlyAccount, errorMapping{http.StatusConflict, "cannot_delete_only_account"}},
	{domain.ErrAccountVerificationFailed, errorMapping{http.StatusBadRequest, "account_verification_failed"}},
	{domain.ErrGatewayUnavailable, errorMapping{http.StatusServiceUnavailable, "gateway_unavailable"}},
	{domain.ErrUnauthorized, errorMapping{http.StatusUnauthorized, "unauthorized"}},
	{domain.ErrSessionNotFound, errorMapping{http.StatusNotFound, "session_not_found"}},
	{domain.ErrInvalidSessionStep, errorMapping{http.StatusConflict, "invalid_session_step"}},
}

// writeError maps a usecase error to an HTTP status and stable error code.
// The PIN guard errors carry structured details so clients never parse
// message text.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var incorrectPIN *domain.IncorrectPINError
	if errors.As(err, &incorrectPIN) {
		response.ErrorWithDetails(w, http.StatusForbidden, "incorrect_pin", incorrectPIN.Error(),
			map[string]int{"remaining_attempts": incorrectPIN.RemainingAttempts})
		return
	}
	var locked *domain.PINLockedError
	if errors.As(err, &locked) {
		response.ErrorWithDetails(w, http.StatusLocked, "pin_locked", locked.Error(),
			map[string]string{"lock_expires_at": locked.LockExpiresAt.Format(time.RFC3339)})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			response.Error(w, m.mapping.status, m.mapping.code, m.err.Error())
			return
		}
	}

	logger.Error("unhandled request error", zap.Error(err))
	response.Error(w, http.StatusInternalServerError, "internal_error", "something went wrong")
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	response.Error(w, http.StatusBadRequest, "bad_request", msg)
}
