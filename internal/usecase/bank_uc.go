package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
	"github.com/Flickmart/flickmart-sub000/internal/repository"
	"github.com/Flickmart/flickmart-sub000/pkg/cache"
)

const (
	bankListNamespace = "banks"
	bankListKey       = "ng"
	bankListTTL       = 24 * time.Hour
)

// BankUsecase manages the bank directory and saved withdrawal accounts.
type BankUsecase struct {
	accounts repository.BankAccountRepository
	gateway  PaymentGateway
	cache    *cache.Cache
	logger   *zap.Logger
}

func NewBankUsecase(
	accounts repository.BankAccountRepository,
	gateway PaymentGateway,
	c *cache.Cache,
	logger *zap.Logger,
) *BankUsecase {
	return &BankUsecase{accounts: accounts, gateway: gateway, cache: c, logger: logger}
}

// ListBanks serves the gateway bank directory through a daily cache; the
// directory changes rarely and the gateway rate-limits the endpoint.
func (uc *BankUsecase) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	var banks []domain.Bank
	err := uc.cache.GetJSON(ctx, bankListNamespace, bankListKey, &banks)
	if err == nil {
		return banks, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		uc.logger.Warn("bank list cache read failed", zap.Error(err))
	}

	banks, err = uc.gateway.ListBanks(ctx)
	if err != nil {
		return nil, err
	}
	if err := uc.cache.SetJSON(ctx, bankListNamespace, bankListKey, banks, bankListTTL); err != nil {
		uc.logger.Warn("bank list cache write failed", zap.Error(err))
	}
	return banks, nil
}

type ResolvedAccount struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// ResolveAccount confirms account ownership with the gateway before the
// account can be saved or paid out to.
func (uc *BankUsecase) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*ResolvedAccount, error) {
	resolved, err := uc.gateway.ResolveAccount(ctx, accountNumber, bankCode)
	if errors.Is(err, domain.ErrGatewayUnavailable) {
		return nil, err
	}
	if err != nil {
		return nil, domain.ErrAccountVerificationFailed
	}
	return &ResolvedAccount{
		AccountNumber: resolved.AccountNumber,
		AccountName:   resolved.AccountName,
	}, nil
}

type AddAccountRequest struct {
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	BankName      string `json:"bank_name"`
	IsDefault     bool   `json:"is_default"`
}

// AddAccount resolves the account with the gateway and saves it under the
// resolved name. Unresolvable accounts are never stored.
func (uc *BankUsecase) AddAccount(ctx context.Context, userID string, req *AddAccountRequest) (*domain.BankAccount, error) {
	resolved, err := uc.ResolveAccount(ctx, req.AccountNumber, req.BankCode)
	if err != nil {
		return nil, err
	}

	account := &domain.BankAccount{
		UserID:        userID,
		AccountNumber: resolved.AccountNumber,
		AccountName:   resolved.AccountName,
		BankCode:      req.BankCode,
		BankName:      req.BankName,
		Verified:      true,
		IsDefault:     req.IsDefault,
	}
	if err := uc.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	uc.logger.Info("bank account added",
		zap.String("user_id", userID),
		zap.String("account_id", account.ID),
		zap.String("bank_code", account.BankCode))
	return account, nil
}

func (uc *BankUsecase) ListAccounts(ctx context.Context, userID string) ([]domain.BankAccount, error) {
	return uc.accounts.ListByUser(ctx, userID)
}

func (uc *BankUsecase) DeleteAccount(ctx context.Context, userID, accountID string) error {
	return uc.accounts.Delete(ctx, userID, accountID)
}
