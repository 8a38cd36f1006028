package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
	"github.com/Flickmart/flickmart-sub000/internal/repository"
)

// WalletUsecase serves balance, history, and notification reads.
type WalletUsecase struct {
	wallets       repository.WalletRepository
	transactions  repository.TransactionRepository
	notifications repository.NotificationRepository
	logger        *zap.Logger
}

func NewWalletUsecase(
	wallets repository.WalletRepository,
	transactions repository.TransactionRepository,
	notifications repository.NotificationRepository,
	logger *zap.Logger,
) *WalletUsecase {
	return &WalletUsecase{
		wallets:       wallets,
		transactions:  transactions,
		notifications: notifications,
		logger:        logger,
	}
}

// GetWallet returns the caller's wallet, creating an empty one on first use.
func (uc *WalletUsecase) GetWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	return uc.wallets.EnsureWallet(ctx, userID, "NGN")
}

func (uc *WalletUsecase) History(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error) {
	return uc.transactions.ListByUser(ctx, userID, limit, offset)
}

func (uc *WalletUsecase) GetTransaction(ctx context.Context, userID, reference string) (*domain.Transaction, error) {
	t, err := uc.transactions.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}
	return t, nil
}

func (uc *WalletUsecase) Notifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	return uc.notifications.ListByUser(ctx, userID, limit)
}
