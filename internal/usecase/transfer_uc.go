package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
	"github.com/Flickmart/flickmart-sub000/internal/repository"
	"github.com/Flickmart/flickmart-sub000/pkg/id"
)

// TransferUsecase orchestrates peer-to-peer transfers. A transfer with a
// product selection funds an escrowed order; a transfer without one moves
// money directly between wallets.
type TransferUsecase struct {
	wallets  repository.WalletRepository
	products repository.ProductRepository
	ledger   repository.LedgerRepository
	pins     *PINUsecase
	notifier *Notifier
	logger   *zap.Logger
}

func NewTransferUsecase(
	wallets repository.WalletRepository,
	products repository.ProductRepository,
	ledger repository.LedgerRepository,
	pins *PINUsecase,
	notifier *Notifier,
	logger *zap.Logger,
) *TransferUsecase {
	return &TransferUsecase{
		wallets:  wallets,
		products: products,
		ledger:   ledger,
		pins:     pins,
		notifier: notifier,
		logger:   logger,
	}
}

type TransferRequest struct {
	SellerID   string   `json:"seller_id"`
	Amount     int64    `json:"amount"`
	PIN        string   `json:"pin"`
	ProductIDs []string `json:"product_ids,omitempty"`
}

type TransferResult struct {
	Reference string  `json:"reference"`
	OrderID   *string `json:"order_id,omitempty"`
}

// Transfer validates the request, verifies the PIN, and applies the money
// movement as one atomic journal. The client-reported amount is never
// trusted for product purchases: the selection is re-priced from the catalog
// before any debit.
func (uc *TransferUsecase) Transfer(ctx context.Context, userID string, req *TransferRequest) (*TransferResult, error) {
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if req.SellerID == "" || req.SellerID == userID {
		return nil, domain.ErrInvalidRecipient
	}

	if len(req.ProductIDs) > 0 {
		catalog, err := uc.products.ListByIDs(ctx, req.ProductIDs)
		if err != nil {
			return nil, err
		}
		if err := domain.RevalidateSelection(catalog, req.SellerID, req.ProductIDs, req.Amount); err != nil {
			return nil, err
		}
	}

	if err := uc.pins.Verify(ctx, userID, req.PIN); err != nil {
		return nil, err
	}

	// Fast-path balance check; the real guard is the locked read inside the
	// journal application.
	wallet, err := uc.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !wallet.CanSpend(req.Amount) {
		return nil, domain.ErrInsufficientFunds
	}

	if len(req.ProductIDs) > 0 {
		return uc.escrowTransfer(ctx, userID, req)
	}
	return uc.directTransfer(ctx, userID, req)
}

func (uc *TransferUsecase) escrowTransfer(ctx context.Context, buyerID string, req *TransferRequest) (*TransferResult, error) {
	orderID := id.New("ord")
	ref := id.Reference(id.TagEscrowFreeze)

	journal := &domain.Journal{
		Entries: []domain.JournalEntry{{
			UserID: buyerID,
			Delta:  -req.Amount,
			Transaction: domain.Transaction{
				UserID:         buyerID,
				Type:           domain.TxTypeEscrowFreeze,
				Amount:         req.Amount,
				Reference:      ref,
				Description:    "escrow hold for order",
				OrderID:        &orderID,
				CounterpartyID: &req.SellerID,
			},
		}},
		CreateOrder: &domain.OrderCreation{Order: domain.Order{
			ID:         orderID,
			BuyerID:    buyerID,
			SellerID:   req.SellerID,
			Amount:     req.Amount,
			Currency:   "NGN",
			ProductIDs: req.ProductIDs,
		}},
	}
	if err := uc.ledger.Apply(ctx, journal); err != nil {
		return nil, err
	}

	uc.logger.Info("escrow transfer applied",
		zap.String("buyer_id", buyerID),
		zap.String("seller_id", req.SellerID),
		zap.String("order_id", orderID),
		zap.Int64("amount", req.Amount))

	uc.notifier.Notify(ctx, req.SellerID, domain.NotificationOrderWaiting,
		"New order in escrow",
		"A buyer has paid into escrow. Funds are released once both parties confirm completion.",
		&orderID)

	return &TransferResult{Reference: ref, OrderID: &orderID}, nil
}

func (uc *TransferUsecase) directTransfer(ctx context.Context, senderID string, req *TransferRequest) (*TransferResult, error) {
	outRef := id.Reference(id.TagTransferOut)
	inRef := id.Reference(id.TagTransferIn)

	journal := &domain.Journal{
		Entries: []domain.JournalEntry{
			{
				UserID: senderID,
				Delta:  -req.Amount,
				Transaction: domain.Transaction{
					UserID:         senderID,
					Type:           domain.TxTypeTransferOut,
					Amount:         req.Amount,
					Reference:      outRef,
					Description:    "wallet transfer sent",
					CounterpartyID: &req.SellerID,
				},
			},
			{
				UserID: req.SellerID,
				Delta:  req.Amount,
				Transaction: domain.Transaction{
					UserID:         req.SellerID,
					Type:           domain.TxTypeTransferIn,
					Amount:         req.Amount,
					Reference:      inRef,
					Description:    "wallet transfer received",
					CounterpartyID: &senderID,
				},
			},
		},
	}
	if err := uc.ledger.Apply(ctx, journal); err != nil {
		return nil, err
	}

	uc.logger.Info("direct transfer applied",
		zap.String("sender_id", senderID),
		zap.String("recipient_id", req.SellerID),
		zap.Int64("amount", req.Amount))

	uc.notifier.Notify(ctx, req.SellerID, domain.NotificationWalletCredited,
		"Wallet credited",
		"You received a wallet transfer.",
		nil)

	return &TransferResult{Reference: outRef}, nil
}
