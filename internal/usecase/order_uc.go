package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
	"github.com/Flickmart/flickmart-sub000/internal/repository"
	"github.com/Flickmart/flickmart-sub000/pkg/id"
)

// Confirmation outcomes returned by ConfirmCompletion.
const (
	ConfirmationWaiting   = "waiting_for_other_party"
	ConfirmationCompleted = "completed"
)

// OrderUsecase drives the dual-confirmation escrow state machine. Funds
// leave escrow exactly once, either to the seller on completion or back to
// the buyer on refund.
type OrderUsecase struct {
	orders   repository.OrderRepository
	ledger   repository.LedgerRepository
	notifier *Notifier
	logger   *zap.Logger
}

func NewOrderUsecase(
	orders repository.OrderRepository,
	ledger repository.LedgerRepository,
	notifier *Notifier,
	logger *zap.Logger,
) *OrderUsecase {
	return &OrderUsecase{orders: orders, ledger: ledger, notifier: notifier, logger: logger}
}

type OrderDetail struct {
	Order  *domain.Order  `json:"order"`
	Escrow *domain.Escrow `json:"escrow"`
}

func (uc *OrderUsecase) Get(ctx context.Context, userID, orderID string) (*OrderDetail, error) {
	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Participant(userID) {
		return nil, domain.ErrNotParticipant
	}
	escrow, err := uc.orders.GetEscrowByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{Order: order, Escrow: escrow}, nil
}

// ConfirmCompletion records the caller's confirmation. When the second
// confirmation arrives the seller is credited and the order completes; the
// status-guarded transition inside the journal makes the release fire
// exactly once even when both parties confirm concurrently.
func (uc *OrderUsecase) ConfirmCompletion(ctx context.Context, userID, orderID string) (string, error) {
	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if !order.Participant(userID) {
		return "", domain.ErrNotParticipant
	}
	if order.Status != domain.OrderStatusInEscrow {
		return "", domain.ErrInvalidOrderState
	}

	updated, err := uc.orders.SetConfirmation(ctx, orderID, userID == order.BuyerID)
	if err != nil {
		return "", err
	}

	if !updated.BothConfirmed() {
		other := otherParty(updated, userID)
		uc.notifier.Notify(ctx, other, domain.NotificationOrderWaiting,
			"Order confirmation needed",
			"The other party has confirmed completion. Confirm on your side to release the funds.",
			&updated.ID)
		return ConfirmationWaiting, nil
	}

	ref := id.Reference(id.TagTransferIn)
	journal := &domain.Journal{
		Entries: []domain.JournalEntry{{
			UserID: updated.SellerID,
			Delta:  updated.Amount,
			Transaction: domain.Transaction{
				UserID:         updated.SellerID,
				Type:           domain.TxTypeTransferIn,
				Amount:         updated.Amount,
				Reference:      ref,
				Description:    "escrow release",
				OrderID:        &updated.ID,
				CounterpartyID: &updated.BuyerID,
			},
		}},
		Transition: &domain.OrderTransition{
			OrderID:      updated.ID,
			OrderStatus:  domain.OrderStatusCompleted,
			EscrowStatus: domain.EscrowStatusReleased,
		},
	}
	if err := uc.ledger.Apply(ctx, journal); err != nil {
		// A concurrent confirmation already released the escrow; this
		// caller's confirmation still counted, so report completion.
		if errors.Is(err, domain.ErrInvalidOrderState) {
			return ConfirmationCompleted, nil
		}
		return "", err
	}

	uc.logger.Info("escrow released",
		zap.String("order_id", updated.ID),
		zap.String("seller_id", updated.SellerID),
		zap.Int64("amount", updated.Amount))

	uc.notifier.Notify(ctx, updated.SellerID, domain.NotificationOrderCompleted,
		"Order completed",
		"Both parties confirmed. The escrowed funds are now in your wallet.",
		&updated.ID)
	uc.notifier.Notify(ctx, updated.BuyerID, domain.NotificationOrderCompleted,
		"Order completed",
		"Both parties confirmed and the order is complete.",
		&updated.ID)

	return ConfirmationCompleted, nil
}

// Refund returns escrowed funds to the buyer. The seller may refund at any
// time before completion; the buyer may refund only while the seller has not
// yet confirmed completion.
func (uc *OrderUsecase) Refund(ctx context.Context, userID, orderID string) error {
	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.Participant(userID) {
		return domain.ErrNotParticipant
	}
	if order.Status != domain.OrderStatusInEscrow {
		return domain.ErrInvalidOrderState
	}
	if userID == order.BuyerID && order.SellerConfirmedCompletion {
		return domain.ErrInvalidOrderState
	}

	ref := id.Reference(id.TagEscrowRefund)
	journal := &domain.Journal{
		Entries: []domain.JournalEntry{{
			UserID: order.BuyerID,
			Delta:  order.Amount,
			Transaction: domain.Transaction{
				UserID:         order.BuyerID,
				Type:           domain.TxTypeEscrowRefund,
				Amount:         order.Amount,
				Reference:      ref,
				Description:    "escrow refund",
				OrderID:        &order.ID,
				CounterpartyID: &order.SellerID,
			},
		}},
		Transition: &domain.OrderTransition{
			OrderID:      order.ID,
			OrderStatus:  domain.OrderStatusRefunded,
			EscrowStatus: domain.EscrowStatusRefunded,
		},
	}
	if err := uc.ledger.Apply(ctx, journal); err != nil {
		return err
	}

	uc.logger.Info("escrow refunded",
		zap.String("order_id", order.ID),
		zap.String("buyer_id", order.BuyerID),
		zap.Int64("amount", order.Amount))

	uc.notifier.Notify(ctx, order.BuyerID, domain.NotificationOrderRefunded,
		"Order refunded",
		"The escrowed funds have been returned to your wallet.",
		&order.ID)
	uc.notifier.Notify(ctx, order.SellerID, domain.NotificationOrderRefunded,
		"Order refunded",
		"The order was refunded to the buyer.",
		&order.ID)

	return nil
}

func otherParty(o *domain.Order, userID string) string {
	if o.BuyerID == userID {
		return o.SellerID
	}
	return o.BuyerID
}
