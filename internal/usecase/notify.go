package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
	"github.com/Flickmart/flickmart-sub000/internal/repository"
)

// Notifier persists in-app notification records. Delivery failures are
// logged and swallowed: a missed notification must never fail a money
// movement that has already committed.
type Notifier struct {
	repo   repository.NotificationRepository
	logger *zap.Logger
}

func NewNotifier(repo repository.NotificationRepository, logger *zap.Logger) *Notifier {
	return &Notifier{repo: repo, logger: logger}
}

func (n *Notifier) Notify(ctx context.Context, userID string, typ domain.NotificationType, title, body string, orderID *string) {
	err := n.repo.Create(ctx, &domain.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Body:    body,
		OrderID: orderID,
	})
	if err != nil {
		n.logger.Warn("failed to record notification",
			zap.String("user_id", userID),
			zap.String("type", string(typ)),
			zap.Error(err))
	}
}
