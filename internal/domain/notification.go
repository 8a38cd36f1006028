package domain

import "time"

type NotificationType string

const (
	NotificationOrderWaiting   NotificationType = "order_waiting_confirmation"
	NotificationOrderCompleted NotificationType = "order_completed"
	NotificationOrderRefunded  NotificationType = "order_refunded"
	NotificationWalletCredited NotificationType = "wallet_credited"
)

// Notification is an in-app notification record. Push delivery is handled
// elsewhere; this service only persists the event.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	OrderID   *string          `json:"order_id,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}
