package domain

import "time"

type OrderStatus string

const (
	OrderStatusInEscrow  OrderStatus = "in_escrow"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusRefunded  OrderStatus = "refunded"
)

type EscrowStatus string

const (
	EscrowStatusFunded   EscrowStatus = "funded"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusRefunded EscrowStatus = "refunded"
)

// Order represents a purchase of one or more products between a buyer and a
// seller. It becomes completed if and only if both confirmation flags are
// true; once completed the flags and status are immutable.
type Order struct {
	ID                        string      `json:"id"`
	BuyerID                   string      `json:"buyer_id"`
	SellerID                  string      `json:"seller_id"`
	Amount                    int64       `json:"amount"`
	Currency                  string      `json:"currency"`
	ProductIDs                []string    `json:"product_ids"`
	Status                    OrderStatus `json:"status"`
	BuyerConfirmedCompletion  bool        `json:"buyer_confirmed_completion"`
	SellerConfirmedCompletion bool        `json:"seller_confirmed_completion"`
	CompletedAt               *time.Time  `json:"completed_at,omitempty"`
	CreatedAt                 time.Time   `json:"created_at"`
	UpdatedAt                 time.Time   `json:"updated_at"`
}

// Participant reports whether userID is the buyer or seller of the order.
func (o *Order) Participant(userID string) bool {
	return o.BuyerID == userID || o.SellerID == userID
}

// BothConfirmed reports whether the dual-confirmation condition for fund
// release is met.
func (o *Order) BothConfirmed() bool {
	return o.BuyerConfirmedCompletion && o.SellerConfirmedCompletion
}

// Escrow holds funds against an order. There is exactly one escrow per order
// and its status transitions exactly once from funded to a terminal state,
// synchronized with the order transition.
type Escrow struct {
	ID         string       `json:"id"`
	OrderID    string       `json:"order_id"`
	Status     EscrowStatus `json:"status"`
	ReleasedAt *time.Time   `json:"released_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}
