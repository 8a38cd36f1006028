package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
)

type OrderRepository interface {
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)
	GetEscrowByOrderID(ctx context.Context, orderID string) (*domain.Escrow, error)
	// SetConfirmation records one party's completion confirmation and
	// returns the updated order. Setting an already-true flag is a no-op.
	SetConfirmation(ctx context.Context, orderID string, asBuyer bool) (*domain.Order, error)
}

type orderRepo struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) OrderRepository {
	return &orderRepo{db: db}
}

const orderColumns = `id, buyer_id, seller_id, amount, currency, product_ids, status,
	buyer_confirmed, seller_confirmed, completed_at, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.BuyerID, &o.SellerID, &o.Amount, &o.Currency, &o.ProductIDs,
		&o.Status, &o.BuyerConfirmedCompletion, &o.SellerConfirmedCompletion,
		&o.CompletedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrder(r.db.QueryRow(ctx, query, orderID))
}

func (r *orderRepo) GetEscrowByOrderID(ctx context.Context, orderID string) (*domain.Escrow, error) {
	var e domain.Escrow
	err := r.db.QueryRow(ctx,
		`SELECT id, order_id, status, released_at, created_at FROM escrows WHERE order_id = $1`,
		orderID).Scan(&e.ID, &e.OrderID, &e.Status, &e.ReleasedAt, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *orderRepo) SetConfirmation(ctx context.Context, orderID string, asBuyer bool) (*domain.Order, error) {
	column := "seller_confirmed"
	if asBuyer {
		column = "buyer_confirmed"
	}
	// The status guard keeps completed/refunded orders immutable.
	query := `UPDATE orders SET ` + column + ` = TRUE, updated_at = NOW()
		WHERE id = $1 AND status = 'in_escrow'
		RETURNING ` + orderColumns
	o, err := scanOrder(r.db.QueryRow(ctx, query, orderID))
	if errors.Is(err, domain.ErrOrderNotFound) {
		// No row matched: either the order is gone or it already left
		// escrow. Re-read to tell the two apart.
		if _, getErr := r.GetByID(ctx, orderID); getErr != nil {
			return nil, getErr
		}
		return nil, domain.ErrInvalidOrderState
	}
	return o, err
}
