package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
)

type TransactionRepository interface {
	GetByReference(ctx context.Context, reference string) (*domain.Transaction, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error)
	// ListStalePending returns pending transactions of the given type older
	// than olderThanSeconds, for the reconciler sweep.
	ListStalePending(ctx context.Context, txType domain.TransactionType, olderThanSeconds int) ([]domain.Transaction, error)
}

type transactionRepo struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) TransactionRepository {
	return &transactionRepo{db: db}
}

const txColumns = `id, user_id, wallet_id, type, amount, status, reference, gateway_ref,
	description, order_id, counterparty_id, escrow_id, created_at, updated_at`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(
		&t.ID, &t.UserID, &t.WalletID, &t.Type, &t.Amount, &t.Status,
		&t.Reference, &t.GatewayRef, &t.Description,
		&t.OrderID, &t.CounterpartyID, &t.EscrowID,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transactionRepo) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE reference = $1`
	return scanTransaction(r.db.QueryRow(ctx, query, reference))
}

func (r *transactionRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `SELECT ` + txColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *transactionRepo) ListStalePending(ctx context.Context, txType domain.TransactionType, olderThanSeconds int) ([]domain.Transaction, error) {
	query := `SELECT ` + txColumns + `
		FROM transactions
		WHERE status = 'pending' AND type = $1
		  AND created_at < NOW() - make_interval(secs => $2)
		ORDER BY created_at
		LIMIT 100`
	rows, err := r.db.Query(ctx, query, txType, olderThanSeconds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}
