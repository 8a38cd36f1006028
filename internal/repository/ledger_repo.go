package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
	"github.com/Flickmart/flickmart-sub000/pkg/id"
)

// LedgerRepository owns every balance mutation. Each method runs a single
// database transaction; wallet rows are locked FOR UPDATE so the
// balance-never-negative and release-exactly-once invariants hold under
// concurrent requests.
type LedgerRepository interface {
	// Apply executes a journal atomically: all wallet deltas, their paired
	// transaction rows, and any order/escrow creation or transition commit
	// together or not at all.
	Apply(ctx context.Context, j *domain.Journal) error
	// RecordPending inserts a pending transaction without touching any
	// balance (used for gateway deposits awaiting verification).
	RecordPending(ctx context.Context, t *domain.Transaction) error
	// SettleFunding credits the wallet for a pending funding transaction and
	// marks it success. Replays (same reference, already terminal) return
	// applied=false without re-applying the balance change.
	SettleFunding(ctx context.Context, reference string, gatewayRef string) (applied bool, err error)
	// CancelPending moves an owner's pending transaction to cancelled.
	CancelPending(ctx context.Context, userID, reference string) error
	// MarkFailed moves a pending transaction to failed.
	MarkFailed(ctx context.Context, reference string) error
}

type ledgerRepo struct {
	db *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) LedgerRepository {
	return &ledgerRepo{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *ledgerRepo) Apply(ctx context.Context, j *domain.Journal) error {
	if err := j.Validate(); err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := range j.Entries {
		if err := applyEntry(ctx, tx, &j.Entries[i]); err != nil {
			return err
		}
	}
	if j.CreateOrder != nil {
		if err := createOrderWithEscrow(ctx, tx, &j.CreateOrder.Order); err != nil {
			return err
		}
	}
	if j.Transition != nil {
		if err := transitionOrder(ctx, tx, j.Transition); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func applyEntry(ctx context.Context, tx pgx.Tx, e *domain.JournalEntry) error {
	// Wallets are created lazily so a seller can be credited on their
	// first ever sale.
	_, err := tx.Exec(ctx,
		`INSERT INTO wallets (id, user_id, currency) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO NOTHING`,
		id.New("wal"), e.UserID, "NGN")
	if err != nil {
		return err
	}

	var walletID string
	var balance int64
	var status domain.WalletStatus
	err = tx.QueryRow(ctx,
		`SELECT id, balance, status FROM wallets WHERE user_id = $1 FOR UPDATE`,
		e.UserID).Scan(&walletID, &balance, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrWalletNotFound
	}
	if err != nil {
		return err
	}
	if status != domain.WalletStatusActive {
		return domain.ErrWalletInactive
	}
	newBalance := balance + e.Delta
	if newBalance < 0 {
		return domain.ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx,
		`UPDATE wallets SET balance = $1, updated_at = NOW() WHERE id = $2`,
		newBalance, walletID); err != nil {
		return err
	}

	t := &e.Transaction
	if t.ID == "" {
		t.ID = id.New("txn")
	}
	t.WalletID = walletID
	if t.Status == "" {
		t.Status = domain.TxStatusSuccess
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO transactions (
			id, user_id, wallet_id, type, amount, status, reference,
			gateway_ref, description, order_id, counterparty_id, escrow_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.UserID, t.WalletID, t.Type, t.Amount, t.Status, t.Reference,
		t.GatewayRef, t.Description, t.OrderID, t.CounterpartyID, t.EscrowID)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateReference
	}
	return err
}

func createOrderWithEscrow(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	if o.ID == "" {
		o.ID = id.New("ord")
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO orders (id, buyer_id, seller_id, amount, currency, product_ids, status)
		 VALUES ($1, $2, $3, $4, $5, $6, 'in_escrow')`,
		o.ID, o.BuyerID, o.SellerID, o.Amount, o.Currency, o.ProductIDs)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO escrows (id, order_id, status) VALUES ($1, $2, 'funded')`,
		id.New("esc"), o.ID)
	if isUniqueViolation(err) {
		return domain.ErrInvalidOrderState
	}
	return err
}

// transitionOrder drives an in-escrow order to a terminal state. The status
// guards in the WHERE clauses make the release/refund fire exactly once; a
// concurrent transition loses the race and rolls the whole journal back.
func transitionOrder(ctx context.Context, tx pgx.Tx, tr *domain.OrderTransition) error {
	now := time.Now().UTC()
	var completedAt *time.Time
	if tr.OrderStatus == domain.OrderStatusCompleted {
		completedAt = &now
	}
	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $1, completed_at = COALESCE($2, completed_at), updated_at = NOW()
		 WHERE id = $3 AND status = 'in_escrow'`,
		tr.OrderStatus, completedAt, tr.OrderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidOrderState
	}

	var releasedAt *time.Time
	if tr.EscrowStatus != domain.EscrowStatusFunded {
		releasedAt = &now
	}
	tag, err = tx.Exec(ctx,
		`UPDATE escrows SET status = $1, released_at = $2 WHERE order_id = $3 AND status = 'funded'`,
		tr.EscrowStatus, releasedAt, tr.OrderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidOrderState
	}
	return nil
}

func (r *ledgerRepo) RecordPending(ctx context.Context, t *domain.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = id.New("txn")
	}
	t.Status = domain.TxStatusPending
	_, err := r.db.Exec(ctx,
		`INSERT INTO transactions (
			id, user_id, wallet_id, type, amount, status, reference,
			gateway_ref, description, order_id, counterparty_id, escrow_id
		) VALUES ($1, $2, $3, $4, $5, 'pending', $6, $7, $8, $9, $10, $11)`,
		t.ID, t.UserID, t.WalletID, t.Type, t.Amount, t.Reference,
		t.GatewayRef, t.Description, t.OrderID, t.CounterpartyID, t.EscrowID)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateReference
	}
	return err
}

func (r *ledgerRepo) SettleFunding(ctx context.Context, reference string, gatewayRef string) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var txID, walletID string
	var amount int64
	var status domain.TransactionStatus
	err = tx.QueryRow(ctx,
		`SELECT id, wallet_id, amount, status FROM transactions WHERE reference = $1 FOR UPDATE`,
		reference).Scan(&txID, &walletID, &amount, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, domain.ErrTransactionNotFound
	}
	if err != nil {
		return false, err
	}
	if status != domain.TxStatusPending {
		// Duplicate webhook or verify poll: already settled, do nothing.
		return false, nil
	}

	if _, err := tx.Exec(ctx,
		`UPDATE wallets SET balance = balance + $1, updated_at = NOW() WHERE id = $2`,
		amount, walletID); err != nil {
		return false, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE transactions SET status = 'success', gateway_ref = COALESCE($1, gateway_ref), updated_at = NOW()
		 WHERE id = $2`,
		nullable(gatewayRef), txID); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (r *ledgerRepo) CancelPending(ctx context.Context, userID, reference string) error {
	return r.finishPending(ctx, reference, userID, domain.TxStatusCancelled)
}

func (r *ledgerRepo) MarkFailed(ctx context.Context, reference string) error {
	return r.finishPending(ctx, reference, "", domain.TxStatusFailed)
}

func (r *ledgerRepo) finishPending(ctx context.Context, reference, userID string, to domain.TransactionStatus) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var owner string
	var status domain.TransactionStatus
	err = tx.QueryRow(ctx,
		`SELECT user_id, status FROM transactions WHERE reference = $1 FOR UPDATE`,
		reference).Scan(&owner, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrTransactionNotFound
	}
	if err != nil {
		return err
	}
	if userID != "" && owner != userID {
		return domain.ErrUnauthorized
	}
	if status != domain.TxStatusPending {
		return domain.ErrTransactionNotPending
	}

	if _, err := tx.Exec(ctx,
		`UPDATE transactions SET status = $1, updated_at = NOW() WHERE reference = $2`,
		to, reference); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
