package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
)

type PINRepository interface {
	Get(ctx context.Context, userID string) (*domain.PINSecurity, error)
	// Create stores a fresh hash with a zeroed attempt counter. Fails with
	// ErrPINAlreadySet when a PIN exists.
	Create(ctx context.Context, userID, pinHash string) error
	// RecordFailure increments the attempt counter and, at the attempt
	// limit, sets the lock with the given expiry. Returns the updated state.
	RecordFailure(ctx context.Context, userID string, maxAttempts int, lockFor time.Duration) (*domain.PINSecurity, error)
	ResetAttempts(ctx context.Context, userID string) error
}

type pinRepo struct {
	db *pgxpool.Pool
}

func NewPINRepository(db *pgxpool.Pool) PINRepository {
	return &pinRepo{db: db}
}

const pinColumns = `user_id, pin_hash, failed_attempts, locked, lock_expires_at, created_at, updated_at`

func scanPIN(row pgx.Row) (*domain.PINSecurity, error) {
	var p domain.PINSecurity
	err := row.Scan(&p.UserID, &p.PINHash, &p.FailedAttempts, &p.Locked, &p.LockExpiresAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPINNotSet
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pinRepo) Get(ctx context.Context, userID string) (*domain.PINSecurity, error) {
	query := `SELECT ` + pinColumns + ` FROM pin_security WHERE user_id = $1`
	return scanPIN(r.db.QueryRow(ctx, query, userID))
}

func (r *pinRepo) Create(ctx context.Context, userID, pinHash string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO pin_security (user_id, pin_hash) VALUES ($1, $2)`,
		userID, pinHash)
	if isUniqueViolation(err) {
		return domain.ErrPINAlreadySet
	}
	return err
}

func (r *pinRepo) RecordFailure(ctx context.Context, userID string, maxAttempts int, lockFor time.Duration) (*domain.PINSecurity, error) {
	query := `
		UPDATE pin_security SET
			failed_attempts = failed_attempts + 1,
			locked = (failed_attempts + 1 >= $2),
			lock_expires_at = CASE WHEN failed_attempts + 1 >= $2 THEN NOW() + make_interval(secs => $3) ELSE lock_expires_at END,
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + pinColumns
	return scanPIN(r.db.QueryRow(ctx, query, userID, maxAttempts, lockFor.Seconds()))
}

func (r *pinRepo) ResetAttempts(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE pin_security SET failed_attempts = 0, locked = FALSE, lock_expires_at = NULL, updated_at = NOW()
		 WHERE user_id = $1`,
		userID)
	return err
}
