package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
	"github.com/Flickmart/flickmart-sub000/pkg/id"
)

type BankAccountRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.BankAccount, error)
	GetByID(ctx context.Context, accountID string) (*domain.BankAccount, error)
	Create(ctx context.Context, account *domain.BankAccount) error
	// Delete removes an account, enforcing the last-account and
	// default-promotion rules in one transaction.
	Delete(ctx context.Context, userID, accountID string) error
	SetRecipientCode(ctx context.Context, accountID, recipientCode string) error
}

type bankAccountRepo struct {
	db *pgxpool.Pool
}

func NewBankAccountRepository(db *pgxpool.Pool) BankAccountRepository {
	return &bankAccountRepo{db: db}
}

const bankAccountColumns = `id, user_id, account_number, account_name, bank_code, bank_name,
	recipient_code, verified, is_default, created_at`

func scanBankAccount(row pgx.Row) (*domain.BankAccount, error) {
	var a domain.BankAccount
	err := row.Scan(&a.ID, &a.UserID, &a.AccountNumber, &a.AccountName, &a.BankCode,
		&a.BankName, &a.RecipientCode, &a.Verified, &a.IsDefault, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBankAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *bankAccountRepo) ListByUser(ctx context.Context, userID string) ([]domain.BankAccount, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+bankAccountColumns+` FROM bank_accounts WHERE user_id = $1 ORDER BY created_at`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BankAccount
	for rows.Next() {
		a, err := scanBankAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *bankAccountRepo) GetByID(ctx context.Context, accountID string) (*domain.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE id = $1`
	return scanBankAccount(r.db.QueryRow(ctx, query, accountID))
}

func (r *bankAccountRepo) Create(ctx context.Context, account *domain.BankAccount) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var existing int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM bank_accounts WHERE user_id = $1`,
		account.UserID).Scan(&existing); err != nil {
		return err
	}
	// First account becomes the default.
	account.IsDefault = account.IsDefault || existing == 0
	if account.IsDefault && existing > 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE bank_accounts SET is_default = FALSE WHERE user_id = $1`,
			account.UserID); err != nil {
			return err
		}
	}

	if account.ID == "" {
		account.ID = id.New("bnk")
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO bank_accounts (
			id, user_id, account_number, account_name, bank_code, bank_name,
			recipient_code, verified, is_default
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		account.ID, account.UserID, account.AccountNumber, account.AccountName,
		account.BankCode, account.BankName, account.RecipientCode,
		account.Verified, account.IsDefault).Scan(&account.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *bankAccountRepo) Delete(ctx context.Context, userID, accountID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var isDefault bool
	err = tx.QueryRow(ctx,
		`SELECT is_default FROM bank_accounts WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		accountID, userID).Scan(&isDefault)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrBankAccountNotFound
	}
	if err != nil {
		return err
	}

	var total int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM bank_accounts WHERE user_id = $1`,
		userID).Scan(&total); err != nil {
		return err
	}
	if total <= 1 {
		return domain.ErrCannotDeleteOnlyAccount
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM bank_accounts WHERE id = $1`, accountID); err != nil {
		return err
	}
	if isDefault {
		// Promote the oldest remaining account.
		if _, err := tx.Exec(ctx,
			`UPDATE bank_accounts SET is_default = TRUE
			 WHERE id = (
				SELECT id FROM bank_accounts WHERE user_id = $1 ORDER BY created_at LIMIT 1
			 )`,
			userID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *bankAccountRepo) SetRecipientCode(ctx context.Context, accountID, recipientCode string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE bank_accounts SET recipient_code = $1 WHERE id = $2`,
		recipientCode, accountID)
	return err
}
