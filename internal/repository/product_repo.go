package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Flickmart/flickmart-sub000/internal/domain"
)

type ProductRepository interface {
	// ListByIDs returns the catalog snapshot for the given product ids.
	// Missing ids are simply absent from the result.
	ListByIDs(ctx context.Context, productIDs []string) ([]domain.Product, error)
}

type productRepo struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) ListByIDs(ctx context.Context, productIDs []string) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, seller_id, title, price FROM products WHERE id = ANY($1)`,
		productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.SellerID, &p.Title, &p.Price); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
