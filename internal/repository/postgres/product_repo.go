package pgrepo

import (
	"context"
	"glowmart-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// productCatalog is a read-only view of the catalog's products table.
type productCatalog struct {
	db *pgxpool.Pool
}

func NewProductCatalog(db *pgxpool.Pool) domain.ProductCatalog {
	return &productCatalog{db: db}
}

func (c *productCatalog) GetProducts(ctx context.Context, ids []string) (map[string]domain.ProductSnapshot, error) {
	out := make(map[string]domain.ProductSnapshot, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := conn(ctx, c.db).Query(ctx, `
		SELECT id, name, base_price, sale_price, is_active
		FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.ProductSnapshot
		if err := rows.Scan(&p.ID, &p.Name, &p.BasePrice, &p.SalePrice, &p.IsActive); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}
