package memory

import (
	"context"
	"glowmart-backend/internal/domain"
)

type ProductCatalog struct {
	store *Store
}

func NewProductCatalog(store *Store) *ProductCatalog {
	return &ProductCatalog{store: store}
}

// Upsert adds or replaces a product. The catalog is managed elsewhere; this
// is how the memory driver and tests get products in.
func (c *ProductCatalog) Upsert(ctx context.Context, p domain.ProductSnapshot) error {
	return c.store.run(ctx, func() error {
		c.store.products[p.ID] = p
		return nil
	})
}

func (c *ProductCatalog) GetProducts(ctx context.Context, ids []string) (map[string]domain.ProductSnapshot, error) {
	out := make(map[string]domain.ProductSnapshot, len(ids))
	err := c.store.run(ctx, func() error {
		for _, id := range ids {
			if p, ok := c.store.products[id]; ok {
				out[id] = p
			}
		}
		return nil
	})
	return out, err
}
