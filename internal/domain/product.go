package domain

import "context"

type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProductSnapshot is the catalog view checkout needs: what the product is
// called and what it costs right now.
type ProductSnapshot struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BasePrice int64  `json:"basePrice"`
	SalePrice *int64 `json:"salePrice,omitempty"`
	IsActive  bool   `json:"isActive"`
}

// EffectivePrice is the sale price when one is set, otherwise the base price.
func (p ProductSnapshot) EffectivePrice() int64 {
	if p.SalePrice != nil && *p.SalePrice >= 0 && *p.SalePrice < p.BasePrice {
		return *p.SalePrice
	}
	return p.BasePrice
}

// ProductCatalog is the read-only slice of the catalog used for pricing.
type ProductCatalog interface {
	GetProducts(ctx context.Context, ids []string) (map[string]ProductSnapshot, error)
}
