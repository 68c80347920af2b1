package domain

import "fmt"

// CartLine is one priced line of a checkout.
type CartLine struct {
	ProductID string `json:"productId"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

type PriceQuote struct {
	Subtotal     int64 `json:"subtotal"`
	DiscountRate int   `json:"discountRate"`
	Discount     int64 `json:"discount"`
	Total        int64 `json:"total"`
}

// Quote computes subtotal, discount and total. The discount is floored so a
// customer is never discounted more than the tier entitles.
func Quote(lines []CartLine, discountRate int) (PriceQuote, error) {
	if discountRate < 0 || discountRate > 100 {
		return PriceQuote{}, NewValidationError("discountRate", "must be between 0 and 100")
	}

	var subtotal int64
	for i, l := range lines {
		if l.Quantity <= 0 {
			return PriceQuote{}, NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be greater than zero")
		}
		if l.UnitPrice < 0 {
			return PriceQuote{}, NewValidationError(fmt.Sprintf("items[%d].unitPrice", i), "must not be negative")
		}
		subtotal += l.UnitPrice * int64(l.Quantity)
	}

	discount := DiscountFor(subtotal, discountRate)
	return PriceQuote{
		Subtotal:     subtotal,
		DiscountRate: discountRate,
		Discount:     discount,
		Total:        subtotal - discount,
	}, nil
}

// DiscountFor is floor(subtotal * rate / 100) for non-negative inputs.
func DiscountFor(subtotal int64, rate int) int64 {
	if subtotal <= 0 || rate <= 0 {
		return 0
	}
	return subtotal * int64(rate) / 100
}

// PointsFor returns floor(total / currencyPerPoint).
func PointsFor(total, currencyPerPoint int64) int64 {
	if total <= 0 || currencyPerPoint <= 0 {
		return 0
	}
	return total / currencyPerPoint
}
