// Package pricing evaluates discounts and unit prices. It is pure: callers
// pass the clock in, nothing here touches the database.
package pricing

import (
	"time"

	"go-storefront-api/internal/model"
)

// Valid reports whether a discount applies at the given instant. A missing
// or inactive discount is never valid. Either window bound may be absent,
// meaning unbounded on that side.
func Valid(d *model.Discount, now time.Time) bool {
	if d == nil || !d.IsActive {
		return false
	}
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return false
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return false
	}
	return true
}

// Apply returns the discounted price, clamped at zero. A nil discount or an
// unrecognized type leaves the base price unchanged. Validity is the
// caller's concern; pair with Valid or Pick.
func Apply(basePrice float64, d *model.Discount) float64 {
	if d == nil {
		return basePrice
	}
	var price float64
	switch d.Type {
	case model.DiscountPercentage:
		price = basePrice * (1 - d.Value/100)
	case model.DiscountFixed:
		price = basePrice - d.Value
	default:
		return basePrice
	}
	if price < 0 {
		return 0
	}
	return price
}

// Pick chooses the discount for a line item: a currently-valid
// variant-level discount wins over a product-level one; only one is ever
// applied. Returns nil when neither is valid.
func Pick(variantDiscount, productDiscount *model.Discount, now time.Time) *model.Discount {
	if Valid(variantDiscount, now) {
		return variantDiscount
	}
	if Valid(productDiscount, now) {
		return productDiscount
	}
	return nil
}

// UnitPrice is the pre-discount price of a variant: its absolute price
// when set, otherwise the product base price plus the variant modifier,
// clamped at zero.
func UnitPrice(p *model.Product, v *model.Variant) float64 {
	if v.Price != nil {
		return *v.Price
	}
	price := p.BasePrice + v.PriceModifier
	if price < 0 {
		return 0
	}
	return price
}
