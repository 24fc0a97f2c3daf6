// Package pricing computes cart and order money breakdowns in integer cents.
package pricing

import (
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/shopspring/decimal"
)

// Line is a priced quantity of a single product.
type Line struct {
	UnitPriceCents int64
	Quantity       int
}

// Policy holds the shipping and tax parameters applied to a subtotal.
type Policy struct {
	TaxRate                    decimal.Decimal
	FreeShippingThresholdCents int64
	FlatShippingCents          int64
}

// Breakdown is the priced summary of a set of lines.
type Breakdown struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	ShippingCents int64 `json:"shipping_cents"`
	TaxCents      int64 `json:"tax_cents"`
	TotalCents    int64 `json:"total_cents"`
	ItemCount     int   `json:"item_count"`
}

// DefaultPolicy is 8% tax with free shipping above $50 and $9.99 otherwise.
func DefaultPolicy() Policy {
	return Policy{
		TaxRate:                    decimal.RequireFromString("0.08"),
		FreeShippingThresholdCents: 5000,
		FlatShippingCents:          999,
	}
}

// PolicyFromConfig builds a Policy from validated checkout config.
func PolicyFromConfig(cfg config.CheckoutConfig) Policy {
	return Policy{
		TaxRate:                    cfg.TaxRateDecimal(),
		FreeShippingThresholdCents: cfg.FreeShippingThresholdCents(),
		FlatShippingCents:          cfg.FlatShippingCents(),
	}
}

// Subtotal returns the sum of unit price times quantity.
func Subtotal(lines []Line) int64 {
	var total int64
	for _, line := range lines {
		total += line.UnitPriceCents * int64(line.Quantity)
	}
	return total
}

// ItemCount returns the sum of quantities.
func ItemCount(lines []Line) int {
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return count
}

// Shipping is free only when the subtotal is strictly above the threshold.
func (p Policy) Shipping(subtotalCents int64) int64 {
	if subtotalCents > p.FreeShippingThresholdCents {
		return 0
	}
	return p.FlatShippingCents
}

// Tax rounds subtotal*rate half away from zero to the cent.
func (p Policy) Tax(subtotalCents int64) int64 {
	return decimal.NewFromInt(subtotalCents).Mul(p.TaxRate).Round(0).IntPart()
}

// Quote prices the lines under the policy.
func (p Policy) Quote(lines []Line) Breakdown {
	subtotal := Subtotal(lines)
	shipping := p.Shipping(subtotal)
	tax := p.Tax(subtotal)
	return Breakdown{
		SubtotalCents: subtotal,
		ShippingCents: shipping,
		TaxCents:      tax,
		TotalCents:    subtotal + shipping + tax,
		ItemCount:     ItemCount(lines),
	}
}

// FormatCents renders an amount as dollars, e.g. 1234 -> "$12.34".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
