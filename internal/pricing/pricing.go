// Package pricing turns cart line items and an optional percentage
// discount into priced totals. The calculator is pure: no I/O, no
// mutation, safe to call repeatedly with the same inputs.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Config carries the tunable business constants. Values are injected
// rather than read ambiently so tests and deployments can vary them.
type Config struct {
	// FreeShippingOver is the subtotal above which shipping is free.
	// The comparison is strict and uses the pre-discount subtotal.
	FreeShippingOver decimal.Decimal
	// ShippingFee is the flat fee charged at or below the threshold.
	ShippingFee decimal.Decimal
	// TaxRate is applied to the discounted subtotal.
	TaxRate decimal.Decimal
}

// DefaultConfig returns the storefront defaults: free shipping over
// 50.00, a 9.99 flat fee otherwise, 8% tax.
func DefaultConfig() Config {
	return Config{
		FreeShippingOver: decimal.NewFromInt(50),
		ShippingFee:      decimal.RequireFromString("9.99"),
		TaxRate:          decimal.RequireFromString("0.08"),
	}
}

// ConfigFromStrings parses the three constants from their decimal
// string form, as loaded from the environment.
func ConfigFromStrings(freeShippingOver, shippingFee, taxRate string) (Config, error) {
	over, err := decimal.NewFromString(freeShippingOver)
	if err != nil {
		return Config{}, fmt.Errorf("parse free shipping threshold %q: %w", freeShippingOver, err)
	}
	fee, err := decimal.NewFromString(shippingFee)
	if err != nil {
		return Config{}, fmt.Errorf("parse shipping fee %q: %w", shippingFee, err)
	}
	rate, err := decimal.NewFromString(taxRate)
	if err != nil {
		return Config{}, fmt.Errorf("parse tax rate %q: %w", taxRate, err)
	}
	return Config{FreeShippingOver: over, ShippingFee: fee, TaxRate: rate}, nil
}

// Line is one priced cart row.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int32
}

// Breakdown is the five-part priced result. Values are exact; rounding
// to the currency's minor unit is a presentation concern.
type Breakdown struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

type Calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) Calculator {
	return Calculator{cfg: cfg}
}

// Quote prices the given lines. discountPercent is the applied coupon's
// percentage, or 0 when no coupon applies.
//
//	subtotal = Σ(price × quantity)
//	discount = subtotal × percent/100
//	shipping = subtotal > threshold ? 0 : flat fee
//	tax      = (subtotal − discount) × rate
//	total    = subtotal − discount + shipping + tax
//
// Shipping is decided on the pre-discount subtotal.
func (c Calculator) Quote(lines []Line, discountPercent int32) Breakdown {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity)))
	}

	discount := decimal.Zero
	if discountPercent > 0 {
		discount = subtotal.Mul(decimal.NewFromInt32(discountPercent)).Div(oneHundred)
	}

	shipping := c.cfg.ShippingFee
	if subtotal.GreaterThan(c.cfg.FreeShippingOver) {
		shipping = decimal.Zero
	}

	tax := subtotal.Sub(discount).Mul(c.cfg.TaxRate)

	return Breakdown{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Sub(discount).Add(shipping).Add(tax),
	}
}
