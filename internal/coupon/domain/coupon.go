package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Coupon is a named, time-bounded, usage-limited percentage discount.
// Code is stored upper-case; lookups are case-insensitive.
type Coupon struct {
	ID                 string
	Code               string
	DiscountPercentage int32
	MinPurchase        decimal.Decimal
	IsActive           bool
	StartsAt           time.Time
	ExpiresAt          time.Time
	// UsageLimit is nil for unlimited coupons.
	UsageLimit *int32
	UsageCount int32
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Snapshot is the value copied onto a cart when the coupon is applied.
// Later edits to the coupon do not change an already-applied cart.
type Snapshot struct {
	Code               string          `json:"code"`
	DiscountPercentage int32           `json:"discountPercentage"`
	ExpiresAt          time.Time       `json:"expiryDate"`
	MinPurchase        decimal.Decimal `json:"minPurchase"`
}

func (c Coupon) Snapshot() Snapshot {
	return Snapshot{
		Code:               c.Code,
		DiscountPercentage: c.DiscountPercentage,
		ExpiresAt:          c.ExpiresAt,
		MinPurchase:        c.MinPurchase,
	}
}

// RejectionError reports why a coupon cannot be applied. The message is
// surfaced verbatim to the caller.
type RejectionError struct {
	Code   string
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("coupon %s rejected: %s", e.Code, e.Reason)
}

// Validate checks whether the coupon can be applied to an order of the
// given pre-discount amount at the given time. Checks run in a fixed
// order and the first failure wins, keeping rejection messages stable:
// active, start date, expiry, usage limit, minimum purchase.
//
// Validate never mutates the coupon; incrementing the usage counter is
// the caller's responsibility and happens only when an order actually
// consumes the coupon.
func (c Coupon) Validate(now time.Time, orderAmount decimal.Decimal) error {
	switch {
	case !c.IsActive:
		return &RejectionError{Code: c.Code, Reason: "inactive"}
	case now.Before(c.StartsAt):
		return &RejectionError{Code: c.Code, Reason: "not yet active"}
	case now.After(c.ExpiresAt):
		return &RejectionError{Code: c.Code, Reason: "expired"}
	case c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit:
		return &RejectionError{Code: c.Code, Reason: "usage limit exceeded"}
	case orderAmount.LessThan(c.MinPurchase):
		return &RejectionError{Code: c.Code, Reason: fmt.Sprintf("minimum purchase of %s required", c.MinPurchase)}
	}
	return nil
}
