package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func limit(n int32) *int32 { return &n }

func validCoupon(now time.Time) Coupon {
	return Coupon{
		ID:                 "c1",
		Code:               "SAVE10",
		DiscountPercentage: 10,
		MinPurchase:        decimal.NewFromInt(30),
		IsActive:           true,
		StartsAt:           now.Add(-time.Hour),
		ExpiresAt:          now.Add(time.Hour),
		UsageLimit:         limit(5),
		UsageCount:         0,
	}
}

func TestValidate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(40)

	t.Run("valid coupon passes", func(t *testing.T) {
		if err := validCoupon(now).Validate(now, amount); err != nil {
			t.Fatalf("unexpected rejection: %v", err)
		}
	})

	t.Run("inactive", func(t *testing.T) {
		c := validCoupon(now)
		c.IsActive = false
		assertReason(t, c.Validate(now, amount), "inactive")
	})

	t.Run("not yet active", func(t *testing.T) {
		c := validCoupon(now)
		c.StartsAt = now.Add(time.Minute)
		assertReason(t, c.Validate(now, amount), "not yet active")
	})

	t.Run("expired", func(t *testing.T) {
		c := validCoupon(now)
		c.ExpiresAt = now.Add(-time.Minute)
		assertReason(t, c.Validate(now, amount), "expired")
	})

	t.Run("usage limit exceeded", func(t *testing.T) {
		c := validCoupon(now)
		c.UsageLimit = limit(3)
		c.UsageCount = 3
		assertReason(t, c.Validate(now, amount), "usage limit exceeded")
	})

	t.Run("nil limit is unlimited", func(t *testing.T) {
		c := validCoupon(now)
		c.UsageLimit = nil
		c.UsageCount = 1 << 20
		if err := c.Validate(now, amount); err != nil {
			t.Fatalf("unexpected rejection: %v", err)
		}
	})

	t.Run("below minimum purchase", func(t *testing.T) {
		c := validCoupon(now)
		err := c.Validate(now, decimal.NewFromInt(29))
		assertReason(t, err, "minimum purchase of 30 required")
	})

	t.Run("amount equal to minimum passes", func(t *testing.T) {
		c := validCoupon(now)
		if err := c.Validate(now, decimal.NewFromInt(30)); err != nil {
			t.Fatalf("unexpected rejection: %v", err)
		}
	})
}

// An inactive coupon that is also expired must report "inactive": the
// checks run in a fixed priority order.
func TestValidateFirstFailingCheckWins(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c := validCoupon(now)
	c.IsActive = false
	c.ExpiresAt = now.Add(-time.Hour)
	c.UsageLimit = limit(0)
	c.MinPurchase = decimal.NewFromInt(1000)

	assertReason(t, c.Validate(now, decimal.NewFromInt(1)), "inactive")

	c.IsActive = true
	assertReason(t, c.Validate(now, decimal.NewFromInt(1)), "expired")

	c.ExpiresAt = now.Add(time.Hour)
	assertReason(t, c.Validate(now, decimal.NewFromInt(1)), "usage limit exceeded")
}

func TestSnapshotCopiesCouponFields(t *testing.T) {
	now := time.Now()
	c := validCoupon(now)

	snap := c.Snapshot()
	if snap.Code != c.Code || snap.DiscountPercentage != c.DiscountPercentage || !snap.ExpiresAt.Equal(c.ExpiresAt) {
		t.Fatalf("snapshot %+v does not match coupon %+v", snap, c)
	}

	// Mutating the coupon afterwards must not affect the snapshot.
	c.DiscountPercentage = 99
	if snap.DiscountPercentage == 99 {
		t.Fatal("snapshot shares state with coupon")
	}
}

func assertReason(t *testing.T, err error, reason string) {
	t.Helper()
	var rej *RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("expected RejectionError, got %v", err)
	}
	if rej.Reason != reason {
		t.Fatalf("expected reason %q, got %q", reason, rej.Reason)
	}
	if !strings.Contains(rej.Error(), reason) {
		t.Fatalf("error message %q does not carry reason %q", rej.Error(), reason)
	}
}
