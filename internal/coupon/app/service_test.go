package app_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/storefront/commerce/internal/coupon/app"
	"github.com/storefront/commerce/internal/coupon/domain"
	"github.com/storefront/commerce/internal/coupon/infra/memory"
)

func limit(n int32) *int32 { return &n }

func newService(t *testing.T) *app.Service {
	t.Helper()
	return app.NewService(memory.NewCouponRepo())
}

func seedCoupon(t *testing.T, svc *app.Service, c domain.Coupon) domain.Coupon {
	t.Helper()
	created, err := svc.CreateCoupon(context.Background(), c)
	if err != nil {
		t.Fatalf("seed coupon: %v", err)
	}
	return created
}

func sampleCoupon() domain.Coupon {
	return domain.Coupon{
		Code:               "save10",
		DiscountPercentage: 10,
		MinPurchase:        decimal.NewFromInt(30),
		IsActive:           true,
		StartsAt:           time.Now().Add(-time.Hour),
		ExpiresAt:          time.Now().Add(24 * time.Hour),
	}
}

func TestCreateCouponValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	t.Run("code normalized to upper case", func(t *testing.T) {
		created := seedCoupon(t, svc, sampleCoupon())
		if created.Code != "SAVE10" {
			t.Fatalf("expected SAVE10, got %s", created.Code)
		}
	})

	t.Run("percentage out of range", func(t *testing.T) {
		for _, p := range []int32{0, 100, -5} {
			c := sampleCoupon()
			c.Code = "P"
			c.DiscountPercentage = p
			if _, err := svc.CreateCoupon(ctx, c); !errors.Is(err, app.ErrInvalidInput) {
				t.Fatalf("percentage %d: expected ErrInvalidInput, got %v", p, err)
			}
		}
	})

	t.Run("negative minimum purchase", func(t *testing.T) {
		c := sampleCoupon()
		c.Code = "NEG"
		c.MinPurchase = decimal.NewFromInt(-1)
		if _, err := svc.CreateCoupon(ctx, c); !errors.Is(err, app.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("expiry before start", func(t *testing.T) {
		c := sampleCoupon()
		c.Code = "BACKWARDS"
		c.ExpiresAt = c.StartsAt.Add(-time.Minute)
		if _, err := svc.CreateCoupon(ctx, c); !errors.Is(err, app.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestFindByCodeCaseInsensitive(t *testing.T) {
	svc := newService(t)
	seedCoupon(t, svc, sampleCoupon())

	for _, code := range []string{"SAVE10", "save10", "  Save10 "} {
		got, err := svc.FindByCode(context.Background(), code)
		if err != nil {
			t.Fatalf("FindByCode(%q): %v", code, err)
		}
		if got.Code != "SAVE10" {
			t.Fatalf("FindByCode(%q): got code %s", code, got.Code)
		}
	}

	if _, err := svc.FindByCode(context.Background(), "NOPE"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestValidateForAmountDoesNotConsume(t *testing.T) {
	svc := newService(t)
	created := seedCoupon(t, svc, sampleCoupon())

	for i := 0; i < 3; i++ {
		if _, err := svc.ValidateForAmount(context.Background(), created.Code, decimal.NewFromInt(40), time.Now()); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	got, err := svc.FindByCode(context.Background(), created.Code)
	if err != nil {
		t.Fatal(err)
	}
	if got.UsageCount != 0 {
		t.Fatalf("validation must not consume uses, usage count = %d", got.UsageCount)
	}
}

func TestValidateForAmountSurfacesRejection(t *testing.T) {
	svc := newService(t)
	created := seedCoupon(t, svc, sampleCoupon())

	_, err := svc.ValidateForAmount(context.Background(), created.Code, decimal.NewFromInt(10), time.Now())
	var rej *domain.RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("expected RejectionError, got %v", err)
	}
	if rej.Reason != "minimum purchase of 30 required" {
		t.Fatalf("unexpected reason %q", rej.Reason)
	}
}

// With a usage limit of K, exactly K concurrent redemptions may win.
func TestRedeemConcurrentHonorsLimit(t *testing.T) {
	svc := newService(t)

	c := sampleCoupon()
	c.UsageLimit = limit(3)
	created := seedCoupon(t, svc, c)

	const attempts = 40
	var wins atomic.Int32

	g := new(errgroup.Group)
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			err := svc.Redeem(context.Background(), created.ID)
			if err == nil {
				wins.Add(1)
				return nil
			}
			if errors.Is(err, app.ErrLimitReached) {
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected redeem error: %v", err)
	}

	if wins.Load() != 3 {
		t.Fatalf("expected exactly 3 successful redemptions, got %d", wins.Load())
	}

	got, err := svc.FindByCode(context.Background(), created.Code)
	if err != nil {
		t.Fatal(err)
	}
	if got.UsageCount != 3 {
		t.Fatalf("usage count = %d, want 3", got.UsageCount)
	}
}

func TestUnredeemFloorsAtZero(t *testing.T) {
	svc := newService(t)
	created := seedCoupon(t, svc, sampleCoupon())

	if err := svc.Unredeem(context.Background(), created.ID); err != nil {
		t.Fatalf("unredeem at zero: %v", err)
	}

	if err := svc.Redeem(context.Background(), created.ID); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if err := svc.Unredeem(context.Background(), created.ID); err != nil {
		t.Fatalf("unredeem: %v", err)
	}

	got, _ := svc.FindByCode(context.Background(), created.Code)
	if got.UsageCount != 0 {
		t.Fatalf("usage count = %d, want 0", got.UsageCount)
	}
}
