package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront/commerce/internal/cart/app"
	"github.com/storefront/commerce/internal/cart/infra/memory"
	couponapp "github.com/storefront/commerce/internal/coupon/app"
	coupondomain "github.com/storefront/commerce/internal/coupon/domain"
	couponmemory "github.com/storefront/commerce/internal/coupon/infra/memory"
	inventoryapp "github.com/storefront/commerce/internal/inventory/app"
	"github.com/storefront/commerce/internal/pricing"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeProducts struct {
	byID map[string]app.Product
}

func (f *fakeProducts) GetProduct(ctx context.Context, id string) (app.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return app.Product{}, app.ErrProductNotFound
	}
	return p, nil
}

type fixture struct {
	svc      *app.Service
	products *fakeProducts
	coupons  *couponapp.Service
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		products: &fakeProducts{byID: map[string]app.Product{
			"p1": {ID: "p1", Name: "Keyboard", Price: dec("20"), Stock: 5},
			"p2": {ID: "p2", Name: "Mouse", Price: dec("9.50"), Stock: 2},
		}},
		coupons: couponapp.NewService(couponmemory.NewCouponRepo()),
		now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	f.svc = app.NewService(
		memory.NewCartRepo(),
		f.products,
		f.coupons,
		pricing.NewCalculator(pricing.DefaultConfig()),
	).WithClock(func() time.Time { return f.now })
	return f
}

func (f *fixture) seedCoupon(t *testing.T, c coupondomain.Coupon) coupondomain.Coupon {
	t.Helper()
	created, err := f.coupons.CreateCoupon(context.Background(), c)
	if err != nil {
		t.Fatalf("seed coupon: %v", err)
	}
	return created
}

func (f *fixture) tenPercentOff(t *testing.T) coupondomain.Coupon {
	return f.seedCoupon(t, coupondomain.Coupon{
		Code:               "SAVE10",
		DiscountPercentage: 10,
		MinPurchase:        dec("30"),
		IsActive:           true,
		StartsAt:           f.now.Add(-time.Hour),
		ExpiresAt:          f.now.Add(time.Hour),
	})
}

func TestGetCartCreatesLazily(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.GetCart(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(view.Items) != 0 || view.Coupon != nil {
		t.Fatalf("fresh cart not empty: %+v", view)
	}
}

func TestAddItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("merge on add", func(t *testing.T) {
		if _, err := f.svc.AddItem(ctx, "u1", "p1", 2); err != nil {
			t.Fatalf("add: %v", err)
		}
		view, err := f.svc.AddItem(ctx, "u1", "p1", 1)
		if err != nil {
			t.Fatalf("add again: %v", err)
		}
		if len(view.Items) != 1 || view.Items[0].Quantity != 3 {
			t.Fatalf("expected one merged line of 3, got %+v", view.Items)
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		if _, err := f.svc.AddItem(ctx, "u1", "ghost", 1); !errors.Is(err, app.ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("quantity below one", func(t *testing.T) {
		if _, err := f.svc.AddItem(ctx, "u1", "p1", 0); !errors.Is(err, app.ErrInvalidQuantity) {
			t.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}
	})

	t.Run("merged quantity above stock", func(t *testing.T) {
		// u1 already holds 3 of p1 (stock 5); 3 more would make 6.
		_, err := f.svc.AddItem(ctx, "u1", "p1", 3)
		var short *inventoryapp.InsufficientStockError
		if !errors.As(err, &short) {
			t.Fatalf("expected InsufficientStockError, got %v", err)
		}
		if short.Available != 5 {
			t.Fatalf("expected available 5 in error, got %d", short.Available)
		}
	})
}

func TestUpdateItemQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddItem(ctx, "u1", "p1", 2); err != nil {
		t.Fatal(err)
	}

	t.Run("replaces not adds", func(t *testing.T) {
		view, err := f.svc.UpdateItemQuantity(ctx, "u1", "p1", 5)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if view.Items[0].Quantity != 5 {
			t.Fatalf("expected quantity 5, got %d", view.Items[0].Quantity)
		}
	})

	t.Run("absent item", func(t *testing.T) {
		if _, err := f.svc.UpdateItemQuantity(ctx, "u1", "p2", 1); !errors.Is(err, app.ErrItemNotInCart) {
			t.Fatalf("expected ErrItemNotInCart, got %v", err)
		}
	})

	t.Run("quantity below one", func(t *testing.T) {
		if _, err := f.svc.UpdateItemQuantity(ctx, "u1", "p1", 0); !errors.Is(err, app.ErrInvalidQuantity) {
			t.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}
	})

	t.Run("above stock", func(t *testing.T) {
		_, err := f.svc.UpdateItemQuantity(ctx, "u1", "p1", 6)
		var short *inventoryapp.InsufficientStockError
		if !errors.As(err, &short) {
			t.Fatalf("expected InsufficientStockError, got %v", err)
		}
	})
}

func TestRemoveItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddItem(ctx, "u1", "p1", 1); err != nil {
		t.Fatal(err)
	}

	view, err := f.svc.RemoveItem(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", view.Items)
	}

	// Removing an absent item is a no-op, not an error.
	if _, err := f.svc.RemoveItem(ctx, "u1", "p1"); err != nil {
		t.Fatalf("remove absent: %v", err)
	}
}

func TestTotalsMatchPricingScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.svc.AddItem(ctx, "u1", "p1", 2)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]decimal.Decimal{
		"subtotal": dec("40"), "discount": dec("0"), "shipping": dec("9.99"),
		"tax": dec("3.20"), "total": dec("53.19"),
	}
	got := map[string]decimal.Decimal{
		"subtotal": view.Totals.Subtotal, "discount": view.Totals.Discount,
		"shipping": view.Totals.Shipping, "tax": view.Totals.Tax, "total": view.Totals.Total,
	}
	for k, w := range want {
		if !w.Equal(got[k]) {
			t.Fatalf("%s: want %s, got %s", k, w, got[k])
		}
	}
}

func TestApplyCoupon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tenPercentOff(t)

	if _, err := f.svc.AddItem(ctx, "u1", "p1", 2); err != nil {
		t.Fatal(err)
	}

	view, err := f.svc.ApplyCoupon(ctx, "u1", "save10")
	if err != nil {
		t.Fatalf("apply coupon: %v", err)
	}
	if view.Coupon == nil || view.Coupon.Code != "SAVE10" {
		t.Fatalf("expected SAVE10 snapshot, got %+v", view.Coupon)
	}
	if !view.Totals.Discount.Equal(dec("4")) || !view.Totals.Total.Equal(dec("48.87")) {
		t.Fatalf("unexpected totals with coupon: %+v", view.Totals)
	}

	// Applying must not consume a use.
	c, err := f.coupons.FindByCode(ctx, "SAVE10")
	if err != nil {
		t.Fatal(err)
	}
	if c.UsageCount != 0 {
		t.Fatalf("cart apply consumed a use: count=%d", c.UsageCount)
	}
}

func TestApplyCouponFailureLeavesExistingSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tenPercentOff(t)
	f.seedCoupon(t, coupondomain.Coupon{
		Code:               "BIG50",
		DiscountPercentage: 50,
		MinPurchase:        dec("100"),
		IsActive:           true,
		StartsAt:           f.now.Add(-time.Hour),
		ExpiresAt:          f.now.Add(time.Hour),
	})

	if _, err := f.svc.AddItem(ctx, "u1", "p1", 2); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.ApplyCoupon(ctx, "u1", "SAVE10"); err != nil {
		t.Fatal(err)
	}

	// Subtotal 40 is below BIG50's minimum; the rejection must keep
	// SAVE10 applied.
	_, err := f.svc.ApplyCoupon(ctx, "u1", "BIG50")
	var rej *coupondomain.RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("expected RejectionError, got %v", err)
	}

	view, err := f.svc.GetCart(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if view.Coupon == nil || view.Coupon.Code != "SAVE10" {
		t.Fatalf("existing snapshot lost after failed apply: %+v", view.Coupon)
	}
}

func TestRemoveCouponRestoresTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tenPercentOff(t)

	if _, err := f.svc.AddItem(ctx, "u1", "p1", 2); err != nil {
		t.Fatal(err)
	}
	before, err := f.svc.GetCart(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.ApplyCoupon(ctx, "u1", "SAVE10"); err != nil {
		t.Fatal(err)
	}
	after, err := f.svc.RemoveCoupon(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}

	if after.Coupon != nil {
		t.Fatalf("coupon still set after removal: %+v", after.Coupon)
	}
	if !before.Totals.Total.Equal(after.Totals.Total) || !before.Totals.Tax.Equal(after.Totals.Tax) {
		t.Fatalf("totals differ after apply+remove: before=%+v after=%+v", before.Totals, after.Totals)
	}
}

func TestClearEmptiesItemsAndCoupon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tenPercentOff(t)

	if _, err := f.svc.AddItem(ctx, "u1", "p1", 2); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.ApplyCoupon(ctx, "u1", "SAVE10"); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.Clear(ctx, "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	view, err := f.svc.GetCart(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Items) != 0 || view.Coupon != nil {
		t.Fatalf("cart not cleared: %+v", view)
	}
}

// Totals use live catalog prices, not prices at add-time.
func TestTotalsFollowLivePrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.AddItem(ctx, "u1", "p1", 1); err != nil {
		t.Fatal(err)
	}

	f.products.byID["p1"] = app.Product{ID: "p1", Name: "Keyboard", Price: dec("30"), Stock: 5}

	view, err := f.svc.GetCart(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !view.Totals.Subtotal.Equal(dec("30")) {
		t.Fatalf("expected live price subtotal 30, got %s", view.Totals.Subtotal)
	}
}
