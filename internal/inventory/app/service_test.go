package app_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/storefront/commerce/internal/catalog/domain"
	"github.com/storefront/commerce/internal/catalog/infra/memory"
	"github.com/storefront/commerce/internal/inventory/app"
)

func seedProduct(t *testing.T, store *memory.ProductStore, stock int32) domain.Product {
	t.Helper()
	p, err := store.Create(context.Background(), domain.Product{
		Name:  "widget",
		Price: decimal.NewFromInt(20),
		Stock: stock,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func TestReserveAndRelease(t *testing.T) {
	store := memory.NewProductStore()
	ledger := app.NewService(store)
	ctx := context.Background()

	p := seedProduct(t, store, 5)

	if err := ledger.Reserve(ctx, p.ID, 3); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	got, _ := store.Get(ctx, p.ID)
	if got.Stock != 2 || got.TotalSales != 3 {
		t.Fatalf("after reserve: stock=%d sales=%d, want 2/3", got.Stock, got.TotalSales)
	}

	if err := ledger.Release(ctx, p.ID, 3); err != nil {
		t.Fatalf("release: %v", err)
	}

	got, _ = store.Get(ctx, p.ID)
	if got.Stock != 5 || got.TotalSales != 0 {
		t.Fatalf("after release: stock=%d sales=%d, want 5/0", got.Stock, got.TotalSales)
	}
}

func TestReserveFailures(t *testing.T) {
	store := memory.NewProductStore()
	ledger := app.NewService(store)
	ctx := context.Background()

	p := seedProduct(t, store, 2)

	t.Run("quantity below one", func(t *testing.T) {
		if err := ledger.Reserve(ctx, p.ID, 0); !errors.Is(err, app.ErrInvalidQuantity) {
			t.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		if err := ledger.Reserve(ctx, "nope", 1); !errors.Is(err, app.ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("insufficient stock reports available quantity", func(t *testing.T) {
		err := ledger.Reserve(ctx, p.ID, 3)
		var short *app.InsufficientStockError
		if !errors.As(err, &short) {
			t.Fatalf("expected InsufficientStockError, got %v", err)
		}
		if short.Available != 2 || short.Requested != 3 {
			t.Fatalf("unexpected shortfall detail: %+v", short)
		}

		// A failed reserve must leave the record untouched.
		got, _ := store.Get(ctx, p.ID)
		if got.Stock != 2 || got.TotalSales != 0 {
			t.Fatalf("failed reserve mutated record: stock=%d sales=%d", got.Stock, got.TotalSales)
		}
	})
}

func TestReleaseFloorsSalesAtZero(t *testing.T) {
	store := memory.NewProductStore()
	ledger := app.NewService(store)
	ctx := context.Background()

	p := seedProduct(t, store, 1)

	if err := ledger.Release(ctx, p.ID, 4); err != nil {
		t.Fatalf("release: %v", err)
	}

	got, _ := store.Get(ctx, p.ID)
	if got.Stock != 5 || got.TotalSales != 0 {
		t.Fatalf("stock=%d sales=%d, want 5/0", got.Stock, got.TotalSales)
	}
}

// With stock K and N concurrent single-unit reservations, exactly K
// succeed and stock never goes negative.
func TestReserveConcurrentNeverOversells(t *testing.T) {
	store := memory.NewProductStore()
	ledger := app.NewService(store)
	ctx := context.Background()

	const stock = 20
	const attempts = 50

	p := seedProduct(t, store, stock)

	var wins atomic.Int32
	g := new(errgroup.Group)
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			err := ledger.Reserve(ctx, p.ID, 1)
			if err == nil {
				wins.Add(1)
				return nil
			}
			var short *app.InsufficientStockError
			if errors.As(err, &short) {
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected reserve error: %v", err)
	}

	if wins.Load() != stock {
		t.Fatalf("expected exactly %d wins, got %d", stock, wins.Load())
	}

	got, _ := store.Get(ctx, p.ID)
	if got.Stock != 0 || got.TotalSales != stock {
		t.Fatalf("stock=%d sales=%d, want 0/%d", got.Stock, got.TotalSales, stock)
	}
}
