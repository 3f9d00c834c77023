package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	coupon "github.com/storefront/commerce/internal/coupon/domain"
	"github.com/storefront/commerce/internal/order/domain"
)

type OrderRepo interface {
	Create(ctx context.Context, order domain.Order) (domain.Order, error)
	Get(ctx context.Context, id string) (domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	// TransitionStatus moves the order from one status to another as a
	// compare-and-swap: it succeeds only when the stored status still
	// equals from, and reports ErrStaleStatus otherwise. This is what
	// keeps concurrent cancellations from both restoring stock.
	TransitionStatus(ctx context.Context, id string, from, to domain.Status) error
	MarkPaid(ctx context.Context, id string, paidAt time.Time, result domain.PaymentResult) error
	MarkDelivered(ctx context.Context, id string, deliveredAt time.Time) error
}

// CartLine and CartSummary are the slice of the cart context checkout
// reads.
type CartLine struct {
	ProductID string
	Quantity  int32
}

type CartSummary struct {
	Items  []CartLine
	Coupon *coupon.Snapshot
}

type CartReader interface {
	Summary(ctx context.Context, userID string) (CartSummary, error)
	Clear(ctx context.Context, userID string) error
}

// Product is the catalog data snapshotted into order items.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

type CatalogReader interface {
	GetProduct(ctx context.Context, productID string) (Product, error)
}

// Inventory is the ledger port. Reserve and release are each atomic
// per product; checkout composes them with compensating releases.
type Inventory interface {
	Reserve(ctx context.Context, productID string, qty int32) error
	Release(ctx context.Context, productID string, qty int32) error
}

// Coupons exposes validation plus the redeem/unredeem pair used at the
// point an order consumes a coupon.
type Coupons interface {
	ValidateForAmount(ctx context.Context, code string, amount decimal.Decimal, now time.Time) (coupon.Coupon, error)
	Redeem(ctx context.Context, id string) error
	Unredeem(ctx context.Context, id string) error
}

// Events receives order lifecycle notifications. Publishing is
// best-effort: a failed publish is logged, never surfaced to the
// request that triggered it.
type Events interface {
	OrderPlaced(ctx context.Context, order domain.Order) error
	OrderPaid(ctx context.Context, order domain.Order) error
	OrderCancelled(ctx context.Context, order domain.Order) error
}

// NopEvents discards all notifications.
type NopEvents struct{}

func (NopEvents) OrderPlaced(context.Context, domain.Order) error    { return nil }
func (NopEvents) OrderPaid(context.Context, domain.Order) error      { return nil }
func (NopEvents) OrderCancelled(context.Context, domain.Order) error { return nil }
