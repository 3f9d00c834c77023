package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront/commerce/internal/cart/domain"
	coupon "github.com/storefront/commerce/internal/coupon/domain"
)

type CartRepo interface {
	// GetOrCreate returns the user's cart, creating an empty one on
	// first use. Implementations must never produce a second cart for
	// the same user, including under concurrent first calls.
	GetOrCreate(ctx context.Context, userID string) (domain.Cart, error)
	// AddItem merges the line into the cart, incrementing the quantity
	// when the product is already present.
	AddItem(ctx context.Context, cartID string, line domain.Line) error
	// SetItemQuantity replaces the stored quantity for the line.
	SetItemQuantity(ctx context.Context, cartID string, line domain.Line) error
	RemoveItem(ctx context.Context, cartID, productID string) error
	// Clear empties the items and unsets the coupon.
	Clear(ctx context.Context, cartID string) error
	SetCoupon(ctx context.Context, cartID string, snap coupon.Snapshot) error
	RemoveCoupon(ctx context.Context, cartID string) error
}

// Product is the slice of the catalog record the cart needs: live
// price for totals, stock for the provisional availability check.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Stock int32
}

type ProductReader interface {
	GetProduct(ctx context.Context, productID string) (Product, error)
}

// CouponValidator resolves a code and validates it against an order
// amount without consuming a use.
type CouponValidator interface {
	ValidateForAmount(ctx context.Context, code string, amount decimal.Decimal, now time.Time) (coupon.Coupon, error)
}
