package adapter

import (
	"context"

	cartapp "github.com/storefront/commerce/internal/cart/app"
	orderapp "github.com/storefront/commerce/internal/order/app"
)

// CartServiceReader adapts the cart service to the order context's
// CartReader port.
type CartServiceReader struct {
	svc *cartapp.Service
}

func NewCartServiceReader(svc *cartapp.Service) *CartServiceReader {
	return &CartServiceReader{svc: svc}
}

func (r *CartServiceReader) Summary(ctx context.Context, userID string) (orderapp.CartSummary, error) {
	view, err := r.svc.GetCart(ctx, userID)
	if err != nil {
		return orderapp.CartSummary{}, err
	}

	items := make([]orderapp.CartLine, 0, len(view.Items))
	for _, it := range view.Items {
		items = append(items, orderapp.CartLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}
	return orderapp.CartSummary{Items: items, Coupon: view.Coupon}, nil
}

func (r *CartServiceReader) Clear(ctx context.Context, userID string) error {
	return r.svc.Clear(ctx, userID)
}
