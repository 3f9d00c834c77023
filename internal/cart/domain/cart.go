package domain

import (
	"time"

	coupon "github.com/storefront/commerce/internal/coupon/domain"
)

// Line is one product row in a cart. A cart holds at most one line per
// product; adding an already-present product merges quantities.
type Line struct {
	ProductID string `json:"productId"`
	Quantity  int32  `json:"quantity"`
}

// Cart is the per-user pre-order basket. It exists at most once per
// user, is created lazily on first use, and is cleared rather than
// deleted on checkout. The coupon field is a snapshot taken at
// apply-time, so later coupon edits do not change this cart.
type Cart struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Items     []Line           `json:"items"`
	Coupon    *coupon.Snapshot `json:"coupon,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Line returns the line for the given product, if present.
func (c Cart) Line(productID string) (Line, bool) {
	for _, l := range c.Items {
		if l.ProductID == productID {
			return l, true
		}
	}
	return Line{}, false
}
