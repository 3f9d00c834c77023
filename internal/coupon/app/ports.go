package app

import (
	"context"

	"github.com/storefront/commerce/internal/coupon/domain"
)

type CouponRepo interface {
	Create(ctx context.Context, c domain.Coupon) (domain.Coupon, error)
	FindByCode(ctx context.Context, code string) (domain.Coupon, error)
	List(ctx context.Context) ([]domain.Coupon, error)
	// Redeem increments the usage counter, but only while it is below
	// the usage limit. The check and the increment are one atomic
	// operation; concurrent redemptions cannot push the counter past
	// the limit. Returns ErrLimitReached when the counter is exhausted.
	Redeem(ctx context.Context, id string) error
	// Unredeem decrements the usage counter, floored at zero. Used as
	// the compensating action when an order fails after redemption.
	Unredeem(ctx context.Context, id string) error
}
