package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront/commerce/internal/coupon/domain"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("coupon not found")
	// ErrLimitReached is returned by Redeem when the usage counter is
	// already at the usage limit.
	ErrLimitReached = errors.New("coupon usage limit reached")
)

type Service struct {
	repo CouponRepo
}

func NewService(repo CouponRepo) *Service {
	return &Service{repo: repo}
}

// CreateCoupon registers a new coupon. The code is normalized to
// upper-case before storing.
func (s *Service) CreateCoupon(ctx context.Context, c domain.Coupon) (domain.Coupon, error) {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))

	if c.Code == "" {
		return domain.Coupon{}, ErrInvalidInput
	}
	if c.DiscountPercentage < 1 || c.DiscountPercentage > 99 {
		return domain.Coupon{}, ErrInvalidInput
	}
	if c.MinPurchase.IsNegative() {
		return domain.Coupon{}, ErrInvalidInput
	}
	if c.UsageLimit != nil && *c.UsageLimit < 0 {
		return domain.Coupon{}, ErrInvalidInput
	}
	if !c.ExpiresAt.After(c.StartsAt) {
		return domain.Coupon{}, ErrInvalidInput
	}

	c.UsageCount = 0
	return s.repo.Create(ctx, c)
}

func (s *Service) ListCoupons(ctx context.Context) ([]domain.Coupon, error) {
	return s.repo.List(ctx)
}

// FindByCode looks a coupon up case-insensitively.
func (s *Service) FindByCode(ctx context.Context, code string) (domain.Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return domain.Coupon{}, ErrInvalidInput
	}
	return s.repo.FindByCode(ctx, code)
}

// ValidateForAmount resolves the code and runs the validator against
// the given pre-discount order amount. It does not touch the usage
// counter.
func (s *Service) ValidateForAmount(ctx context.Context, code string, amount decimal.Decimal, now time.Time) (domain.Coupon, error) {
	c, err := s.FindByCode(ctx, code)
	if err != nil {
		return domain.Coupon{}, err
	}
	if err := c.Validate(now, amount); err != nil {
		return domain.Coupon{}, err
	}
	return c, nil
}

// Redeem consumes one use of the coupon. Callers invoke this only at
// the point the coupon is irrevocably attached to an order.
func (s *Service) Redeem(ctx context.Context, id string) error {
	return s.repo.Redeem(ctx, id)
}

// Unredeem hands a use back after a failed order attempt.
func (s *Service) Unredeem(ctx context.Context, id string) error {
	return s.repo.Unredeem(ctx, id)
}
