// Package memory holds an in-process coupon store. It backs the dev
// configuration and the service-level tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/commerce/internal/coupon/app"
	"github.com/storefront/commerce/internal/coupon/domain"
)

type CouponRepo struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Coupon
	idByCod map[string]string
}

func NewCouponRepo() *CouponRepo {
	return &CouponRepo{
		byID:    make(map[string]*domain.Coupon),
		idByCod: make(map[string]string),
	}
}

func (r *CouponRepo) Create(ctx context.Context, c domain.Coupon) (domain.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := strings.ToUpper(c.Code)
	if _, exists := r.idByCod[code]; exists {
		return domain.Coupon{}, app.ErrInvalidInput
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Code = code
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	stored := c
	r.byID[c.ID] = &stored
	r.idByCod[code] = c.ID
	return c, nil
}

func (r *CouponRepo) FindByCode(ctx context.Context, code string) (domain.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.idByCod[strings.ToUpper(code)]
	if !ok {
		return domain.Coupon{}, app.ErrNotFound
	}
	return *r.byID[id], nil
}

func (r *CouponRepo) List(ctx context.Context) ([]domain.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Coupon, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, *c)
	}
	return out, nil
}

// Redeem performs the limit check and the increment inside one critical
// section so concurrent redemptions cannot both pass the check.
func (r *CouponRepo) Redeem(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return app.ErrNotFound
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return app.ErrLimitReached
	}
	c.UsageCount++
	c.UpdatedAt = time.Now()
	return nil
}

func (r *CouponRepo) Unredeem(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return app.ErrNotFound
	}
	if c.UsageCount > 0 {
		c.UsageCount--
		c.UpdatedAt = time.Now()
	}
	return nil
}
