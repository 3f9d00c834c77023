package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/commerce/internal/coupon/app"
	"github.com/storefront/commerce/internal/coupon/domain"
)

type CouponRepo struct {
	db *sql.DB
}

func NewCouponRepo(db *sql.DB) *CouponRepo {
	return &CouponRepo{db: db}
}

func (r *CouponRepo) Create(ctx context.Context, c domain.Coupon) (domain.Coupon, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now()

	var usageLimit sql.NullInt32
	if c.UsageLimit != nil {
		usageLimit = sql.NullInt32{Int32: *c.UsageLimit, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO coupons (id, code, discount_percentage, min_purchase, is_active, starts_at, expires_at, usage_limit, usage_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $9)`,
		c.ID, strings.ToUpper(c.Code), c.DiscountPercentage, c.MinPurchase, c.IsActive,
		c.StartsAt, c.ExpiresAt, usageLimit, now,
	)
	if err != nil {
		return domain.Coupon{}, fmt.Errorf("insert coupon: %w", err)
	}

	c.UsageCount = 0
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, nil
}

func (r *CouponRepo) FindByCode(ctx context.Context, code string) (domain.Coupon, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, code, discount_percentage, min_purchase, is_active, starts_at, expires_at, usage_limit, usage_count, created_at, updated_at
		FROM coupons WHERE code = $1`,
		strings.ToUpper(code),
	)

	c, err := scanCoupon(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Coupon{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Coupon{}, fmt.Errorf("query coupon by code: %w", err)
	}
	return c, nil
}

func (r *CouponRepo) List(ctx context.Context) ([]domain.Coupon, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, discount_percentage, min_purchase, is_active, starts_at, expires_at, usage_limit, usage_count, created_at, updated_at
		FROM coupons ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query coupons: %w", err)
	}
	defer rows.Close()

	var out []domain.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Redeem is a single conditional update: the usage counter moves only
// while it is still below the limit, so the limit cannot be overshot
// under concurrent checkouts.
func (r *CouponRepo) Redeem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE coupons
		SET usage_count = usage_count + 1, updated_at = now()
		WHERE id = $1 AND (usage_limit IS NULL OR usage_count < usage_limit)`,
		id,
	)
	if err != nil {
		return fmt.Errorf("redeem coupon: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the coupon is gone or its counter is exhausted.
		if _, err := r.findByID(ctx, id); err != nil {
			return err
		}
		return app.ErrLimitReached
	}
	return nil
}

func (r *CouponRepo) Unredeem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE coupons
		SET usage_count = usage_count - 1, updated_at = now()
		WHERE id = $1 AND usage_count > 0`,
		id,
	)
	if err != nil {
		return fmt.Errorf("unredeem coupon: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.findByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *CouponRepo) findByID(ctx context.Context, id string) (domain.Coupon, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, code, discount_percentage, min_purchase, is_active, starts_at, expires_at, usage_limit, usage_count, created_at, updated_at
		FROM coupons WHERE id = $1`, id)

	c, err := scanCoupon(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Coupon{}, app.ErrNotFound
	}
	return c, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoupon(row rowScanner) (domain.Coupon, error) {
	var (
		c          domain.Coupon
		minPur     decimal.Decimal
		usageLimit sql.NullInt32
	)
	err := row.Scan(&c.ID, &c.Code, &c.DiscountPercentage, &minPur, &c.IsActive,
		&c.StartsAt, &c.ExpiresAt, &usageLimit, &c.UsageCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Coupon{}, err
	}

	c.MinPurchase = minPur
	if usageLimit.Valid {
		v := usageLimit.Int32
		c.UsageLimit = &v
	}
	return c, nil
}
