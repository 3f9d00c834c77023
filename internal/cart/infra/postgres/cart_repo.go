package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/storefront/commerce/internal/cart/domain"
	coupon "github.com/storefront/commerce/internal/coupon/domain"
)

type CartRepo struct {
	db *sql.DB
}

func NewCartRepo(db *sql.DB) *CartRepo {
	return &CartRepo{db: db}
}

// GetOrCreate relies on the unique index on carts.user_id: when two
// first requests race, the loser's insert hits a unique violation and
// falls back to re-reading the winner's cart.
func (r *CartRepo) GetOrCreate(ctx context.Context, userID string) (domain.Cart, error) {
	cart, err := r.get(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Cart{}, err
	}

	now := time.Now()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO carts (id, user_id, created_at, updated_at) VALUES ($1, $2, $3, $3)`,
		uuid.NewString(), userID, now,
	)
	if err != nil && !isUniqueViolation(err) {
		return domain.Cart{}, fmt.Errorf("create cart: %w", err)
	}

	return r.get(ctx, userID)
}

func (r *CartRepo) get(ctx context.Context, userID string) (domain.Cart, error) {
	var (
		cart       domain.Cart
		code       sql.NullString
		percent    sql.NullInt32
		expiresAt  sql.NullTime
		minPurInDB decimal.NullDecimal
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, coupon_code, coupon_percent, coupon_expires_at, coupon_min_purchase, created_at, updated_at
		FROM carts WHERE user_id = $1`, userID,
	).Scan(&cart.ID, &cart.UserID, &code, &percent, &expiresAt, &minPurInDB, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return domain.Cart{}, err
	}

	if code.Valid {
		cart.Coupon = &coupon.Snapshot{
			Code:               code.String,
			DiscountPercentage: percent.Int32,
			ExpiresAt:          expiresAt.Time,
			MinPurchase:        minPurInDB.Decimal,
		}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, quantity FROM cart_items WHERE cart_id = $1`, cart.ID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.Line
		if err := rows.Scan(&line.ProductID, &line.Quantity); err != nil {
			return domain.Cart{}, fmt.Errorf("scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, line)
	}
	return cart, rows.Err()
}

func (r *CartRepo) AddItem(ctx context.Context, cartID string, line domain.Line) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity) VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		cartID, line.ProductID, line.Quantity,
	)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return r.touch(ctx, cartID)
}

func (r *CartRepo) SetItemQuantity(ctx context.Context, cartID string, line domain.Line) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity) VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity`,
		cartID, line.ProductID, line.Quantity,
	)
	if err != nil {
		return fmt.Errorf("set cart item quantity: %w", err)
	}
	return r.touch(ctx, cartID)
}

func (r *CartRepo) RemoveItem(ctx context.Context, cartID, productID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`,
		cartID, productID,
	)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return r.touch(ctx, cartID)
}

func (r *CartRepo) Clear(ctx context.Context, cartID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	return r.RemoveCoupon(ctx, cartID)
}

func (r *CartRepo) SetCoupon(ctx context.Context, cartID string, snap coupon.Snapshot) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE carts
		SET coupon_code = $1, coupon_percent = $2, coupon_expires_at = $3, coupon_min_purchase = $4, updated_at = now()
		WHERE id = $5`,
		snap.Code, snap.DiscountPercentage, snap.ExpiresAt, snap.MinPurchase, cartID,
	)
	if err != nil {
		return fmt.Errorf("set cart coupon: %w", err)
	}
	return nil
}

func (r *CartRepo) RemoveCoupon(ctx context.Context, cartID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE carts
		SET coupon_code = NULL, coupon_percent = NULL, coupon_expires_at = NULL, coupon_min_purchase = NULL, updated_at = now()
		WHERE id = $1`, cartID,
	)
	if err != nil {
		return fmt.Errorf("remove cart coupon: %w", err)
	}
	return nil
}

func (r *CartRepo) touch(ctx context.Context, cartID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
