package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/commerce/internal/order/app"
	"github.com/storefront/commerce/internal/order/domain"
)

type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) execTX(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %w; rollback err: %v", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// Create writes the order header and its item snapshots in one
// transaction, so a half-written order is never observable.
func (r *OrderRepo) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	addr, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return domain.Order{}, fmt.Errorf("encode shipping address: %w", err)
	}

	err = r.execTX(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, user_id, shipping_address, payment_method, subtotal, discount, shipping, tax, total, coupon_code, status, is_paid, is_delivered, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, false, false, $12, $12)`,
			order.ID, order.UserID, addr, order.PaymentMethod,
			order.Subtotal, order.Discount, order.Shipping, order.Tax, order.Total,
			nullString(order.CouponCode), string(order.Status), now,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i, it := range order.Items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, product_id, name, unit_price, quantity, line_total)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				order.ID, it.ProductID, it.Name, it.UnitPrice, it.Quantity, it.LineTotal,
			)
			if err != nil {
				return fmt.Errorf("insert order item %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, shipping_address, payment_method, subtotal, discount, shipping, tax, total, coupon_code, status, is_paid, paid_at, payment_result, is_delivered, delivered_at, created_at, updated_at
		FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("query order: %w", err)
	}

	items, err := r.items(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = items
	return o, nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, shipping_address, payment_method, subtotal, discount, shipping, tax, total, coupon_code, status, is_paid, paid_at, payment_result, is_delivered, delivered_at, created_at, updated_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		items, err := r.items(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

// TransitionStatus updates the status only while it still equals from;
// losing the race reports ErrStaleStatus instead of overwriting.
func (r *OrderRepo) TransitionStatus(ctx context.Context, id string, from, to domain.Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		string(to), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("transition order status: %w", err)
	}
	return r.checkAffected(ctx, res, id, app.ErrStaleStatus)
}

func (r *OrderRepo) MarkPaid(ctx context.Context, id string, paidAt time.Time, result domain.PaymentResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode payment result: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET is_paid = true, paid_at = $1, payment_result = $2, updated_at = now()
		WHERE id = $3 AND is_paid = false`,
		paidAt, payload, id,
	)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	return r.checkAffected(ctx, res, id, app.ErrAlreadyPaid)
}

func (r *OrderRepo) MarkDelivered(ctx context.Context, id string, deliveredAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, is_delivered = true, delivered_at = $2, updated_at = now()
		WHERE id = $3 AND status = $4`,
		string(domain.StatusDelivered), deliveredAt, id, string(domain.StatusShipped),
	)
	if err != nil {
		return fmt.Errorf("mark order delivered: %w", err)
	}
	return r.checkAffected(ctx, res, id, app.ErrStaleStatus)
}

// checkAffected maps a zero-row conditional update to either not-found
// or the given conflict error.
func (r *OrderRepo) checkAffected(ctx context.Context, res sql.Result, id string, conflict error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return app.ErrNotFound
	}
	return conflict
}

func (r *OrderRepo) items(ctx context.Context, orderID string) ([]domain.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, name, unit_price, quantity, line_total
		FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var out []domain.Item
	for rows.Next() {
		var (
			it        domain.Item
			unitPrice decimal.Decimal
			lineTotal decimal.Decimal
		)
		if err := rows.Scan(&it.ProductID, &it.Name, &unitPrice, &it.Quantity, &lineTotal); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		it.UnitPrice = unitPrice
		it.LineTotal = lineTotal
		out = append(out, it)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		o             domain.Order
		addr          []byte
		couponCode    sql.NullString
		status        string
		paidAt        sql.NullTime
		paymentResult []byte
		deliveredAt   sql.NullTime
	)

	err := row.Scan(&o.ID, &o.UserID, &addr, &o.PaymentMethod,
		&o.Subtotal, &o.Discount, &o.Shipping, &o.Tax, &o.Total,
		&couponCode, &status, &o.IsPaid, &paidAt, &paymentResult,
		&o.IsDelivered, &deliveredAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}

	if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
		return domain.Order{}, fmt.Errorf("decode shipping address: %w", err)
	}
	if couponCode.Valid {
		o.CouponCode = couponCode.String
	}
	o.Status = domain.Status(status)
	if paidAt.Valid {
		t := paidAt.Time
		o.PaidAt = &t
	}
	if len(paymentResult) > 0 {
		var pr domain.PaymentResult
		if err := json.Unmarshal(paymentResult, &pr); err != nil {
			return domain.Order{}, fmt.Errorf("decode payment result: %w", err)
		}
		o.PaymentResult = &pr
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		o.DeliveredAt = &t
	}
	return o, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
