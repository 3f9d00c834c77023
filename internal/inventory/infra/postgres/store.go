package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/storefront/commerce/internal/inventory/app"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Reserve decrements stock and increments the sales counter in one
// conditional statement. The WHERE clause carries the availability
// check, so the database decides atomically: under concurrent
// checkouts, at most stock/qty reservations can win.
func (s *Store) Reserve(ctx context.Context, productID string, qty int32) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $1, total_sales = total_sales + $1, updated_at = now()
		WHERE id = $2 AND stock >= $1`,
		qty, productID,
	)
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "gone" from "short" for the caller's error
		// message. The reservation decision itself was already made
		// atomically above.
		var available int32
		err := s.db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&available)
		if errors.Is(err, sql.ErrNoRows) {
			return app.ErrProductNotFound
		}
		if err != nil {
			return fmt.Errorf("read stock after failed reserve: %w", err)
		}
		return &app.InsufficientStockError{ProductID: productID, Requested: qty, Available: available}
	}
	return nil
}

// Release restores stock and walks the sales counter back, floored at
// zero, again as a single statement.
func (s *Store) Release(ctx context.Context, productID string, qty int32) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $1, total_sales = GREATEST(total_sales - $1, 0), updated_at = now()
		WHERE id = $2`,
		qty, productID,
	)
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return app.ErrProductNotFound
	}
	return nil
}
