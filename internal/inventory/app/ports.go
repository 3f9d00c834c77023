package app

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrProductNotFound = errors.New("product not found")
)

// InsufficientStockError reports a failed reservation together with the
// quantity that was still available when the decision was made.
type InsufficientStockError struct {
	ProductID string
	Requested int32
	Available int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Store is the ledger's persistence port. Implementations must perform
// each operation as a single conditional read-modify-write per product:
// a reserve either decrements stock and increments the sales counter in
// one step, or fails without touching either.
type Store interface {
	Reserve(ctx context.Context, productID string, qty int32) error
	Release(ctx context.Context, productID string, qty int32) error
}
