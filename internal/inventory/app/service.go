// Package app holds the inventory ledger: the sole owner of product
// stock and sales counters. Reserve and release are its only two
// operations.
package app

import "context"

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Reserve takes qty units out of the product's stock and adds them to
// its sales counter, failing when fewer than qty units remain. Stock
// can never go negative regardless of request interleaving.
func (s *Service) Reserve(ctx context.Context, productID string, qty int32) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	return s.store.Reserve(ctx, productID, qty)
}

// Release returns qty units to the product's stock and takes them back
// off the sales counter, which floors at zero.
func (s *Service) Release(ctx context.Context, productID string, qty int32) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	return s.store.Release(ctx, productID, qty)
}
