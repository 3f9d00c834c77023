// Package memory is the in-process product store. It backs the dev
// configuration and the service-level tests, and doubles as the
// inventory ledger's store: stock lives in one place, guarded by one
// lock, so the reserve check and the decrement happen in a single
// critical section.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	catalogapp "github.com/storefront/commerce/internal/catalog/app"
	"github.com/storefront/commerce/internal/catalog/domain"
	inventoryapp "github.com/storefront/commerce/internal/inventory/app"
)

type ProductStore struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewProductStore() *ProductStore {
	return &ProductStore{products: make(map[string]*domain.Product)}
}

func (s *ProductStore) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	stored := p
	s.products[p.ID] = &stored
	return p, nil
}

func (s *ProductStore) Get(ctx context.Context, id string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, catalogapp.ErrNotFound
	}
	return *p, nil
}

func (s *ProductStore) List(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(query)
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		out = append(out, *p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Reserve implements the inventory store port. The availability check
// and the decrement share the lock, so two concurrent reservations can
// never both pass the check and oversell.
func (s *ProductStore) Reserve(ctx context.Context, productID string, qty int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return inventoryapp.ErrProductNotFound
	}
	if p.Stock < qty {
		return &inventoryapp.InsufficientStockError{
			ProductID: productID,
			Requested: qty,
			Available: p.Stock,
		}
	}

	p.Stock -= qty
	p.TotalSales += qty
	p.UpdatedAt = time.Now()
	return nil
}

// Release implements the inventory store port. The sales counter floors
// at zero.
func (s *ProductStore) Release(ctx context.Context, productID string, qty int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return inventoryapp.ErrProductNotFound
	}

	p.Stock += qty
	p.TotalSales -= qty
	if p.TotalSales < 0 {
		p.TotalSales = 0
	}
	p.UpdatedAt = time.Now()
	return nil
}
