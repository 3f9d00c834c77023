package adapter

import (
	"context"

	catalogapp "github.com/storefront/commerce/internal/catalog/app"
	orderapp "github.com/storefront/commerce/internal/order/app"
)

// CatalogServiceReader adapts the catalog service to the order
// context's CatalogReader port.
type CatalogServiceReader struct {
	svc *catalogapp.Service
}

func NewCatalogServiceReader(svc *catalogapp.Service) *CatalogServiceReader {
	return &CatalogServiceReader{svc: svc}
}

func (r *CatalogServiceReader) GetProduct(ctx context.Context, productID string) (orderapp.Product, error) {
	p, err := r.svc.GetProduct(ctx, productID)
	if err != nil {
		return orderapp.Product{}, err
	}
	return orderapp.Product{ID: p.ID, Name: p.Name, Price: p.Price}, nil
}
