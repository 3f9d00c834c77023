package adapter

import (
	"context"
	"errors"

	cartapp "github.com/storefront/commerce/internal/cart/app"
	catalogapp "github.com/storefront/commerce/internal/catalog/app"
)

// CatalogServiceReader adapts the catalog service to the cart context's
// ProductReader port.
type CatalogServiceReader struct {
	svc *catalogapp.Service
}

func NewCatalogServiceReader(svc *catalogapp.Service) *CatalogServiceReader {
	return &CatalogServiceReader{svc: svc}
}

func (r *CatalogServiceReader) GetProduct(ctx context.Context, productID string) (cartapp.Product, error) {
	p, err := r.svc.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, catalogapp.ErrNotFound) {
			return cartapp.Product{}, cartapp.ErrProductNotFound
		}
		return cartapp.Product{}, err
	}
	return cartapp.Product{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock}, nil
}
