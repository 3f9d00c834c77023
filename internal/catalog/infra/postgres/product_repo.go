package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/commerce/internal/catalog/app"
	"github.com/storefront/commerce/internal/catalog/domain"
)

type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price, stock, total_sales, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $6)`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, now,
	)
	if err != nil {
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}

	p.TotalSales = 0
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, stock, total_sales, created_at, updated_at
		FROM products WHERE id = $1`, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

func (r *ProductRepo) List(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, price, stock, total_sales, created_at, updated_at
		FROM products
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%'
		ORDER BY name
		LIMIT $2`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p     domain.Product
		price decimal.Decimal
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Stock, &p.TotalSales, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	p.Price = price
	return p, nil
}
