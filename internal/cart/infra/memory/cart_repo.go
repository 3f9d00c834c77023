package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/commerce/internal/cart/domain"
	coupon "github.com/storefront/commerce/internal/coupon/domain"
)

var errCartNotFound = errors.New("cart not found")

type CartRepo struct {
	mu       sync.Mutex
	byUser   map[string]*domain.Cart
	byCartID map[string]*domain.Cart
}

func NewCartRepo() *CartRepo {
	return &CartRepo{
		byUser:   make(map[string]*domain.Cart),
		byCartID: make(map[string]*domain.Cart),
	}
}

func (r *CartRepo) GetOrCreate(ctx context.Context, userID string) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cart, ok := r.byUser[userID]; ok {
		return cloneCart(cart), nil
	}

	now := time.Now()
	cart := &domain.Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.byUser[userID] = cart
	r.byCartID[cart.ID] = cart
	return cloneCart(cart), nil
}

func (r *CartRepo) AddItem(ctx context.Context, cartID string, line domain.Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.byCartID[cartID]
	if !ok {
		return errCartNotFound
	}

	for i := range cart.Items {
		if cart.Items[i].ProductID == line.ProductID {
			cart.Items[i].Quantity += line.Quantity
			cart.UpdatedAt = time.Now()
			return nil
		}
	}
	cart.Items = append(cart.Items, line)
	cart.UpdatedAt = time.Now()
	return nil
}

func (r *CartRepo) SetItemQuantity(ctx context.Context, cartID string, line domain.Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.byCartID[cartID]
	if !ok {
		return errCartNotFound
	}

	for i := range cart.Items {
		if cart.Items[i].ProductID == line.ProductID {
			cart.Items[i].Quantity = line.Quantity
			cart.UpdatedAt = time.Now()
			return nil
		}
	}
	cart.Items = append(cart.Items, line)
	cart.UpdatedAt = time.Now()
	return nil
}

func (r *CartRepo) RemoveItem(ctx context.Context, cartID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.byCartID[cartID]
	if !ok {
		return errCartNotFound
	}

	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			cart.UpdatedAt = time.Now()
			return nil
		}
	}
	return nil
}

func (r *CartRepo) Clear(ctx context.Context, cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.byCartID[cartID]
	if !ok {
		return errCartNotFound
	}

	cart.Items = nil
	cart.Coupon = nil
	cart.UpdatedAt = time.Now()
	return nil
}

func (r *CartRepo) SetCoupon(ctx context.Context, cartID string, snap coupon.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.byCartID[cartID]
	if !ok {
		return errCartNotFound
	}

	cart.Coupon = &snap
	cart.UpdatedAt = time.Now()
	return nil
}

func (r *CartRepo) RemoveCoupon(ctx context.Context, cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.byCartID[cartID]
	if !ok {
		return errCartNotFound
	}

	cart.Coupon = nil
	cart.UpdatedAt = time.Now()
	return nil
}

func cloneCart(c *domain.Cart) domain.Cart {
	out := *c
	out.Items = append([]domain.Line(nil), c.Items...)
	if c.Coupon != nil {
		snap := *c.Coupon
		out.Coupon = &snap
	}
	return out
}
