// Package redis stores each user's cart as a single JSON document.
// A cart is only ever mutated by its own user, so read-modify-write per
// key is safe; cross-user contention does not exist by construction.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/storefront/commerce/internal/cart/domain"
	coupon "github.com/storefront/commerce/internal/coupon/domain"
)

var errCartNotFound = errors.New("cart not found")

type CartRepo struct {
	rdb *redis.Client
}

func NewCartRepo(rdb *redis.Client) *CartRepo {
	return &CartRepo{rdb: rdb}
}

func userKey(userID string) string { return "cart:user:" + userID }
func cartKey(cartID string) string { return "cart:id:" + cartID }

func (r *CartRepo) GetOrCreate(ctx context.Context, userID string) (domain.Cart, error) {
	cart, err := r.byUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, redis.Nil) {
		return domain.Cart{}, err
	}

	now := time.Now()
	cart = domain.Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// SetNX keeps the one-cart-per-user invariant under concurrent
	// first requests: only one creator wins, everyone re-reads.
	created, err := r.rdb.SetNX(ctx, userKey(userID), cart.ID, 0).Result()
	if err != nil {
		return domain.Cart{}, fmt.Errorf("reserve cart key: %w", err)
	}
	if !created {
		return r.byUser(ctx, userID)
	}

	if err := r.save(ctx, cart); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

func (r *CartRepo) byUser(ctx context.Context, userID string) (domain.Cart, error) {
	cartID, err := r.rdb.Get(ctx, userKey(userID)).Result()
	if err != nil {
		return domain.Cart{}, err
	}
	return r.byID(ctx, cartID)
}

func (r *CartRepo) byID(ctx context.Context, cartID string) (domain.Cart, error) {
	raw, err := r.rdb.Get(ctx, cartKey(cartID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Cart{}, errCartNotFound
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return domain.Cart{}, fmt.Errorf("decode cart: %w", err)
	}
	return cart, nil
}

func (r *CartRepo) save(ctx context.Context, cart domain.Cart) error {
	cart.UpdatedAt = time.Now()

	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := r.rdb.Set(ctx, cartKey(cart.ID), raw, 0).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (r *CartRepo) mutate(ctx context.Context, cartID string, fn func(*domain.Cart)) error {
	cart, err := r.byID(ctx, cartID)
	if err != nil {
		return err
	}
	fn(&cart)
	return r.save(ctx, cart)
}

func (r *CartRepo) AddItem(ctx context.Context, cartID string, line domain.Line) error {
	return r.mutate(ctx, cartID, func(cart *domain.Cart) {
		for i := range cart.Items {
			if cart.Items[i].ProductID == line.ProductID {
				cart.Items[i].Quantity += line.Quantity
				return
			}
		}
		cart.Items = append(cart.Items, line)
	})
}

func (r *CartRepo) SetItemQuantity(ctx context.Context, cartID string, line domain.Line) error {
	return r.mutate(ctx, cartID, func(cart *domain.Cart) {
		for i := range cart.Items {
			if cart.Items[i].ProductID == line.ProductID {
				cart.Items[i].Quantity = line.Quantity
				return
			}
		}
		cart.Items = append(cart.Items, line)
	})
}

func (r *CartRepo) RemoveItem(ctx context.Context, cartID, productID string) error {
	return r.mutate(ctx, cartID, func(cart *domain.Cart) {
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
				return
			}
		}
	})
}

func (r *CartRepo) Clear(ctx context.Context, cartID string) error {
	return r.mutate(ctx, cartID, func(cart *domain.Cart) {
		cart.Items = nil
		cart.Coupon = nil
	})
}

func (r *CartRepo) SetCoupon(ctx context.Context, cartID string, snap coupon.Snapshot) error {
	return r.mutate(ctx, cartID, func(cart *domain.Cart) {
		cart.Coupon = &snap
	})
}

func (r *CartRepo) RemoveCoupon(ctx context.Context, cartID string) error {
	return r.mutate(ctx, cartID, func(cart *domain.Cart) {
		cart.Coupon = nil
	})
}
