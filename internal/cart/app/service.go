package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/storefront/commerce/internal/cart/domain"
	coupon "github.com/storefront/commerce/internal/coupon/domain"
	inventory "github.com/storefront/commerce/internal/inventory/app"
	"github.com/storefront/commerce/internal/pricing"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrProductNotFound = errors.New("product not found")
	ErrItemNotInCart   = errors.New("item not in cart")
)

// ItemView is a cart line joined with live catalog data.
type ItemView struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int32
	LineTotal decimal.Decimal
}

// View is the priced cart as reported to callers.
type View struct {
	Items  []ItemView
	Coupon *coupon.Snapshot
	Totals pricing.Breakdown
}

type Service struct {
	repo     CartRepo
	products ProductReader
	coupons  CouponValidator
	pricer   pricing.Calculator

	maxConcurrent int
	now           func() time.Time
}

func NewService(repo CartRepo, products ProductReader, coupons CouponValidator, pricer pricing.Calculator) *Service {
	return &Service{
		repo:          repo,
		products:      products,
		coupons:       coupons,
		pricer:        pricer,
		maxConcurrent: 10,
		now:           time.Now,
	}
}

// WithClock overrides the service's time source. Tests use this to pin
// coupon validation to a fixed instant.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetCart returns the user's priced cart, creating an empty one on
// first use.
func (s *Service) GetCart(ctx context.Context, userID string) (View, error) {
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, cart)
}

// AddItem merges qty units of the product into the cart. The combined
// quantity is provisionally checked against current stock; stock is not
// reserved until checkout.
func (s *Service) AddItem(ctx context.Context, userID, productID string, qty int32) (View, error) {
	if qty < 1 {
		return View{}, ErrInvalidQuantity
	}

	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return View{}, err
	}

	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return View{}, err
	}

	wanted := qty
	if line, ok := cart.Line(productID); ok {
		wanted += line.Quantity
	}
	if p.Stock < wanted {
		return View{}, &inventory.InsufficientStockError{ProductID: productID, Requested: wanted, Available: p.Stock}
	}

	if err := s.repo.AddItem(ctx, cart.ID, domain.Line{ProductID: productID, Quantity: qty}); err != nil {
		return View{}, err
	}
	return s.GetCart(ctx, userID)
}

// UpdateItemQuantity replaces the stored quantity for an existing line.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, productID string, qty int32) (View, error) {
	if qty < 1 {
		return View{}, ErrInvalidQuantity
	}

	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return View{}, err
	}
	if _, ok := cart.Line(productID); !ok {
		return View{}, ErrItemNotInCart
	}

	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return View{}, err
	}
	if p.Stock < qty {
		return View{}, &inventory.InsufficientStockError{ProductID: productID, Requested: qty, Available: p.Stock}
	}

	if err := s.repo.SetItemQuantity(ctx, cart.ID, domain.Line{ProductID: productID, Quantity: qty}); err != nil {
		return View{}, err
	}
	return s.GetCart(ctx, userID)
}

// RemoveItem deletes the product's line. Removing an absent product is
// a no-op.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (View, error) {
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return View{}, err
	}

	if _, ok := cart.Line(productID); ok {
		if err := s.repo.RemoveItem(ctx, cart.ID, productID); err != nil {
			return View{}, err
		}
	}
	return s.GetCart(ctx, userID)
}

// Clear empties the cart and unsets any applied coupon.
func (s *Service) Clear(ctx context.Context, userID string) error {
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.Clear(ctx, cart.ID)
}

// ApplyCoupon validates the code against the cart's current subtotal
// and, on success, stores a snapshot of the coupon. The usage counter
// is not touched; a failed validation leaves any previously applied
// coupon in place.
func (s *Service) ApplyCoupon(ctx context.Context, userID, code string) (View, error) {
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return View{}, err
	}

	items, err := s.loadItems(ctx, cart)
	if err != nil {
		return View{}, err
	}
	subtotal := s.pricer.Quote(pricingLines(items), 0).Subtotal

	c, err := s.coupons.ValidateForAmount(ctx, code, subtotal, s.now())
	if err != nil {
		return View{}, err
	}

	if err := s.repo.SetCoupon(ctx, cart.ID, c.Snapshot()); err != nil {
		return View{}, err
	}
	return s.GetCart(ctx, userID)
}

// RemoveCoupon unsets the snapshot unconditionally.
func (s *Service) RemoveCoupon(ctx context.Context, userID string) (View, error) {
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return View{}, err
	}
	if err := s.repo.RemoveCoupon(ctx, cart.ID); err != nil {
		return View{}, err
	}
	return s.GetCart(ctx, userID)
}

// view joins the cart's lines with live catalog prices and delegates
// the arithmetic to the pricing calculator. Product lookups fan out
// concurrently, bounded by maxConcurrent.
func (s *Service) view(ctx context.Context, cart domain.Cart) (View, error) {
	items, err := s.loadItems(ctx, cart)
	if err != nil {
		return View{}, err
	}

	var percent int32
	if cart.Coupon != nil {
		percent = cart.Coupon.DiscountPercentage
	}

	return View{
		Items:  items,
		Coupon: cart.Coupon,
		Totals: s.pricer.Quote(pricingLines(items), percent),
	}, nil
}

func (s *Service) loadItems(ctx context.Context, cart domain.Cart) ([]ItemView, error) {
	items := make([]ItemView, len(cart.Items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for idx := range cart.Items {
		g.Go(func() error {
			line := cart.Items[idx]
			p, err := s.products.GetProduct(ctx, line.ProductID)
			if err != nil {
				return fmt.Errorf("load product %s: %w", line.ProductID, err)
			}

			items[idx] = ItemView{
				ProductID: p.ID,
				Name:      p.Name,
				UnitPrice: p.Price,
				Quantity:  line.Quantity,
				LineTotal: p.Price.Mul(decimal.NewFromInt32(line.Quantity)),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func pricingLines(items []ItemView) []pricing.Line {
	lines := make([]pricing.Line, len(items))
	for i, it := range items {
		lines[i] = pricing.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity}
	}
	return lines
}
