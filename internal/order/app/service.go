package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	couponapp "github.com/storefront/commerce/internal/coupon/app"
	coupon "github.com/storefront/commerce/internal/coupon/domain"
	"github.com/storefront/commerce/internal/order/domain"
	"github.com/storefront/commerce/internal/pricing"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrNotOwner          = errors.New("order belongs to a different user")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyPaid       = errors.New("order is already paid")
	// ErrStaleStatus is reported by the repo when a compare-and-swap
	// transition loses to a concurrent update.
	ErrStaleStatus = errors.New("order status changed concurrently")
)

// Service drives the order lifecycle: it converts carts into immutable
// priced orders, and owns every status transition and its inventory
// side effects.
type Service struct {
	repo      OrderRepo
	carts     CartReader
	catalog   CatalogReader
	inventory Inventory
	coupons   Coupons
	events    Events
	pricer    pricing.Calculator
	log       *slog.Logger

	maxConcurrent int
	now           func() time.Time
}

func NewService(
	repo OrderRepo,
	carts CartReader,
	catalog CatalogReader,
	inventory Inventory,
	coupons Coupons,
	events Events,
	pricer pricing.Calculator,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:          repo,
		carts:         carts,
		catalog:       catalog,
		inventory:     inventory,
		coupons:       coupons,
		events:        events,
		pricer:        pricer,
		log:           log,
		maxConcurrent: 10,
		now:           time.Now,
	}
}

// WithClock overrides the service's time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Checkout turns the user's cart into a pending order.
//
// Order creation spans several records without a surrounding
// transaction, so it runs as reserve-then-commit-with-compensation:
// every line's stock is reserved first, each reservation individually
// atomic; only once all lines (and the coupon's usage slot, when one
// applies) are held is the order persisted and the cart cleared. Any
// failure along the way releases exactly what this attempt had taken,
// so no partial reservation survives.
func (s *Service) Checkout(ctx context.Context, userID string, addr domain.Address, paymentMethod string) (domain.Order, error) {
	summary, err := s.carts.Summary(ctx, userID)
	if err != nil {
		return domain.Order{}, err
	}
	if len(summary.Items) == 0 {
		return domain.Order{}, ErrEmptyCart
	}

	items, err := s.snapshotItems(ctx, summary.Items)
	if err != nil {
		return domain.Order{}, err
	}

	lines := make([]pricing.Line, len(items))
	for i, it := range items {
		lines[i] = pricing.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity}
	}
	subtotal := s.pricer.Quote(lines, 0).Subtotal

	// The coupon applied at cart time is validated again against the
	// final subtotal: one that expired or was exhausted in the
	// meantime fails the checkout here rather than being silently
	// honored.
	var appliedCoupon *coupon.Coupon
	if summary.Coupon != nil {
		c, err := s.coupons.ValidateForAmount(ctx, summary.Coupon.Code, subtotal, s.now())
		if err != nil {
			return domain.Order{}, err
		}
		appliedCoupon = &c
	}

	var percent int32
	if appliedCoupon != nil {
		percent = appliedCoupon.DiscountPercentage
	}
	totals := s.pricer.Quote(lines, percent)

	reserved, err := s.reserveAll(ctx, items)
	if err != nil {
		return domain.Order{}, err
	}

	if appliedCoupon != nil {
		if err := s.coupons.Redeem(ctx, appliedCoupon.ID); err != nil {
			s.releaseAll(ctx, reserved)
			if errors.Is(err, couponapp.ErrLimitReached) {
				return domain.Order{}, &coupon.RejectionError{Code: appliedCoupon.Code, Reason: "usage limit exceeded"}
			}
			return domain.Order{}, fmt.Errorf("redeem coupon: %w", err)
		}
	}

	order := domain.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: addr,
		PaymentMethod:   paymentMethod,
		Subtotal:        totals.Subtotal,
		Discount:        totals.Discount,
		Shipping:        totals.Shipping,
		Tax:             totals.Tax,
		Total:           totals.Total,
		Status:          domain.StatusPending,
	}
	if appliedCoupon != nil {
		order.CouponCode = appliedCoupon.Code
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		s.releaseAll(ctx, reserved)
		if appliedCoupon != nil {
			if uerr := s.coupons.Unredeem(ctx, appliedCoupon.ID); uerr != nil {
				s.log.Error("coupon rollback failed", slog.String("coupon", appliedCoupon.Code), slog.Any("err", uerr))
			}
		}
		return domain.Order{}, fmt.Errorf("persist order: %w", err)
	}

	// The order exists from here on; a failed cart clear leaves a
	// stale cart but never an inconsistent order.
	if err := s.carts.Clear(ctx, userID); err != nil {
		s.log.Warn("cart clear after checkout failed", slog.String("user", userID), slog.Any("err", err))
	}

	if err := s.events.OrderPlaced(ctx, created); err != nil {
		s.log.Warn("order placed event failed", slog.String("order", created.ID), slog.Any("err", err))
	}

	return created, nil
}

func (s *Service) snapshotItems(ctx context.Context, cartLines []CartLine) ([]domain.Item, error) {
	items := make([]domain.Item, len(cartLines))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for idx := range cartLines {
		g.Go(func() error {
			line := cartLines[idx]
			if line.Quantity < 1 {
				return fmt.Errorf("line %s: quantity must be at least 1, got %d", line.ProductID, line.Quantity)
			}

			p, err := s.catalog.GetProduct(ctx, line.ProductID)
			if err != nil {
				return fmt.Errorf("load product %s: %w", line.ProductID, err)
			}

			items[idx] = domain.Item{
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

// reserveAll reserves stock line by line. On the first failure it
// releases what this attempt already holds, in reverse order, and
// reports the failure; the caller sees all-or-nothing.
func (s *Service) reserveAll(ctx context.Context, items []domain.Item) ([]domain.Item, error) {
	var held []domain.Item
	for _, it := range items {
		if err := s.inventory.Reserve(ctx, it.ProductID, it.Quantity); err != nil {
			s.releaseAll(ctx, held)
			return nil, err
		}
		held = append(held, it)
	}
	return held, nil
}

func (s *Service) releaseAll(ctx context.Context, held []domain.Item) {
	for i := len(held) - 1; i >= 0; i-- {
		it := held[i]
		if err := s.inventory.Release(ctx, it.ProductID, it.Quantity); err != nil {
			s.log.Error("stock release failed",
				slog.String("product", it.ProductID),
				slog.Int("quantity", int(it.Quantity)),
				slog.Any("err", err))
		}
	}
}

// Get returns the order, enforcing ownership when requesterID is set.
// Internal callers (admin handlers, payment webhooks) pass an empty
// requester.
func (s *Service) Get(ctx context.Context, id, requesterID string) (domain.Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if requesterID != "" && o.UserID != requesterID {
		return domain.Order{}, ErrNotOwner
	}
	return o, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// SetStatus performs the plain fulfillment moves, pending→processing
// and processing→shipped. Delivery and cancellation have their own
// entry points because they carry extra effects.
func (s *Service) SetStatus(ctx context.Context, id string, to domain.Status) (domain.Order, error) {
	if to != domain.StatusProcessing && to != domain.StatusShipped {
		return domain.Order{}, ErrInvalidTransition
	}

	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !domain.CanTransition(o.Status, to) {
		return domain.Order{}, ErrInvalidTransition
	}

	if err := s.repo.TransitionStatus(ctx, id, o.Status, to); err != nil {
		return domain.Order{}, err
	}
	return s.repo.Get(ctx, id)
}

// MarkPaid records the external payment result. The flag is orthogonal
// to fulfillment status, settable once while the order is not terminal.
func (s *Service) MarkPaid(ctx context.Context, id string, result domain.PaymentResult) (domain.Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if o.IsPaid {
		return domain.Order{}, ErrAlreadyPaid
	}
	if o.Status.Terminal() {
		return domain.Order{}, ErrInvalidTransition
	}

	if err := s.repo.MarkPaid(ctx, id, s.now(), result); err != nil {
		return domain.Order{}, err
	}

	paid, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.events.OrderPaid(ctx, paid); err != nil {
		s.log.Warn("order paid event failed", slog.String("order", id), slog.Any("err", err))
	}
	return paid, nil
}

// MarkDelivered completes fulfillment. Strict by choice: only a
// shipped order can be delivered.
func (s *Service) MarkDelivered(ctx context.Context, id string) (domain.Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !domain.CanTransition(o.Status, domain.StatusDelivered) {
		return domain.Order{}, ErrInvalidTransition
	}

	if err := s.repo.MarkDelivered(ctx, id, s.now()); err != nil {
		return domain.Order{}, err
	}
	return s.repo.Get(ctx, id)
}

// Cancel aborts a non-terminal order and returns its stock to the
// shelf. Cancelling an already-cancelled order is a no-op, and the
// compare-and-swap transition guarantees the stock restoration runs at
// most once even under concurrent cancellations.
func (s *Service) Cancel(ctx context.Context, id, requesterID string) (domain.Order, error) {
	o, err := s.Get(ctx, id, requesterID)
	if err != nil {
		return domain.Order{}, err
	}

	if o.Status == domain.StatusCancelled {
		return o, nil
	}
	if o.Status.Terminal() {
		return domain.Order{}, ErrInvalidTransition
	}

	err = s.repo.TransitionStatus(ctx, id, o.Status, domain.StatusCancelled)
	if errors.Is(err, ErrStaleStatus) {
		// Lost a race. If the winner cancelled, this call is the
		// idempotent no-op; otherwise surface the conflict.
		current, gerr := s.repo.Get(ctx, id)
		if gerr != nil {
			return domain.Order{}, gerr
		}
		if current.Status == domain.StatusCancelled {
			return current, nil
		}
		return domain.Order{}, err
	}
	if err != nil {
		return domain.Order{}, err
	}

	for _, it := range o.Items {
		if rerr := s.inventory.Release(ctx, it.ProductID, it.Quantity); rerr != nil {
			s.log.Error("stock restore on cancel failed",
				slog.String("order", id),
				slog.String("product", it.ProductID),
				slog.Any("err", rerr))
		}
	}

	cancelled, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.events.OrderCancelled(ctx, cancelled); err != nil {
		s.log.Warn("order cancelled event failed", slog.String("order", id), slog.Any("err", err))
	}
	return cancelled, nil
}
