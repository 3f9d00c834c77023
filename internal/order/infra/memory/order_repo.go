package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/commerce/internal/order/app"
	"github.com/storefront/commerce/internal/order/domain"
)

type OrderRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Order
}

func NewOrderRepo() *OrderRepo {
	return &OrderRepo{byID: make(map[string]*domain.Order)}
}

func (r *OrderRepo) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	stored := cloneOrder(order)
	r.byID[order.ID] = &stored
	return order, nil
}

func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.byID[id]
	if !ok {
		return domain.Order{}, app.ErrNotFound
	}
	return cloneOrder(*o), nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Order
	for _, o := range r.byID {
		if o.UserID == userID {
			out = append(out, cloneOrder(*o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// TransitionStatus is the compare-and-swap: the check against from and
// the write of to happen under one lock hold.
func (r *OrderRepo) TransitionStatus(ctx context.Context, id string, from, to domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.byID[id]
	if !ok {
		return app.ErrNotFound
	}
	if o.Status != from {
		return app.ErrStaleStatus
	}

	o.Status = to
	o.UpdatedAt = time.Now()
	return nil
}

func (r *OrderRepo) MarkPaid(ctx context.Context, id string, paidAt time.Time, result domain.PaymentResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.byID[id]
	if !ok {
		return app.ErrNotFound
	}
	if o.IsPaid {
		return app.ErrAlreadyPaid
	}

	o.IsPaid = true
	o.PaidAt = &paidAt
	o.PaymentResult = &result
	o.UpdatedAt = time.Now()
	return nil
}

func (r *OrderRepo) MarkDelivered(ctx context.Context, id string, deliveredAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.byID[id]
	if !ok {
		return app.ErrNotFound
	}
	if o.Status != domain.StatusShipped {
		return app.ErrStaleStatus
	}

	o.Status = domain.StatusDelivered
	o.IsDelivered = true
	o.DeliveredAt = &deliveredAt
	o.UpdatedAt = time.Now()
	return nil
}

func cloneOrder(o domain.Order) domain.Order {
	out := o
	out.Items = append([]domain.Item(nil), o.Items...)
	if o.PaidAt != nil {
		t := *o.PaidAt
		out.PaidAt = &t
	}
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		out.DeliveredAt = &t
	}
	if o.PaymentResult != nil {
		pr := *o.PaymentResult
		out.PaymentResult = &pr
	}
	return out
}
