package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further transitions leave the status.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition encodes the fulfillment state machine:
// pending → processing → shipped → delivered, with cancellation
// reachable from any non-terminal state. Delivery is strict: only a
// shipped order can be delivered.
func CanTransition(from, to Status) bool {
	switch to {
	case StatusProcessing:
		return from == StatusPending
	case StatusShipped:
		return from == StatusProcessing
	case StatusDelivered:
		return from == StatusShipped
	case StatusCancelled:
		return !from.Terminal()
	default:
		return false
	}
}

// Item is an immutable line snapshot taken at checkout. Name and price
// are copied from the product, so later catalog edits do not alter
// historical orders.
type Item struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int32
	LineTotal decimal.Decimal
}

type Address struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// PaymentResult is the caller-supplied outcome of an external payment.
// This core records it verbatim; verifying its authenticity is the
// payment collaborator's job.
type PaymentResult struct {
	Reference string `json:"id"`
	Status    string `json:"status"`
	Email     string `json:"email"`
}

// Order is the immutable snapshot of a cart at checkout time plus its
// fulfillment state. The stored amounts are what the customer agreed to
// pay and are never recomputed.
type Order struct {
	ID              string
	UserID          string
	Items           []Item
	ShippingAddress Address
	PaymentMethod   string

	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal

	// CouponCode is the code consumed by this order, empty when none.
	CouponCode string

	Status Status

	IsPaid        bool
	PaidAt        *time.Time
	PaymentResult *PaymentResult

	IsDelivered bool
	DeliveredAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
