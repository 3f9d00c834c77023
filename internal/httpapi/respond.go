package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	cartapp "github.com/storefront/commerce/internal/cart/app"
	catalogdomain "github.com/storefront/commerce/internal/catalog/domain"
	coupondomain "github.com/storefront/commerce/internal/coupon/domain"
	orderdomain "github.com/storefront/commerce/internal/order/domain"
	"github.com/storefront/commerce/internal/pricing"
)

// Amounts are decimal end to end internally; the wire renders them as
// fixed two-decimal strings so clients never see float artifacts.

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("response encode failed", slog.Any("err", err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := httpStatusFromError(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("err", err))
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = msg
	s.writeJSON(w, status, body)
}

type totalsDTO struct {
	Subtotal string `json:"subtotal"`
	Discount string `json:"discount"`
	Shipping string `json:"shipping"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

func toTotalsDTO(b pricing.Breakdown) totalsDTO {
	return totalsDTO{
		Subtotal: b.Subtotal.StringFixed(2),
		Discount: b.Discount.StringFixed(2),
		Shipping: b.Shipping.StringFixed(2),
		Tax:      b.Tax.StringFixed(2),
		Total:    b.Total.StringFixed(2),
	}
}

type cartItemDTO struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int32  `json:"quantity"`
	LineTotal string `json:"lineTotal"`
}

type cartCouponDTO struct {
	Code               string    `json:"code"`
	DiscountPercentage int32     `json:"discountPercentage"`
	ExpiresAt          time.Time `json:"expiryDate"`
	MinPurchase        string    `json:"minPurchase"`
}

type cartDTO struct {
	Items  []cartItemDTO  `json:"items"`
	Coupon *cartCouponDTO `json:"coupon,omitempty"`
	Totals totalsDTO      `json:"totals"`
}

func toCartDTO(v cartapp.View) cartDTO {
	items := make([]cartItemDTO, len(v.Items))
	for i, it := range v.Items {
		items[i] = cartItemDTO{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice.StringFixed(2),
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal.StringFixed(2),
		}
	}
	dto := cartDTO{Items: items, Totals: toTotalsDTO(v.Totals)}
	if v.Coupon != nil {
		dto.Coupon = &cartCouponDTO{
			Code:               v.Coupon.Code,
			DiscountPercentage: v.Coupon.DiscountPercentage,
			ExpiresAt:          v.Coupon.ExpiresAt,
			MinPurchase:        v.Coupon.MinPurchase.StringFixed(2),
		}
	}
	return dto
}

type productDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       string    `json:"price"`
	Stock       int32     `json:"stock"`
	TotalSales  int32     `json:"totalSales"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toProductDTO(p catalogdomain.Product) productDTO {
	return productDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		TotalSales:  p.TotalSales,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type couponDTO struct {
	ID                 string    `json:"id"`
	Code               string    `json:"code"`
	DiscountPercentage int32     `json:"discountPercentage"`
	MinPurchase        string    `json:"minPurchase"`
	IsActive           bool      `json:"isActive"`
	StartsAt           time.Time `json:"startDate"`
	ExpiresAt          time.Time `json:"expiryDate"`
	UsageLimit         *int32    `json:"usageLimit,omitempty"`
	UsageCount         int32     `json:"usageCount"`
}

func toCouponDTO(c coupondomain.Coupon) couponDTO {
	return couponDTO{
		ID:                 c.ID,
		Code:               c.Code,
		DiscountPercentage: c.DiscountPercentage,
		MinPurchase:        c.MinPurchase.StringFixed(2),
		IsActive:           c.IsActive,
		StartsAt:           c.StartsAt,
		ExpiresAt:          c.ExpiresAt,
		UsageLimit:         c.UsageLimit,
		UsageCount:         c.UsageCount,
	}
}

type orderItemDTO struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int32  `json:"quantity"`
	LineTotal string `json:"lineTotal"`
}

type orderDTO struct {
	ID              string                     `json:"id"`
	UserID          string                     `json:"userId"`
	Items           []orderItemDTO             `json:"items"`
	ShippingAddress orderdomain.Address        `json:"shippingAddress"`
	PaymentMethod   string                     `json:"paymentMethod"`
	Subtotal        string                     `json:"subtotal"`
	Discount        string                     `json:"discount"`
	Shipping        string                     `json:"shipping"`
	Tax             string                     `json:"tax"`
	Total           string                     `json:"total"`
	CouponCode      string                     `json:"couponCode,omitempty"`
	Status          string                     `json:"status"`
	IsPaid          bool                       `json:"isPaid"`
	PaidAt          *time.Time                 `json:"paidAt,omitempty"`
	PaymentResult   *orderdomain.PaymentResult `json:"paymentResult,omitempty"`
	IsDelivered     bool                       `json:"isDelivered"`
	DeliveredAt     *time.Time                 `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time                  `json:"createdAt"`
	UpdatedAt       time.Time                  `json:"updatedAt"`
}

func toOrderDTO(o orderdomain.Order) orderDTO {
	items := make([]orderItemDTO, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemDTO{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice.StringFixed(2),
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal.StringFixed(2),
		}
	}
	return orderDTO{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		Subtotal:        o.Subtotal.StringFixed(2),
		Discount:        o.Discount.StringFixed(2),
		Shipping:        o.Shipping.StringFixed(2),
		Tax:             o.Tax.StringFixed(2),
		Total:           o.Total.StringFixed(2),
		CouponCode:      o.CouponCode,
		Status:          string(o.Status),
		IsPaid:          o.IsPaid,
		PaidAt:          o.PaidAt,
		PaymentResult:   o.PaymentResult,
		IsDelivered:     o.IsDelivered,
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
