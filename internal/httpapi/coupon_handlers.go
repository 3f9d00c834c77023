package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	couponapp "github.com/storefront/commerce/internal/coupon/app"
	coupondomain "github.com/storefront/commerce/internal/coupon/domain"
)

type CouponHandlers struct {
	svc    *couponapp.Service
	server *Server
}

func NewCouponHandlers(svc *couponapp.Service) *CouponHandlers {
	return &CouponHandlers{svc: svc}
}

func (h *CouponHandlers) list(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.svc.ListCoupons(r.Context())
	if err != nil {
		h.server.writeError(w, r, err)
		return
	}

	dtos := make([]couponDTO, len(coupons))
	for i, c := range coupons {
		dtos[i] = toCouponDTO(c)
	}
	h.server.writeJSON(w, http.StatusOK, dtos)
}

func (h *CouponHandlers) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.FindByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		h.server.writeError(w, r, err)
		return
	}
	h.server.writeJSON(w, http.StatusOK, toCouponDTO(c))
}

type createCouponRequest struct {
	Code               string    `json:"code"`
	DiscountPercentage int32     `json:"discountPercentage"`
	MinPurchase        string    `json:"minPurchase"`
	IsActive           bool      `json:"isActive"`
	StartsAt           time.Time `json:"startDate"`
	ExpiresAt          time.Time `json:"expiryDate"`
	UsageLimit         *int32    `json:"usageLimit"`
}

func (h *CouponHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req createCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.server.writeError(w, r, errMalformedBody)
		return
	}

	minPurchase := decimal.Zero
	if req.MinPurchase != "" {
		var err error
		minPurchase, err = decimal.NewFromString(req.MinPurchase)
		if err != nil {
			h.server.writeError(w, r, couponapp.ErrInvalidInput)
			return
		}
	}

	c, err := h.svc.CreateCoupon(r.Context(), coupondomain.Coupon{
		Code:               req.Code,
		DiscountPercentage: req.DiscountPercentage,
		MinPurchase:        minPurchase,
		IsActive:           req.IsActive,
		StartsAt:           req.StartsAt,
		ExpiresAt:          req.ExpiresAt,
		UsageLimit:         req.UsageLimit,
	})
	if err != nil {
		h.server.writeError(w, r, err)
		return
	}
	h.server.writeJSON(w, http.StatusCreated, toCouponDTO(c))
}
