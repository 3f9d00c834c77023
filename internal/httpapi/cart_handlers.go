package httpapi

import (
	"encoding/json"
	"net/http"

	cartapp "github.com/storefront/commerce/internal/cart/app"
)

type CartHandlers struct {
	svc    *cartapp.Service
	server *Server
}

func NewCartHandlers(svc *cartapp.Service) *CartHandlers {
	return &CartHandlers{svc: svc}
}

func (h *CartHandlers) get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.server.requireUser(w, r)
	if !ok {
		return
	}

	view, err := h.svc.GetCart(r.Context(), userID)
	if err != nil {
		h.server.writeError(w, r, err)
		return
	}
	h.server.writeJSON(w, http.StatusOK, toCartDTO(view))
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int32  `json:"quantity"`
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.server.requireUser(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.server.writeError(w, r, errMalformedBody)
		return
	}

	view, err := h.svc.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		h.server.writeError(w, r, err)
		return
	}
	h.server.writeJSON(w, http.StatusOK, toCartDTO(view))
}

type updateItemRequest struct {
	Quantity int32 `json:"quantity"`
}

func (h *CartHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.server.requireUser(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.server.writeError(w, r, errMalformedBody)
		return
	}

	view, err := h.svc.UpdateItemQuantity(r.Context(), userID, r.PathValue("productId"), req.Quantity)
	if err != nil {
		h.server.writeError(w, r, err)
		return
	}
	h.server.writeJSON(w, http.StatusOK, toCartDTO(view))
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.server.requireUser(w, r)
	if !ok {
		return
	}

	view, err := h.svc.RemoveItem(r.Context(), userID, r.PathValue("productId"))
	if err != nil {
		h.server.writeError(w, r, err)
		return
	}
	h.server.writeJSON(w, http.StatusOK, toCartDTO(view))
}

func (h *CartHandlers) clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.server.requireUser(w, r)
	if !ok {
		return
	}

	if err := h.svc.Clear(r.Context(), userID); err != nil {
		h.server.writeError(w, r, err)
		return
	}
	h.server.writeJSON(w, http.StatusNoContent, nil)
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

func (h *CartHandlers) applyCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.server.requireUser(w, r)
	if !ok {
		return
	}

	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		h.server.writeError(w, r, errMalformedBody)
		return
	}

	view, err := h.svc.ApplyCoupon(r.Context(), userID, req.Code)
	if err != nil {
		h.server.writeError(w, r, err)
		return
	}
	h.server.writeJSON(w, http.StatusOK, toCartDTO(view))
}

func (h *CartHandlers) removeCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.server.requireUser(w, r)
	if !ok {
		return
	}

	view, err := h.svc.RemoveCoupon(r.Context(), userID)
	if err != nil {
		h.server.writeError(w, r, err)
		return
	}
	h.server.writeJSON(w, http.StatusOK, toCartDTO(view))
}
