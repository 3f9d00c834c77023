package httpapi

import (
	"encoding/json"
	"net/http"

	orderapp "github.com/storefront/commerce/internal/order/app"
	orderdomain "github.com/storefront/commerce/internal/order/domain"
)

type OrderHandlers struct {
	svc    *orderapp.Service
	server *Server
}

func NewOrderHandlers(svc *orderapp.Service) *OrderHandlers {
	return &OrderHandlers{svc: svc}
}

type checkoutRequest struct {
	ShippingAddress orderdomain.Address `json:"shippingAddress"`
	PaymentMethod   string              `json:"paymentMethod"`
}

func (h *OrderHandlers) checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.server.requireUser(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.server.writeError(w, r, errMalformedBody)
		return
	}

	order, err := h.svc.Checkout(r.Context(), userID, req.ShippingAddress, req.PaymentMethod)
	if err != nil {
		h.server.writeError(w, r, err)
		return
	}
	h.server.writeJSON(w, http.StatusCreated, toOrderDTO(order))
}

func (h *OrderHandlers) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.server.requireUser(w, r)
	if !ok {
		return
	}

	orders, err := h.svc.ListByUser(r.Context(), userID)
	if err != nil {
		h.server.writeError(w, r, err)
		return
	}

	dtos := make([]orderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = toOrderDTO(o)
	}
	h.server.writeJSON(w, http.StatusOK, dtos)
}

func (h *OrderHandlers) get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.server.requireUser(w, r)
	if !ok {
		return
	}

	order, err := h.svc.Get(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		h.server.writeError(w, r, err)
		return
	}
	h.server.writeJSON(w, http.StatusOK, toOrderDTO(order))
}

// pay records an external payment result. It is the webhook surface, so
// it takes no user identity and trusts the gateway's routing.
func (h *OrderHandlers) pay(w http.ResponseWriter, r *http.Request) {
	var result orderdomain.PaymentResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		h.server.writeError(w, r, errMalformedBody)
		return
	}

	order, err := h.svc.MarkPaid(r.Context(), r.PathValue("id"), result)
	if err != nil {
		h.server.writeError(w, r, err)
		return
	}
	h.server.writeJSON(w, http.StatusOK, toOrderDTO(order))
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandlers) setStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.server.writeError(w, r, errMalformedBody)
		return
	}

	order, err := h.svc.SetStatus(r.Context(), r.PathValue("id"), orderdomain.Status(req.Status))
	if err != nil {
		h.server.writeError(w, r, err)
		return
	}
	h.server.writeJSON(w, http.StatusOK, toOrderDTO(order))
}

func (h *OrderHandlers) deliver(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.MarkDelivered(r.Context(), r.PathValue("id"))
	if err != nil {
		h.server.writeError(w, r, err)
		return
	}
	h.server.writeJSON(w, http.StatusOK, toOrderDTO(order))
}

func (h *OrderHandlers) cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.server.requireUser(w, r)
	if !ok {
		return
	}

	order, err := h.svc.Cancel(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		h.server.writeError(w, r, err)
		return
	}
	h.server.writeJSON(w, http.StatusOK, toOrderDTO(order))
}
