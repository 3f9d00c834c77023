// Package httpapi exposes the commerce services over JSON HTTP.
//
// Authentication lives at the edge; handlers trust the X-User-ID header
// placed there by the gateway.
package httpapi

import (
	"log/slog"
	"net/http"
)

const userHeader = "X-User-ID"

type Server struct {
	catalog *CatalogHandlers
	coupons *CouponHandlers
	carts   *CartHandlers
	orders  *OrderHandlers
	log     *slog.Logger
}

func NewServer(
	catalog *CatalogHandlers,
	coupons *CouponHandlers,
	carts *CartHandlers,
	orders *OrderHandlers,
	log *slog.Logger,
) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		catalog: catalog,
		coupons: coupons,
		carts:   carts,
		orders:  orders,
		log:     log,
	}
	catalog.server = s
	coupons.server = s
	carts.server = s
	orders.server = s
	return s
}

// Routes builds the mux. Method-qualified patterns let the mux return
// 405 for wrong verbs without extra plumbing.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	mux.HandleFunc("GET /api/products", s.catalog.list)
	mux.HandleFunc("POST /api/products", s.catalog.create)
	mux.HandleFunc("GET /api/products/{id}", s.catalog.get)

	mux.HandleFunc("GET /api/coupons", s.coupons.list)
	mux.HandleFunc("POST /api/coupons", s.coupons.create)
	mux.HandleFunc("GET /api/coupons/{code}", s.coupons.get)

	mux.HandleFunc("GET /api/cart", s.carts.get)
	mux.HandleFunc("POST /api/cart/items", s.carts.addItem)
	mux.HandleFunc("PUT /api/cart/items/{productId}", s.carts.updateItem)
	mux.HandleFunc("DELETE /api/cart/items/{productId}", s.carts.removeItem)
	mux.HandleFunc("DELETE /api/cart", s.carts.clear)
	mux.HandleFunc("POST /api/cart/coupon", s.carts.applyCoupon)
	mux.HandleFunc("DELETE /api/cart/coupon", s.carts.removeCoupon)

	mux.HandleFunc("POST /api/orders", s.orders.checkout)
	mux.HandleFunc("GET /api/orders", s.orders.list)
	mux.HandleFunc("GET /api/orders/{id}", s.orders.get)
	mux.HandleFunc("POST /api/orders/{id}/pay", s.orders.pay)
	mux.HandleFunc("POST /api/orders/{id}/status", s.orders.setStatus)
	mux.HandleFunc("POST /api/orders/{id}/deliver", s.orders.deliver)
	mux.HandleFunc("POST /api/orders/{id}/cancel", s.orders.cancel)

	return mux
}

// requireUser extracts the caller identity set by the gateway. Requests
// without it are rejected before touching any service.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		var body errorBody
		body.Error.Code = "UNAUTHENTICATED"
		body.Error.Message = "missing " + userHeader + " header"
		s.writeJSON(w, http.StatusUnauthorized, body)
		return "", false
	}
	return userID, true
}
