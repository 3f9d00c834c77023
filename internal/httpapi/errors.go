package httpapi

import (
	"errors"
	"net/http"

	cartapp "github.com/storefront/commerce/internal/cart/app"
	catalogapp "github.com/storefront/commerce/internal/catalog/app"
	couponapp "github.com/storefront/commerce/internal/coupon/app"
	coupon "github.com/storefront/commerce/internal/coupon/domain"
	inventoryapp "github.com/storefront/commerce/internal/inventory/app"
	orderapp "github.com/storefront/commerce/internal/order/app"
)

var errMalformedBody = errors.New("malformed request body")

// httpStatusFromError maps service errors onto an HTTP status, a stable
// machine-readable code, and a safe message. Unknown errors collapse to
// 500 with a generic body so internals never leak to clients.
func httpStatusFromError(err error) (int, string, string) {
	var rejection *coupon.RejectionError
	if errors.As(err, &rejection) {
		return http.StatusUnprocessableEntity, "COUPON_REJECTED", rejection.Error()
	}

	var short *inventoryapp.InsufficientStockError
	if errors.As(err, &short) {
		return http.StatusConflict, "INSUFFICIENT_STOCK", short.Error()
	}

	switch {
	case errors.Is(err, catalogapp.ErrNotFound),
		errors.Is(err, couponapp.ErrNotFound),
		errors.Is(err, cartapp.ErrProductNotFound),
		errors.Is(err, inventoryapp.ErrProductNotFound),
		errors.Is(err, orderapp.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", err.Error()

	case errors.Is(err, errMalformedBody),
		errors.Is(err, catalogapp.ErrInvalidInput),
		errors.Is(err, couponapp.ErrInvalidInput),
		errors.Is(err, cartapp.ErrInvalidQuantity),
		errors.Is(err, cartapp.ErrItemNotInCart),
		errors.Is(err, inventoryapp.ErrInvalidQuantity),
		errors.Is(err, orderapp.ErrEmptyCart):
		return http.StatusBadRequest, "INVALID_ARGUMENT", err.Error()

	case errors.Is(err, orderapp.ErrNotOwner):
		return http.StatusForbidden, "FORBIDDEN", err.Error()

	case errors.Is(err, orderapp.ErrInvalidTransition),
		errors.Is(err, orderapp.ErrAlreadyPaid),
		errors.Is(err, orderapp.ErrStaleStatus),
		errors.Is(err, couponapp.ErrLimitReached):
		return http.StatusConflict, "CONFLICT", err.Error()
	}

	return http.StatusInternalServerError, "INTERNAL", "internal error"
}
