// Package respond maps domain error codes to HTTP responses so controllers
// stay thin. Unknown errors log and return 500 without leaking internals.
package respond

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"bookrider/service/svcerr"
)

var statusByCode = map[svcerr.Code]int{
	"INVALID_QUANTITY":    http.StatusBadRequest,
	"INVALID_AMOUNT":      http.StatusBadRequest,
	"MISSING_ADDRESS":     http.StatusBadRequest,
	"QUOTE_EXPIRED":       http.StatusBadRequest,
	"EMPTY_CART":          http.StatusBadRequest,
	"NO_ROUTE_FOUND":      http.StatusBadRequest,
	"ADDRESS_NOT_FOUND":   http.StatusBadRequest,
	"GEOCODING_FAILED":    http.StatusBadRequest,
	"BAD_INPUT":           http.StatusBadRequest,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	"UNAUTHORIZED_DRIVER": http.StatusForbidden,

	"BOOK_NOT_FOUND":          http.StatusNotFound,
	"LIBRARY_NOT_FOUND":       http.StatusNotFound,
	"QUOTE_NOT_FOUND":         http.StatusNotFound,
	"CART_SUB_ITEM_NOT_FOUND": http.StatusNotFound,
	"ORDER_NOT_FOUND":         http.StatusNotFound,
	"RENTAL_NOT_FOUND":        http.StatusNotFound,
	"RETURN_NOT_FOUND":        http.StatusNotFound,

	"EMAIL_TAKEN":           http.StatusConflict,
	"USERNAME_TAKEN":        http.StatusConflict,
	"INSUFFICIENT_BALANCE":  http.StatusConflict,
	"ALREADY_RETURNED":      http.StatusConflict,
	"QUANTITY_EXCEEDED":     http.StatusConflict,
	"INVALID_ORDER_STATUS":  http.StatusConflict,
	"ORDER_NOT_DELIVERED":   http.StatusConflict,
	"ALREADY_PAID_OUT":      http.StatusConflict,
	"INVALID_RETURN_STATUS": http.StatusConflict,
	"RETURN_ORDER":          http.StatusConflict,

	"EXTERNAL_ROUTING": http.StatusServiceUnavailable,
}

func Error(c echo.Context, log *slog.Logger, op string, err error) error {
	code := svcerr.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		rid := c.Response().Header().Get(echo.HeaderXRequestID)
		if log != nil {
			log.Error(op+" failed", "err", err, "req_id", rid, "path", c.Path())
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(status, echo.Map{
		"code":    string(code),
		"message": strings.ToLower(strings.ReplaceAll(string(code), "_", " ")),
	})
}
