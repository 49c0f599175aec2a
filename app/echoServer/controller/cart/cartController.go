package cart

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"bookrider/app/echoServer/jwtx"
	"bookrider/app/echoServer/params"
	"bookrider/app/echoServer/respond"
	cartsvc "bookrider/service/cart"
)

type Controller struct {
	Svc cartsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/cart/options
func (h *Controller) AddOption(c echo.Context) error {
	var req AddOptionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	cart, err := h.Svc.AddOption(c.Request().Context(), jwtx.UserID(c), req.QuoteOptionID)
	if err != nil {
		return respond.Error(c, h.Log, "cart add option", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": cart})
}

// GET /v1/cart
func (h *Controller) Get(c echo.Context) error {
	cart, err := h.Svc.Get(c.Request().Context(), jwtx.UserID(c))
	if err != nil {
		return respond.Error(c, h.Log, "cart get", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": cart})
}

// DELETE /v1/cart/sub-items/:id
func (h *Controller) RemoveSubItem(c echo.Context) error {
	id := params.ID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	cart, err := h.Svc.RemoveSubItem(c.Request().Context(), jwtx.UserID(c), id)
	if err != nil {
		return respond.Error(c, h.Log, "cart remove sub-item", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": cart})
}

// PUT /v1/cart/address
func (h *Controller) SetAddress(c echo.Context) error {
	var req SetAddressReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	addr, err := h.Svc.SetDeliveryAddress(c.Request().Context(), jwtx.UserID(c), req.Street, req.City, req.PostalCode)
	if err != nil {
		return respond.Error(c, h.Log, "cart set address", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": addr})
}
