package checkout

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"bookrider/app/echoServer/jwtx"
	"bookrider/app/echoServer/respond"
	checkoutsvc "bookrider/service/checkout"
)

type Controller struct {
	Svc checkoutsvc.Service
	Log *slog.Logger
}

// POST /v1/checkout
// @Summary Turn the cart into one paid order per library
// @Success 201 {object} map[string]any
// @Failure 400,409,500 {object} map[string]any
func (h *Controller) Checkout(c echo.Context) error {
	orders, err := h.Svc.Checkout(c.Request().Context(), jwtx.UserID(c))
	if err != nil {
		return respond.Error(c, h.Log, "checkout", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": orders})
}
