package order

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"bookrider/app/echoServer/jwtx"
	"bookrider/app/echoServer/params"
	"bookrider/app/echoServer/respond"
	"bookrider/model"
	ordersvc "bookrider/service/order"
)

// Payouts is the slice of the wallet service drivers settle through.
type Payouts interface {
	PayoutDriver(ctx context.Context, driverID, orderID int64) (*model.Transaction, error)
}

type Controller struct {
	Svc     ordersvc.Service
	Payouts Payouts
	Log     *slog.Logger
}

// GET /v1/orders/my
func (h *Controller) My(c echo.Context) error {
	limit, offset := params.Page(c)
	rows, err := h.Svc.MyOrders(c.Request().Context(), jwtx.UserID(c), limit, offset)
	if err != nil {
		return respond.Error(c, h.Log, "orders my", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/orders/available  (driver)
func (h *Controller) Available(c echo.Context) error {
	limit, offset := params.Page(c)
	rows, err := h.Svc.Available(c.Request().Context(), limit, offset)
	if err != nil {
		return respond.Error(c, h.Log, "orders available", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/orders/:id/accept  (driver)
func (h *Controller) Accept(c echo.Context) error {
	id := params.ID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Accept(c.Request().Context(), jwtx.UserID(c), id); err != nil {
		return respond.Error(c, h.Log, "order accept", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "accepted"})
}

// POST /v1/orders/:id/pickup and /v1/orders/:id/handover  (driver)
//
// Same transition for both kinds: the driver confirms the goods changed
// hands and the order goes in transit.
func (h *Controller) Pickup(c echo.Context) error {
	id := params.ID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.MarkPickedUp(c.Request().Context(), jwtx.UserID(c), id); err != nil {
		return respond.Error(c, h.Log, "order pickup", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "in transit"})
}

// POST /v1/orders/:id/deliver  (driver)
func (h *Controller) Deliver(c echo.Context) error {
	id := params.ID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.MarkDelivered(c.Request().Context(), jwtx.UserID(c), id); err != nil {
		return respond.Error(c, h.Log, "order deliver", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "delivered"})
}

// POST /v1/orders/:id/payout  (driver)
func (h *Controller) Payout(c echo.Context) error {
	id := params.ID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	t, err := h.Payouts.PayoutDriver(c.Request().Context(), jwtx.UserID(c), id)
	if err != nil {
		return respond.Error(c, h.Log, "order payout", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": t})
}
