package wallet

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"bookrider/app/echoServer/jwtx"
	"bookrider/app/echoServer/params"
	"bookrider/app/echoServer/respond"
	walletsvc "bookrider/service/wallet"
)

type Controller struct {
	Svc walletsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

type DepositReq struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// POST /v1/wallet/deposits
// @Summary Credit the balance (mock payment confirmation)
// @Success 201 {object} map[string]any
// @Failure 400,500 {object} map[string]any
func (h *Controller) Deposit(c echo.Context) error {
	var req DepositReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  map[string]string{"amount": "required, gt 0"},
		})
	}

	t, err := h.Svc.Deposit(c.Request().Context(), jwtx.UserID(c), req.Amount)
	if err != nil {
		return respond.Error(c, h.Log, "deposit", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": t})
}

// GET /v1/wallet/ledger
func (h *Controller) Ledger(c echo.Context) error {
	limit, offset := params.Page(c)
	rows, err := h.Svc.Ledger(c.Request().Context(), jwtx.UserID(c), limit, offset)
	if err != nil {
		return respond.Error(c, h.Log, "ledger", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
