package rental

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"bookrider/app/echoServer/jwtx"
	"bookrider/app/echoServer/params"
	"bookrider/app/echoServer/respond"
	rentalsvc "bookrider/service/rental"
)

type Controller struct {
	Svc rentalsvc.Service
	Log *slog.Logger
}

// GET /v1/rentals/my
func (h *Controller) My(c echo.Context) error {
	limit, offset := params.Page(c)
	rows, err := h.Svc.MyRentals(c.Request().Context(), jwtx.UserID(c), limit, offset)
	if err != nil {
		return respond.Error(c, h.Log, "rentals my", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
