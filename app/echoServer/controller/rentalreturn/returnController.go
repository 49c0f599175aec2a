package rentalreturn

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"bookrider/app/echoServer/jwtx"
	"bookrider/app/echoServer/params"
	"bookrider/app/echoServer/respond"
	returnsvc "bookrider/service/rentalreturn"
)

type Controller struct {
	Svc returnsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

type CreateReq struct {
	Items []returnsvc.ReturnRequest `json:"items" validate:"required,min=1,dive"`
}

func (h *Controller) bind(c echo.Context) (*CreateReq, error) {
	var req CreateReq
	if err := c.Bind(&req); err != nil {
		return nil, c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return nil, c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	return &req, nil
}

// POST /v1/rental-returns
func (h *Controller) CreateCourier(c echo.Context) error {
	req, done := h.bind(c)
	if req == nil {
		return done
	}
	out, err := h.Svc.CreateCourierReturn(c.Request().Context(), jwtx.UserID(c), req.Items)
	if err != nil {
		return respond.Error(c, h.Log, "courier return", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": out})
}

// POST /v1/rental-returns/in-person
func (h *Controller) CreateInPerson(c echo.Context) error {
	req, done := h.bind(c)
	if req == nil {
		return done
	}
	out, err := h.Svc.CreateInPersonReturn(c.Request().Context(), jwtx.UserID(c), req.Items)
	if err != nil {
		return respond.Error(c, h.Log, "in-person return", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": out})
}

// POST /v1/rental-returns/price
func (h *Controller) PriceCourier(c echo.Context) error {
	req, done := h.bind(c)
	if req == nil {
		return done
	}
	p, err := h.Svc.PreviewCourierPrice(c.Request().Context(), jwtx.UserID(c), req.Items)
	if err != nil {
		return respond.Error(c, h.Log, "courier return price", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": p})
}

// POST /v1/rental-returns/in-person/price
func (h *Controller) PriceInPerson(c echo.Context) error {
	req, done := h.bind(c)
	if req == nil {
		return done
	}
	p, err := h.Svc.PreviewInPersonPrice(c.Request().Context(), jwtx.UserID(c), req.Items)
	if err != nil {
		return respond.Error(c, h.Log, "in-person return price", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": p})
}

// POST /v1/rental-returns/:id/complete  (driver)
func (h *Controller) Complete(c echo.Context) error {
	id := params.ID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	rr, err := h.Svc.MarkCompleted(c.Request().Context(), id)
	if err != nil {
		return respond.Error(c, h.Log, "return complete", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rr})
}

// GET /v1/rental-returns/my
func (h *Controller) My(c echo.Context) error {
	limit, offset := params.Page(c)
	rows, err := h.Svc.MyReturns(c.Request().Context(), jwtx.UserID(c), limit, offset)
	if err != nil {
		return respond.Error(c, h.Log, "returns my", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
