package quote

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"bookrider/app/echoServer/jwtx"
	"bookrider/app/echoServer/respond"
	quotesvc "bookrider/service/quote"
)

type Controller struct {
	Svc quotesvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

type GenerateReq struct {
	BookID   int64 `json:"book_id" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"required,gt=0"`
}

// POST /v1/quotes
// @Summary Price a book delivery against the nearest libraries
// @Success 201 {object} map[string]any
// @Failure 400,404,500 {object} map[string]any
func (h *Controller) Generate(c echo.Context) error {
	var req GenerateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	q, err := h.Svc.Generate(c.Request().Context(), jwtx.UserID(c), req.BookID, req.Quantity)
	if err != nil {
		return respond.Error(c, h.Log, "quote generate", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": q})
}
