package book

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"bookrider/app/echoServer/params"
	"bookrider/model"
)

// Catalog is the read-only slice of the catalog repository the API exposes.
type Catalog interface {
	BookByID(ctx context.Context, id int64) (*model.Book, error)
}

type Controller struct {
	Catalog Catalog
	Log     *slog.Logger
}

// GET /v1/books/:id
func (h *Controller) Detail(c echo.Context) error {
	id := params.ID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	b, err := h.Catalog.BookByID(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("book detail failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	if b == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": b})
}
