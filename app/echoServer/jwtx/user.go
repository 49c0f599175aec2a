package jwtx

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bookrider/model"
)

// UserID reads the identity the auth middleware stored on the context.
func UserID(c echo.Context) int64 {
	id, _ := c.Get("user_id").(int64)
	return id
}

func Role(c echo.Context) model.Role {
	r, _ := c.Get("user_role").(string)
	return model.Role(r)
}

// RequireDriver gates courier-only endpoints.
func RequireDriver(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if Role(c) != model.RoleDriver {
			return c.JSON(http.StatusForbidden, echo.Map{"message": "driver role required"})
		}
		return next(c)
	}
}
