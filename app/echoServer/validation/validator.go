package validation

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validator plugs go-playground struct validation into echo's c.Validate.
// Failures surface as a 400 naming the offending fields.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	err := v.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return echo.NewHTTPError(http.StatusBadRequest,
			"invalid fields: "+strings.Join(fields, ", "))
	}
	return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
}
