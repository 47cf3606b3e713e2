package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"aquacoop_app_echo/internal/services"
	"aquacoop_app_echo/internal/store"
)

// CustomErrorHandler maps domain errors to JSON responses: validation
// failures carry a field map, state errors surface as a conflict, unknown ids
// as not found, and anything else is logged and hidden behind a generic 500.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		code = http.StatusInternalServerError
		body interface{}
	)

	switch {
	case isValidation(err):
		verrs, _ := services.AsValidation(err)
		code = http.StatusBadRequest
		body = map[string]interface{}{
			"error":  "validation_failed",
			"fields": verrs.Fields(),
		}
	case errors.Is(err, services.ErrPlanNotActive), errors.Is(err, services.ErrPlanNotCancelled):
		code = http.StatusConflict
		body = map[string]string{"error": err.Error()}
	case errors.Is(err, store.ErrNotFound):
		code = http.StatusNotFound
		body = map[string]string{"error": "record not found"}
	default:
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				body = map[string]string{"error": msg}
			} else {
				body = he.Message
			}
		} else {
			c.Logger().Error(err)
			body = map[string]string{"error": "internal error, the transaction was rolled back"}
		}
	}

	if c.Request().Method == http.MethodHead {
		if err := c.NoContent(code); err != nil {
			c.Logger().Error(err)
		}
		return
	}
	if err := c.JSON(code, body); err != nil {
		c.Logger().Error(err)
	}
}

func isValidation(err error) bool {
	_, ok := services.AsValidation(err)
	return ok
}
