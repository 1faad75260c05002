package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/apperr"
)

// statusFor maps a service error kind to an HTTP status.  401 is left to
// the JWT middleware; a caller who is authenticated but not allowed gets 403.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindBadRequest:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": ...} with optional "fields".
// Internal failures are logged and answered with a generic message.
func respondError(c echo.Context, err error) error {
	status := statusFor(apperr.KindOf(err))
	if status == http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	body := echo.Map{"error": err.Error()}
	if e, ok := err.(*apperr.Error); ok && len(e.Fields) > 0 {
		body["fields"] = e.Fields
	}
	return c.JSON(status, body)
}
