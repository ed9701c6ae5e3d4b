package handlers

import (
	"errors"
	"net/http"

	"saasbase/internal/services"

	"github.com/labstack/echo/v4"
)

// serviceError maps the domain error taxonomy onto HTTP status codes.
func serviceError(err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrPermissionDenied), errors.Is(err, services.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrDuplicateInvitation),
		errors.Is(err, services.ErrLastOwner),
		errors.Is(err, services.ErrSlugExhausted):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrStorageUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Storage temporarily unavailable")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}
