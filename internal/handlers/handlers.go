package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/makeathera-byte/3layered/internal/checkout"
	"github.com/makeathera-byte/3layered/internal/service"
)

// ErrorBody is the error envelope every endpoint answers with.
type ErrorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func errorResponse(c echo.Context, code int, err error) error {
	return c.JSON(code, ErrorBody{Error: err.Error()})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// serviceError maps the service sentinels onto HTTP responses so every
// handler reports the same way.
func serviceError(c echo.Context, err error) error {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, ErrorBody{
			Error:   "validation failed",
			Details: ve.Fields,
		})
	}

	switch {
	case errors.Is(err, service.ErrValidation):
		return errorResponse(c, http.StatusBadRequest, err)
	case errors.Is(err, service.ErrNotFound):
		return errorResponse(c, http.StatusNotFound, err)
	case errors.Is(err, service.ErrConflict):
		return errorResponse(c, http.StatusConflict, err)
	case errors.Is(err, checkout.ErrVerification):
		return errorResponse(c, http.StatusBadRequest, err)
	case errors.Is(err, service.ErrGateway):
		return errorResponse(c, http.StatusBadGateway, err)
	default:
		return errorResponse(c, http.StatusInternalServerError, err)
	}
}

func pageMeta(page, limit, offset int, total int64) map[string]any {
	return map[string]any{
		"page":        page,
		"size":        limit,
		"total":       total,
		"total_pages": (total + int64(limit) - 1) / int64(limit),
		"has_prev":    page > 1,
		"has_next":    int64(offset+limit) < total,
	}
}
