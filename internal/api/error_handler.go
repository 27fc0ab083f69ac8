package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/inkwell/blog/internal/core/domain"
)

// messageResponse is the envelope for every non-validation error.
type messageResponse struct {
	Message string `json:"message"`
}

// validationResponse is the envelope for 400 responses caused by rejected
// input fields.
type validationResponse struct {
	Success bool                `json:"success"`
	Errors  []domain.FieldError `json:"errors"`
}

// sentinels maps domain errors to their status. The first match wins and
// the response carries the sentinel's own message, never the wrapped cause.
var sentinels = []struct {
	err  error
	code int
}{
	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrUnauthenticated, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrPostNotFound, http.StatusNotFound},
	{domain.ErrCategoryNotFound, http.StatusNotFound},
	{domain.ErrUserNotFound, http.StatusNotFound},
	{domain.ErrImageNotFound, http.StatusNotFound},
	{domain.ErrImageTooLarge, http.StatusRequestEntityTooLarge},
	{domain.ErrRateLimited, http.StatusTooManyRequests},
}

// NewHTTPErrorHandler renders every error returned by a handler or
// middleware. Unexpected errors are logged and reported as a generic 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			_ = c.JSON(http.StatusBadRequest, validationResponse{Success: false, Errors: ve.Fields})
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, messageResponse{Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors: bind failures, unknown routes, body limit.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Int("status", he.Code).Msg("request rejected")
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.code, s.err.Error()
		}
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
