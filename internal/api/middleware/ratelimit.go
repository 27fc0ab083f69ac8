package middleware

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/inkwell/blog/internal/core/domain"
)

// RateLimiter counts requests per resource and client.
type RateLimiter interface {
	Allow(ctx context.Context, resource, id string, limit int, window time.Duration) (bool, error)
}

// RateLimit allows limit requests per window for each client IP on
// resource. When the counter store fails the request is let through.
func RateLimit(limiter RateLimiter, resource string, limit int, window time.Duration, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limiter == nil || limit <= 0 {
			return next
		}
		return func(c echo.Context) error {
			ok, err := limiter.Allow(c.Request().Context(), resource, c.RealIP(), limit, window)
			if err != nil {
				log.Warn().Err(err).Str("resource", resource).Msg("rate limit unavailable, allowing request")
				return next(c)
			}
			if !ok {
				return domain.ErrRateLimited
			}
			return next(c)
		}
	}
}
