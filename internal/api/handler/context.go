package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/inkwell/blog/internal/api/middleware"
	"github.com/inkwell/blog/internal/core/domain"
)

// caller returns the authenticated principal. Routes behind Auth always
// have one; a missing principal means the route was mounted without it.
func caller(c echo.Context) (*domain.Principal, error) {
	p := middleware.PrincipalFrom(c)
	if p == nil || p.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return p, nil
}

// bind decodes the request into req and runs struct validation. Decoding
// failures are reported as a validation error on the body.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.NewValidationError("body", "invalid payload")
	}
	return c.Validate(req)
}
