package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/inkwell/blog/internal/core/domain"
	"github.com/inkwell/blog/internal/core/ports"
)

const principalKey = "principal"

var errBadAuthHeader = errors.New("invalid authorization header")

// Auth requires a valid bearer token and stores the caller's Principal
// on the context.
func Auth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c)
			if err != nil {
				return errors.Join(domain.ErrUnauthenticated, err)
			}
			if token == "" {
				return domain.ErrUnauthenticated
			}
			p, err := verifier.Verify(token)
			if err != nil {
				return err
			}
			SetPrincipal(c, p)
			return next(c)
		}
	}
}

// OptionalAuth attaches a Principal when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token, err := bearerToken(c); err == nil && token != "" {
				if p, err := verifier.Verify(token); err == nil {
					SetPrincipal(c, p)
				}
			}
			return next(c)
		}
	}
}

// PrincipalFrom returns the authenticated caller, or nil.
func PrincipalFrom(c echo.Context) *domain.Principal {
	p, _ := c.Get(principalKey).(*domain.Principal)
	return p
}

func SetPrincipal(c echo.Context, p *domain.Principal) {
	c.Set(principalKey, p)
}

// bearerToken returns "" when no Authorization header is sent.
func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", nil
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", errBadAuthHeader
	}
	return strings.TrimSpace(token), nil
}
