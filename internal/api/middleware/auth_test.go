package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/inkwell/blog/internal/core/domain"
	"github.com/inkwell/blog/internal/core/service"
)

func newTokens() *service.TokenManager {
	return service.NewTokenManager("secret", time.Hour)
}

func issue(t *testing.T, tm *service.TokenManager, id, role string) string {
	t.Helper()
	tok, err := tm.Issue(&domain.User{ID: id, Name: "Alice", Email: "alice@example.com", Role: role})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func newContext(authHeader string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tm := newTokens()
	c, rec := newContext("Bearer " + issue(t, tm, "u1", domain.RoleAuthor))

	called := false
	handler := Auth(tm)(func(c echo.Context) error {
		called = true
		p := PrincipalFrom(c)
		if p == nil || p.UserID != "u1" || p.Name != "Alice" || p.Role != domain.RoleAuthor {
			t.Fatalf("unexpected principal: %+v", p)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tm := newTokens()
	other := service.NewTokenManager("other-secret", time.Hour)

	cases := map[string]string{
		"missing header":   "",
		"wrong scheme":     "Token abc",
		"empty token":      "Bearer ",
		"garbage token":    "Bearer not-a-token",
		"foreign signature": "Bearer " + issue(t, other, "u1", domain.RoleAuthor),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newContext(header)
			handler := Auth(tm)(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})
			err := handler(c)
			if !errors.Is(err, domain.ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	tm := newTokens()

	cases := map[string]struct {
		header   string
		wantUser string
	}{
		"anonymous":     {header: "", wantUser: ""},
		"invalid token": {header: "Bearer nope", wantUser: ""},
		"valid token":   {header: "Bearer " + issue(t, tm, "u9", domain.RoleAuthor), wantUser: "u9"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newContext(tc.header)
			var got string
			handler := OptionalAuth(tm)(func(c echo.Context) error {
				if p := PrincipalFrom(c); p != nil {
					got = p.UserID
				}
				return nil
			})
			if err := handler(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if got != tc.wantUser {
				t.Fatalf("expected user %q, got %q", tc.wantUser, got)
			}
		})
	}
}
