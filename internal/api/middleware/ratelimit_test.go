package middleware

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/inkwell/blog/internal/core/domain"
	"github.com/inkwell/blog/internal/infrastructure/db/redis"
)

func newLimiter(t *testing.T) (*miniredis.Miniredis, *redis.RateCounter) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, redis.NewRateCounter(client)
}

func callFrom(mw echo.MiddlewareFunc, ip string) error {
	return callVia(mw, nil, ip, "")
}

// callVia sends a request from peer, optionally carrying X-Forwarded-For,
// through an Echo instance configured with the given trusted proxies.
func callVia(mw echo.MiddlewareFunc, trusted []*net.IPNet, peer, forwardedFor string) error {
	e := echo.New()
	e.IPExtractor = IPExtractor(trusted)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = peer + ":1234"
	if forwardedFor != "" {
		req.Header.Set(echo.HeaderXForwardedFor, forwardedFor)
		req.Header.Set(echo.HeaderXRealIP, forwardedFor)
	}
	c := e.NewContext(req, httptest.NewRecorder())
	return mw(func(c echo.Context) error { return nil })(c)
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	_, limiter := newLimiter(t)
	mw := RateLimit(limiter, "auth", 2, time.Minute, zerolog.Nop())

	for i := 0; i < 2; i++ {
		if err := callFrom(mw, "10.0.0.1"); err != nil {
			t.Fatalf("request %d: unexpected error %v", i, err)
		}
	}
	if err := callFrom(mw, "10.0.0.1"); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if err := callFrom(mw, "10.0.0.2"); err != nil {
		t.Fatalf("other client should pass, got %v", err)
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	mr, limiter := newLimiter(t)
	mw := RateLimit(limiter, "auth", 1, time.Minute, zerolog.Nop())
	mr.Close()

	for i := 0; i < 3; i++ {
		if err := callFrom(mw, "10.0.0.1"); err != nil {
			t.Fatalf("expected fail-open, got %v", err)
		}
	}
}

func TestRateLimit_DisabledWithoutLimiter(t *testing.T) {
	mw := RateLimit(nil, "auth", 1, time.Minute, zerolog.Nop())
	for i := 0; i < 3; i++ {
		if err := callFrom(mw, "10.0.0.1"); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	}
}

func TestRateLimit_IgnoresSpoofedForwardingHeaders(t *testing.T) {
	_, limiter := newLimiter(t)
	mw := RateLimit(limiter, "auth", 2, time.Minute, zerolog.Nop())

	spoofed := []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"}
	var err error
	for _, ip := range spoofed {
		err = callVia(mw, nil, "10.0.0.1", ip)
	}
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected rotating X-Forwarded-For to stay limited, got %v", err)
	}
}

func TestRateLimit_TrustedProxyForwardsClientIP(t *testing.T) {
	_, limiter := newLimiter(t)
	mw := RateLimit(limiter, "auth", 1, time.Minute, zerolog.Nop())
	_, proxies, err := net.ParseCIDR("10.0.0.0/8")
	if err != nil {
		t.Fatal(err)
	}
	trusted := []*net.IPNet{proxies}

	if err := callVia(mw, trusted, "10.0.0.9", "203.0.113.5"); err != nil {
		t.Fatalf("first client: %v", err)
	}
	if err := callVia(mw, trusted, "10.0.0.9", "203.0.113.6"); err != nil {
		t.Fatalf("second client behind the same proxy should pass, got %v", err)
	}
	if err := callVia(mw, trusted, "10.0.0.9", "203.0.113.5"); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	// An untrusted peer cannot pick its own identity.
	if err := callVia(mw, trusted, "192.0.2.7", "203.0.113.7"); err != nil {
		t.Fatalf("untrusted peer first request: %v", err)
	}
	if err := callVia(mw, trusted, "192.0.2.7", "203.0.113.8"); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected untrusted peer to be limited by its own address, got %v", err)
	}
}
