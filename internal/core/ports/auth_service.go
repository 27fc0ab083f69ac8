package ports

import (
	"context"

	"github.com/inkwell/blog/internal/core/domain"
)

// TokenVerifier validates bearer tokens without touching storage.
type TokenVerifier interface {
	Verify(token string) (*domain.Principal, error)
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	// Authorize checks signature and expiry of token and returns the caller.
	Authorize(ctx context.Context, token string) (*domain.Principal, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
}
