package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell/blog/internal/core/domain"
	"github.com/inkwell/blog/internal/core/ports"
)

const (
	minPasswordLen = 6
	maxNameLen     = 50
	// bcrypt ignores input beyond 72 bytes.
	maxPasswordBytes = 72
)

// AuthService implements registration, login and token authorization.
type AuthService struct {
	repo   ports.UserRepository
	tokens *TokenManager
	admins map[string]struct{}
	log    zerolog.Logger
}

// NewAuthService wires the user store and token manager. Accounts
// registered with one of adminEmails receive the admin role.
func NewAuthService(repo ports.UserRepository, tokens *TokenManager, adminEmails []string, log zerolog.Logger) *AuthService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &AuthService{repo: repo, tokens: tokens, admins: admins, log: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	ve := &domain.ValidationError{}
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		ve.Add("name", "name is required")
	case n > maxNameLen:
		ve.Add("name", "name must be at most 50 characters")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		ve.Add("email", "a valid email is required")
	}
	switch {
	case len(password) < minPasswordLen:
		ve.Add("password", "password must be at least 6 characters")
	case len(password) > maxPasswordBytes:
		ve.Add("password", "password must be at most 72 bytes")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := domain.RoleAuthor
	if _, ok := s.admins[email]; ok {
		role = domain.RoleAdmin
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, domain.NewValidationError("email", "email is already registered")
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Str("role", created.Role).Msg("user registered")
	return created, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) Authorize(_ context.Context, token string) (*domain.Principal, error) {
	return s.tokens.Verify(token)
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// The token outlived the account it was issued for.
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("me: %w", err)
	}
	return user, nil
}
