package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// State is the sign-in state of a Session.
type State int

const (
	StateUnknown State = iota
	StateLoading
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

type SessionOption func(*Session)

// WithRedirect sets the hook run after the server rejects the session's
// token, typically to show the sign-in screen.
func WithRedirect(fn func()) SessionOption {
	return func(s *Session) { s.redirect = fn }
}

func WithLogger(log zerolog.Logger) SessionOption {
	return func(s *Session) { s.log = log }
}

// Session tracks who is signed in. It owns the client's token: requests
// made through Client() carry it, and a 401 on any of them signs the
// session out.
type Session struct {
	client   *Client
	store    TokenStore
	redirect func()
	log      zerolog.Logger

	mu    sync.RWMutex
	state State
	user  *User
}

func NewSession(c *Client, store TokenStore, opts ...SessionOption) *Session {
	s := &Session{
		client: c,
		store:  store,
		log:    zerolog.Nop(),
		state:  StateUnknown,
	}
	for _, opt := range opts {
		opt(s)
	}
	c.OnUnauthorized(s.expire)
	return s
}

func (s *Session) Client() *Client { return s.client }

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the signed-in user, or nil.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Start restores stored credentials without contacting the server.
// An unreadable store is discarded and the session starts anonymous.
func (s *Session) Start() State {
	s.setState(StateLoading, nil)

	creds, err := s.store.Load()
	if err != nil {
		if !errors.Is(err, ErrNoCredentials) {
			s.log.Warn().Err(err).Msg("discarding unreadable credentials")
			_ = s.store.Clear()
		}
		s.client.SetToken("")
		s.setState(StateAnonymous, nil)
		return StateAnonymous
	}

	s.client.SetToken(creds.Token)
	s.setState(StateAuthenticated, &creds.User)
	return StateAuthenticated
}

// SignIn logs in and persists the credentials. On failure the session is
// anonymous and the error is returned for the caller to show.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	s.client.SetToken("")
	token, user, err := s.client.Login(ctx, email, password)
	if err != nil {
		s.setState(StateAnonymous, nil)
		_ = s.store.Clear()
		return err
	}

	if err := s.store.Save(Credentials{Token: token, User: *user}); err != nil {
		s.log.Warn().Err(err).Msg("credentials not persisted")
	}
	s.client.SetToken(token)
	s.setState(StateAuthenticated, user)
	s.log.Debug().Str("user_id", user.ID).Msg("signed in")
	return nil
}

// SignUp registers an account and signs it in. A failed registration
// leaves the session anonymous with no stored credentials, like SignIn.
func (s *Session) SignUp(ctx context.Context, name, email, password string) error {
	s.client.SetToken("")
	if _, err := s.client.Register(ctx, name, email, password); err != nil {
		s.setState(StateAnonymous, nil)
		_ = s.store.Clear()
		return err
	}
	if err := s.SignIn(ctx, email, password); err != nil {
		return fmt.Errorf("sign in after registration: %w", err)
	}
	return nil
}

// SignOut forgets the credentials from any state.
func (s *Session) SignOut() error {
	s.client.SetToken("")
	s.setState(StateAnonymous, nil)
	return s.store.Clear()
}

// expire handles a 401 for token. A response to a token that has since
// been replaced is ignored.
func (s *Session) expire(token string) {
	if s.client.Token() != token {
		return
	}
	s.client.SetToken("")
	s.setState(StateAnonymous, nil)
	if err := s.store.Clear(); err != nil {
		s.log.Warn().Err(err).Msg("clear credentials")
	}
	s.log.Info().Msg("session expired")
	if s.redirect != nil {
		s.redirect()
	}
}

func (s *Session) setState(state State, user *User) {
	s.mu.Lock()
	s.state = state
	s.user = user
	s.mu.Unlock()
}
