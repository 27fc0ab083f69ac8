package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/inkwell/blog/internal/api/middleware"
	"github.com/inkwell/blog/internal/core/domain"
	"github.com/inkwell/blog/internal/core/ports"
	"github.com/inkwell/blog/internal/core/query"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func asUser(c echo.Context, id string) {
	middleware.SetPrincipal(c, &domain.Principal{UserID: id, Name: "user " + id, Role: domain.RoleAuthor})
}

type stubAuthService struct {
	registerFn func(ctx context.Context, name, email, password string) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
	meFn       func(ctx context.Context, userID string) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	return s.registerFn(ctx, name, email, password)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Authorize(context.Context, string) (*domain.Principal, error) {
	return nil, domain.ErrUnauthenticated
}

func (s *stubAuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.meFn(ctx, userID)
}

// stubPostService records the inputs it receives.
type stubPostService struct {
	listParams query.Params
	createIn   ports.CreatePostInput
	imageBytes []byte
	updateIn   ports.UpdatePostInput
	getIn      ports.GetPostInput
	err        error
}

func (s *stubPostService) detail(title string) *ports.PostDetail {
	return &ports.PostDetail{
		Post:   domain.Post{ID: "p1", Title: title, Slug: domain.Slugify(title), FeaturedImage: "abc.png"},
		Author: ports.UserRef{ID: "u1", Name: "Alice"},
	}
}

func (s *stubPostService) Create(_ context.Context, in ports.CreatePostInput) (*ports.PostDetail, error) {
	s.createIn = in
	if in.Image != nil {
		s.imageBytes, _ = io.ReadAll(in.Image.Body)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.detail(in.Title), nil
}

func (s *stubPostService) Get(_ context.Context, in ports.GetPostInput) (*ports.PostDetail, error) {
	s.getIn = in
	if s.err != nil {
		return nil, s.err
	}
	return s.detail("Found"), nil
}

func (s *stubPostService) Update(_ context.Context, in ports.UpdatePostInput) (*ports.PostDetail, error) {
	s.updateIn = in
	if s.err != nil {
		return nil, s.err
	}
	return s.detail(in.Title), nil
}

func (s *stubPostService) Delete(context.Context, string, string) error { return s.err }

func (s *stubPostService) AddComment(_ context.Context, _, callerID, content string) (*ports.CommentView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ports.CommentView{ID: "c1", Author: ports.UserRef{ID: callerID, Name: "Bob"}, Content: content}, nil
}

func (s *stubPostService) List(_ context.Context, p query.Params) (*query.Page[domain.PostSummary], error) {
	s.listParams = p
	if s.err != nil {
		return nil, s.err
	}
	page := query.NewPage([]domain.PostSummary{{ID: "p1", Title: "T", AuthorName: "Alice"}}, 1, p.Normalize())
	return &page, nil
}

func (s *stubPostService) Search(context.Context, string, int) ([]domain.PostSummary, error) {
	return nil, s.err
}

var _ ports.PostService = (*stubPostService)(nil)
var _ ports.AuthService = (*stubAuthService)(nil)
