package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog"

	"github.com/inkwell/blog/internal/core/domain"
	"github.com/inkwell/blog/internal/core/ports"
)

const maxNameLen = 50

var defaultCategories = []struct{ name, description string }{
	{"Technology", "Software, hardware and the web"},
	{"Travel", "Places worth the trip"},
	{"Food", "Recipes and restaurants"},
	{"Science", "Discoveries explained"},
	{"Lifestyle", "Everyday notes"},
}

type seedOptions struct {
	AdminEmail string
	Password   string
	Users      int
	Posts      int
	// MaxComments bounds the comments added to each published post.
	MaxComments int
}

type seedSummary struct {
	Users      int
	Categories int
	Posts      int
	Comments   int
}

// seeder fills the store through the services so every record passes the
// same validation and slug rules as API traffic.
type seeder struct {
	auth       ports.AuthService
	categories ports.CategoryService
	posts      ports.PostService
	faker      *gofakeit.Faker
	log        zerolog.Logger
}

func (s *seeder) run(ctx context.Context, opts seedOptions) (seedSummary, error) {
	var sum seedSummary

	users, err := s.seedUsers(ctx, opts)
	if err != nil {
		return sum, err
	}
	sum.Users = len(users)

	cats, err := s.seedCategories(ctx)
	if err != nil {
		return sum, err
	}
	sum.Categories = len(cats)

	for i := 0; i < opts.Posts; i++ {
		author := users[s.faker.IntRange(0, len(users)-1)]
		in := ports.CreatePostInput{
			AuthorID:    author.ID,
			Title:       s.title(),
			Content:     s.faker.Paragraph(3, 4, 12, "\n\n"),
			Excerpt:     truncate(s.faker.Sentence(16), domain.MaxExcerptLen),
			IsPublished: s.faker.IntRange(1, 10) <= 8,
		}
		if len(cats) > 0 && s.faker.Bool() {
			in.CategoryID = cats[s.faker.IntRange(0, len(cats)-1)].ID
		}
		if s.faker.Bool() {
			in.ImageURL = s.faker.ImageURL(800, 450)
		}

		detail, err := s.posts.Create(ctx, in)
		if err != nil {
			return sum, fmt.Errorf("create post %d: %w", i+1, err)
		}
		sum.Posts++

		if !detail.Post.IsPublished || opts.MaxComments <= 0 {
			continue
		}
		for n := s.faker.IntRange(0, opts.MaxComments); n > 0; n-- {
			commenter := users[s.faker.IntRange(0, len(users)-1)]
			if _, err := s.posts.AddComment(ctx, detail.Post.ID, commenter.ID, s.faker.Sentence(s.faker.IntRange(4, 14))); err != nil {
				return sum, fmt.Errorf("comment on %s: %w", detail.Post.Slug, err)
			}
			sum.Comments++
		}
	}
	return sum, nil
}

func (s *seeder) seedUsers(ctx context.Context, opts seedOptions) ([]*domain.User, error) {
	users := make([]*domain.User, 0, opts.Users+1)

	admin, err := s.register(ctx, "Admin", opts.AdminEmail, opts.Password)
	if err != nil {
		return nil, err
	}
	if admin != nil {
		users = append(users, admin)
	}

	for i := 0; i < opts.Users; i++ {
		u, err := s.register(ctx, truncate(s.faker.Name(), maxNameLen), strings.ToLower(s.faker.Email()), opts.Password)
		if err != nil {
			return nil, err
		}
		if u != nil {
			users = append(users, u)
		}
	}
	if len(users) == 0 {
		return nil, errors.New("no users created; is the database already seeded?")
	}
	return users, nil
}

// register returns nil without error when the email is already taken.
func (s *seeder) register(ctx context.Context, name, email, password string) (*domain.User, error) {
	u, err := s.auth.Register(ctx, name, email, password)
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		s.log.Warn().Str("email", email).Err(err).Msg("skipping user")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", email, err)
	}
	return u, nil
}

func (s *seeder) seedCategories(ctx context.Context) ([]domain.Category, error) {
	for _, c := range defaultCategories {
		_, err := s.categories.Create(ctx, c.name, c.description)
		var verr *domain.ValidationError
		if err != nil && !errors.As(err, &verr) {
			return nil, fmt.Errorf("create category %s: %w", c.name, err)
		}
	}
	return s.categories.List(ctx)
}

func (s *seeder) title() string {
	t := strings.TrimSuffix(s.faker.Sentence(s.faker.IntRange(3, 7)), ".")
	return truncate(t, domain.MaxTitleLen)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max]))
}
