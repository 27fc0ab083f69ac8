package ports

import (
	"context"
	"time"

	"github.com/inkwell/blog/internal/core/domain"
	"github.com/inkwell/blog/internal/core/query"
)

// PostUpdate is the set of mutable post fields written by UpdateOwned.
// Nil pointers leave the stored value untouched.
type PostUpdate struct {
	Title         string
	Content       string
	Excerpt       string
	CategoryID    string
	FeaturedImage *string
	IsPublished   *bool
	UpdatedAt     time.Time
}

// PostRepository defines persistence operations for posts and their
// embedded comments. Every mutating call is one atomic write.
type PostRepository interface {
	// Create inserts post and assigns its identifier. A slug already in use
	// yields domain.ErrDuplicateKey.
	Create(ctx context.Context, post *domain.Post) error
	FindByID(ctx context.Context, id string) (*domain.Post, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Post, error)
	SlugExists(ctx context.Context, slug string) (bool, error)

	// UpdateOwned applies upd only when the post exists and authorID owns
	// it. It returns domain.ErrPostNotFound for a missing post and
	// domain.ErrForbidden for someone else's.
	UpdateOwned(ctx context.Context, id, authorID string, upd PostUpdate) (*domain.Post, error)
	// DeleteOwned removes the post under the same rules as UpdateOwned and
	// returns the removed document.
	DeleteOwned(ctx context.Context, id, authorID string) (*domain.Post, error)

	AppendComment(ctx context.Context, postID string, comment domain.Comment) error
	IncrementViews(ctx context.Context, id string) error

	// List runs the listing engine and returns one page of summaries plus
	// the number of posts matching the filter regardless of pagination.
	List(ctx context.Context, p query.Params) ([]domain.PostSummary, int64, error)
}
