package ports

import (
	"context"
	"io"
	"time"

	"github.com/inkwell/blog/internal/core/domain"
	"github.com/inkwell/blog/internal/core/query"
)

// ImageUpload is an image file received alongside a post write.
type ImageUpload struct {
	Filename    string
	ContentType string // as declared by the client
	Size        int64
	Body        io.Reader
}

// CreatePostInput carries everything needed to create a post.
type CreatePostInput struct {
	AuthorID    string
	Title       string
	Content     string
	Excerpt     string
	CategoryID  string // empty = uncategorised
	IsPublished bool
	// ImageURL is an external featured image; Image wins when both are set.
	ImageURL string
	Image    *ImageUpload
}

// UpdatePostInput replaces the editable fields of a post owned by CallerID.
type UpdatePostInput struct {
	PostID      string
	CallerID    string
	Title       string
	Content     string
	Excerpt     string
	CategoryID  string
	IsPublished *bool
	ImageURL    *string
	Image       *ImageUpload
}

// UserRef is the public view of an account embedded in other resources.
type UserRef struct {
	ID   string
	Name string
}

// CommentView is a comment with its author resolved.
type CommentView struct {
	ID        string
	Author    UserRef
	Content   string
	CreatedAt time.Time
}

// PostDetail is a post fully expanded with author, category and comments.
type PostDetail struct {
	Post     domain.Post
	Author   UserRef
	Category *domain.Category
	Comments []CommentView
}

// GetPostInput identifies a post and who is reading it.
type GetPostInput struct {
	IDOrSlug string
	// ViewerID is the authenticated reader, empty for anonymous requests.
	ViewerID string
	// ClientIP keys view de-duplication for anonymous readers.
	ClientIP string
}

// PostService defines use-case operations for posts and comments.
type PostService interface {
	Create(ctx context.Context, in CreatePostInput) (*PostDetail, error)
	// Get resolves IDOrSlug by identifier first when it has the identifier
	// format, then by slug, and records a view.
	Get(ctx context.Context, in GetPostInput) (*PostDetail, error)
	Update(ctx context.Context, in UpdatePostInput) (*PostDetail, error)
	Delete(ctx context.Context, postID, callerID string) error
	AddComment(ctx context.Context, postID, callerID, content string) (*CommentView, error)
	List(ctx context.Context, p query.Params) (*query.Page[domain.PostSummary], error)
	Search(ctx context.Context, q string, limit int) ([]domain.PostSummary, error)
}

// CategoryService defines use-case operations for categories.
type CategoryService interface {
	Create(ctx context.Context, name, description string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

// ImageService validates and stores uploads and serves them back.
type ImageService interface {
	// Save checks size and type before anything is written and returns the
	// generated name.
	Save(ctx context.Context, up ImageUpload) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, string, error)
	// Remove deletes a stored image; absolute URLs and empty refs are ignored.
	Remove(ctx context.Context, ref string) error
}
