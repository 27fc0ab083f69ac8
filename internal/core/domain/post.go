package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLen   = 100
	MaxExcerptLen = 200
	MaxCommentLen = 500

	// UploadsPath is the public prefix under which stored images are served.
	UploadsPath = "/uploads/"
)

// Comment is appended to exactly one Post and never edited afterwards.
type Comment struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Post is the aggregate root of the content model. AuthorID is immutable
// after creation; CategoryID is a weak, optional reference.
type Post struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Content       string    `json:"content"`
	Excerpt       string    `json:"excerpt,omitempty"`
	FeaturedImage string    `json:"featuredImage,omitempty"`
	CategoryID    string    `json:"categoryId,omitempty"`
	AuthorID      string    `json:"authorId"`
	IsPublished   bool      `json:"isPublished"`
	ViewCount     int64     `json:"viewCount"`
	Comments      []Comment `json:"comments"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HasCategory reports whether the post references a category.
func (p *Post) HasCategory() bool { return p.CategoryID != "" }

// OwnedBy reports whether userID authored the post.
func (p *Post) OwnedBy(userID string) bool { return userID != "" && p.AuthorID == userID }

// PostSummary is the listing projection of a Post.
type PostSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Excerpt       string    `json:"excerpt,omitempty"`
	FeaturedImage string    `json:"featuredImage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	ViewCount     int64     `json:"viewCount"`
	AuthorID      string    `json:"authorId"`
	AuthorName    string    `json:"authorName"`
	CategoryID    string    `json:"categoryId,omitempty"`
	CategoryName  string    `json:"categoryName,omitempty"`
}

// ValidatePostFields checks the title/content/excerpt rules shared by
// create and update. Inputs are expected to be trimmed already.
func ValidatePostFields(title, content, excerpt string) error {
	ve := &ValidationError{}
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		ve.Add("title", "title is required")
	case n > MaxTitleLen:
		ve.Add("title", "title must be at most 100 characters")
	}
	if content == "" {
		ve.Add("content", "content is required")
	}
	if utf8.RuneCountInString(excerpt) > MaxExcerptLen {
		ve.Add("excerpt", "excerpt must be at most 200 characters")
	}
	return ve.OrNil()
}

// ValidateComment checks a comment body.
func ValidateComment(content string) error {
	switch n := utf8.RuneCountInString(content); {
	case n == 0:
		return NewValidationError("content", "comment content is required")
	case n > MaxCommentLen:
		return NewValidationError("content", "comment must be at most 500 characters")
	}
	return nil
}

// IsAbsoluteURL reports whether an image reference points outside the
// local upload store.
func IsAbsoluteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// ResolveImageURL turns a stored featured-image reference into the URL a
// client should load. Absolute URLs pass through unchanged.
func ResolveImageURL(ref string) string {
	switch {
	case ref == "":
		return ""
	case IsAbsoluteURL(ref):
		return ref
	default:
		return UploadsPath + ref
	}
}
