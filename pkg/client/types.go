package client

import (
	"io"
	"net/url"
	"strconv"
	"time"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Ref names a referenced author or category.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

type Comment struct {
	ID        string    `json:"id"`
	User      Ref       `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type Post struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Slug             string    `json:"slug"`
	Content          string    `json:"content"`
	Excerpt          string    `json:"excerpt"`
	FeaturedImage    string    `json:"featuredImage,omitempty"`
	FeaturedImageURL string    `json:"featuredImageUrl,omitempty"`
	Category         *Category `json:"category"`
	Author           Ref       `json:"author"`
	IsPublished      bool      `json:"isPublished"`
	ViewCount        int64     `json:"viewCount"`
	Comments         []Comment `json:"comments"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type PostSummary struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Slug             string    `json:"slug"`
	Excerpt          string    `json:"excerpt"`
	FeaturedImage    string    `json:"featuredImage,omitempty"`
	FeaturedImageURL string    `json:"featuredImageUrl,omitempty"`
	Author           Ref       `json:"author"`
	Category         *Ref      `json:"category"`
	ViewCount        int64     `json:"viewCount"`
	CreatedAt        time.Time `json:"createdAt"`
}

// PostPage is one page of a listing.
type PostPage struct {
	Posts       []PostSummary `json:"posts"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
	Total       int64         `json:"total"`
}

// ListOptions filters GET /posts. Zero values are left to server defaults.
type ListOptions struct {
	Page     int
	Limit    int
	Category string
	Search   string
	Sort     string
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Category != "" {
		v.Set("category", o.Category)
	}
	if o.Search != "" {
		v.Set("search", o.Search)
	}
	if o.Sort != "" {
		v.Set("sort", o.Sort)
	}
	return v
}

// PostInput is the body of create and update. With Image set the request
// is sent as multipart form data.
type PostInput struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Excerpt       string `json:"excerpt,omitempty"`
	Category      string `json:"category,omitempty"`
	IsPublished   *bool  `json:"isPublished,omitempty"`
	FeaturedImage string `json:"featuredImage,omitempty"`
	Image         *Image `json:"-"`
}

// Image is a file to upload as the featured image.
type Image struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type authResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
