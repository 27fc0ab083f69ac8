package handler

import (
	"encoding/json"
	"strconv"
	"time"
)

// optionalBool records whether a boolean field was sent at all. It accepts
// JSON booleans and form values such as "true" or "0".
type optionalBool struct {
	set   bool
	value bool
}

func (b *optionalBool) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = optionalBool{}
		return nil
	}
	if err := json.Unmarshal(data, &b.value); err != nil {
		return err
	}
	b.set = true
	return nil
}

func (b *optionalBool) UnmarshalParam(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*b = optionalBool{set: true, value: v}
	return nil
}

func (b optionalBool) ptr() *bool {
	if !b.set {
		return nil
	}
	v := b.value
	return &v
}

// postRequest is the body of POST /posts and PUT /posts/:id, sent as JSON
// or as multipart form data. With multipart, featuredImage may be a file.
type postRequest struct {
	Title         string       `json:"title"         form:"title"         validate:"required,max=100"`
	Content       string       `json:"content"       form:"content"       validate:"required"`
	Excerpt       string       `json:"excerpt"       form:"excerpt"       validate:"max=200"`
	Category      string       `json:"category"      form:"category"`
	IsPublished   optionalBool `json:"isPublished"   form:"isPublished"   swaggertype:"boolean"`
	FeaturedImage string       `json:"featuredImage" form:"featuredImage"`
}

type commentRequest struct {
	Content string `json:"content" validate:"required,max=500"`
}

type categoryRequest struct {
	Name        string `json:"name"        validate:"required,max=50"`
	Description string `json:"description" validate:"max=500"`
}

// refResponse names a referenced user or category.
type refResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type categoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

type commentResponse struct {
	ID        string      `json:"id"`
	User      refResponse `json:"user"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
}

type postResponse struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Slug             string            `json:"slug"`
	Content          string            `json:"content"`
	Excerpt          string            `json:"excerpt"`
	FeaturedImage    string            `json:"featuredImage,omitempty"`
	FeaturedImageURL string            `json:"featuredImageUrl,omitempty"`
	Category         *categoryResponse `json:"category"`
	Author           refResponse       `json:"author"`
	IsPublished      bool              `json:"isPublished"`
	ViewCount        int64             `json:"viewCount"`
	Comments         []commentResponse `json:"comments"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

type postSummaryResponse struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Slug             string       `json:"slug"`
	Excerpt          string       `json:"excerpt"`
	FeaturedImage    string       `json:"featuredImage,omitempty"`
	FeaturedImageURL string       `json:"featuredImageUrl,omitempty"`
	Author           refResponse  `json:"author"`
	Category         *refResponse `json:"category"`
	ViewCount        int64        `json:"viewCount"`
	CreatedAt        time.Time    `json:"createdAt"`
}

type listPostsResponse struct {
	Posts       []postSummaryResponse `json:"posts"`
	TotalPages  int                   `json:"totalPages"`
	CurrentPage int                   `json:"currentPage"`
	Total       int64                 `json:"total"`
}
