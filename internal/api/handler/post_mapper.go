package handler

import (
	"mime/multipart"
	"strings"

	"github.com/inkwell/blog/internal/core/domain"
	"github.com/inkwell/blog/internal/core/ports"
	"github.com/inkwell/blog/internal/core/query"
)

// --- Request → Service input ---

func toCreateInput(req postRequest, authorID string, image *ports.ImageUpload) ports.CreatePostInput {
	in := ports.CreatePostInput{
		AuthorID:   authorID,
		Title:      req.Title,
		Content:    req.Content,
		Excerpt:    req.Excerpt,
		CategoryID: categoryRef(req.Category),
		ImageURL:   strings.TrimSpace(req.FeaturedImage),
		Image:      image,
	}
	if p := req.IsPublished.ptr(); p != nil {
		in.IsPublished = *p
	}
	return in
}

func toUpdateInput(req postRequest, postID, callerID string, image *ports.ImageUpload) ports.UpdatePostInput {
	in := ports.UpdatePostInput{
		PostID:      postID,
		CallerID:    callerID,
		Title:       req.Title,
		Content:     req.Content,
		Excerpt:     req.Excerpt,
		CategoryID:  categoryRef(req.Category),
		IsPublished: req.IsPublished.ptr(),
		Image:       image,
	}
	if url := strings.TrimSpace(req.FeaturedImage); url != "" {
		in.ImageURL = &url
	}
	return in
}

// categoryRef treats the listing sentinel and blanks as "no category".
func categoryRef(s string) string {
	s = strings.TrimSpace(s)
	if s == query.AllCategories {
		return ""
	}
	return s
}

// toImageUpload wraps an uploaded form file. The caller closes the file.
func toImageUpload(fh *multipart.FileHeader, f multipart.File) *ports.ImageUpload {
	return &ports.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}
}

// --- Service output → Response ---

func toRef(u ports.UserRef) refResponse {
	return refResponse{ID: u.ID, Name: u.Name}
}

func toCategoryResponse(c *domain.Category) *categoryResponse {
	if c == nil {
		return nil
	}
	return &categoryResponse{ID: c.ID, Name: c.Name, Slug: c.Slug, Description: c.Description}
}

func toCategoryList(list []domain.Category) []categoryResponse {
	out := make([]categoryResponse, len(list))
	for i := range list {
		out[i] = *toCategoryResponse(&list[i])
	}
	return out
}

func toCommentResponse(cv ports.CommentView) commentResponse {
	return commentResponse{
		ID:        cv.ID,
		User:      toRef(cv.Author),
		Content:   cv.Content,
		CreatedAt: cv.CreatedAt,
	}
}

func toPostResponse(d *ports.PostDetail) postResponse {
	comments := make([]commentResponse, len(d.Comments))
	for i, cv := range d.Comments {
		comments[i] = toCommentResponse(cv)
	}
	return postResponse{
		ID:               d.Post.ID,
		Title:            d.Post.Title,
		Slug:             d.Post.Slug,
		Content:          d.Post.Content,
		Excerpt:          d.Post.Excerpt,
		FeaturedImage:    d.Post.FeaturedImage,
		FeaturedImageURL: domain.ResolveImageURL(d.Post.FeaturedImage),
		Category:         toCategoryResponse(d.Category),
		Author:           toRef(d.Author),
		IsPublished:      d.Post.IsPublished,
		ViewCount:        d.Post.ViewCount,
		Comments:         comments,
		CreatedAt:        d.Post.CreatedAt,
		UpdatedAt:        d.Post.UpdatedAt,
	}
}

func toSummaryResponses(items []domain.PostSummary) []postSummaryResponse {
	out := make([]postSummaryResponse, len(items))
	for i, s := range items {
		out[i] = postSummaryResponse{
			ID:               s.ID,
			Title:            s.Title,
			Slug:             s.Slug,
			Excerpt:          s.Excerpt,
			FeaturedImage:    s.FeaturedImage,
			FeaturedImageURL: domain.ResolveImageURL(s.FeaturedImage),
			Author:           refResponse{ID: s.AuthorID, Name: s.AuthorName},
			ViewCount:        s.ViewCount,
			CreatedAt:        s.CreatedAt,
		}
		if s.CategoryID != "" {
			out[i].Category = &refResponse{ID: s.CategoryID, Name: s.CategoryName}
		}
	}
	return out
}

func toListResponse(page *query.Page[domain.PostSummary]) listPostsResponse {
	return listPostsResponse{
		Posts:       toSummaryResponses(page.Items),
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
		Total:       page.Total,
	}
}
