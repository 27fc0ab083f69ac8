package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkwell/blog/internal/core/domain"
	"github.com/inkwell/blog/internal/core/ports"
	"github.com/inkwell/blog/internal/core/query"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50

	// maxSlugAttempts bounds the -2, -3, ... suffix search before falling
	// back to a suffix derived from the post identifier.
	maxSlugAttempts = 50

	unknownAuthor = "unknown"
)

// ListCache stores listing results between writes. Implementations fail
// open: errors are reported but callers treat them as a miss.
type ListCache interface {
	// Get reports a hit and the cache generation it consulted. The
	// generation must be passed to Set for the result computed after a miss.
	Get(ctx context.Context, key string, dst any) (int64, bool, error)
	Set(ctx context.Context, gen int64, key string, v any) error
	// Invalidate makes every previously stored entry unreachable.
	Invalidate(ctx context.Context) error
}

// ViewDeduper abstracts the view de-duplication store (Redis).
type ViewDeduper interface {
	// IsDuplicate reports whether viewer already viewed postID within the
	// de-duplication window, recording the view when it did not.
	IsDuplicate(ctx context.Context, postID, viewer string) (bool, error)
}

type PostService struct {
	posts      ports.PostRepository
	categories ports.CategoryRepository
	users      ports.UserRepository
	images     ports.ImageService
	cache      ListCache
	views      ViewDeduper
	log        zerolog.Logger
	now        func() time.Time
}

// NewPostService returns a PostService. cache and views may be nil, which
// disables caching and view de-duplication respectively.
func NewPostService(
	posts ports.PostRepository,
	categories ports.CategoryRepository,
	users ports.UserRepository,
	images ports.ImageService,
	cache ListCache,
	views ViewDeduper,
	log zerolog.Logger,
) *PostService {
	if cache == nil {
		cache = noopCache{}
	}
	return &PostService{
		posts:      posts,
		categories: categories,
		users:      users,
		images:     images,
		cache:      cache,
		views:      views,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the input, stores the optional image and inserts the
// post under a unique slug.
func (s *PostService) Create(ctx context.Context, in ports.CreatePostInput) (*ports.PostDetail, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	excerpt := strings.TrimSpace(in.Excerpt)
	categoryID := strings.TrimSpace(in.CategoryID)

	if err := domain.ValidatePostFields(title, content, excerpt); err != nil {
		return nil, err
	}
	category, err := s.resolveCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	image := strings.TrimSpace(in.ImageURL)
	if image != "" && !domain.IsAbsoluteURL(image) {
		return nil, domain.NewValidationError("featuredImage", "featured image must be an http(s) URL or an uploaded file")
	}
	if in.Image != nil {
		if image, err = s.images.Save(ctx, *in.Image); err != nil {
			return nil, err
		}
	}

	now := s.now()
	post := &domain.Post{
		ID:            domain.NewID(),
		Title:         title,
		Content:       content,
		Excerpt:       excerpt,
		FeaturedImage: image,
		CategoryID:    categoryID,
		AuthorID:      in.AuthorID,
		IsPublished:   in.IsPublished,
		Comments:      []domain.Comment{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.insertWithUniqueSlug(ctx, post); err != nil {
		if in.Image != nil {
			s.removeImage(ctx, image)
		}
		return nil, err
	}

	s.invalidate(ctx)
	s.log.Info().Str("post_id", post.ID).Str("slug", post.Slug).Str("author_id", post.AuthorID).Msg("post created")

	author, err := s.users.FindByID(ctx, post.AuthorID)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &ports.PostDetail{
		Post:     *post,
		Author:   userRef(post.AuthorID, author),
		Category: category,
		Comments: []ports.CommentView{},
	}, nil
}

// insertWithUniqueSlug tries base, base-2, base-3, ... A duplicate-key
// error from a concurrent insert moves on to the next candidate.
func (s *PostService) insertWithUniqueSlug(ctx context.Context, post *domain.Post) error {
	base := domain.Slugify(post.Title)
	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := domain.SlugCandidate(base, n)
		exists, err := s.posts.SlugExists(ctx, candidate)
		if err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		if exists {
			continue
		}
		post.Slug = candidate
		err = s.posts.Create(ctx, post)
		if errors.Is(err, domain.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		return nil
	}

	post.Slug = base + "-" + post.ID[len(post.ID)-8:]
	if err := s.posts.Create(ctx, post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// Get returns the expanded post. Unpublished posts are only visible to
// their author. A view is counted once per viewer per window; authors
// reading their own post are not counted.
func (s *PostService) Get(ctx context.Context, in ports.GetPostInput) (*ports.PostDetail, error) {
	post, err := s.find(ctx, strings.TrimSpace(in.IDOrSlug))
	if err != nil {
		return nil, err
	}
	if !post.IsPublished && !post.OwnedBy(in.ViewerID) {
		return nil, domain.ErrPostNotFound
	}

	if post.IsPublished && !post.OwnedBy(in.ViewerID) && s.countView(ctx, post.ID, in) {
		post.ViewCount++
	}

	return s.expand(ctx, post)
}

func (s *PostService) find(ctx context.Context, idOrSlug string) (*domain.Post, error) {
	if idOrSlug == "" {
		return nil, domain.ErrPostNotFound
	}
	if domain.IsID(idOrSlug) {
		post, err := s.posts.FindByID(ctx, idOrSlug)
		if err == nil {
			return post, nil
		}
		if !errors.Is(err, domain.ErrPostNotFound) {
			return nil, fmt.Errorf("get post: %w", err)
		}
	}
	post, err := s.posts.FindBySlug(ctx, idOrSlug)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

// countView increments the view counter unless the viewer is a duplicate.
// De-duplication failures count the view anyway.
func (s *PostService) countView(ctx context.Context, postID string, in ports.GetPostInput) bool {
	if s.views != nil {
		viewer := "user:" + in.ViewerID
		if in.ViewerID == "" {
			viewer = "ip:" + in.ClientIP
		}
		dup, err := s.views.IsDuplicate(ctx, postID, viewer)
		if err != nil {
			s.log.Warn().Err(err).Str("post_id", postID).Msg("view dedup failed, counting anyway")
		} else if dup {
			return false
		}
	}

	if err := s.posts.IncrementViews(ctx, postID); err != nil {
		s.log.Warn().Err(err).Str("post_id", postID).Msg("failed to increment view count")
		return false
	}
	return true
}

// Update replaces the editable fields of a post owned by the caller.
func (s *PostService) Update(ctx context.Context, in ports.UpdatePostInput) (*ports.PostDetail, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	excerpt := strings.TrimSpace(in.Excerpt)
	categoryID := strings.TrimSpace(in.CategoryID)

	if err := domain.ValidatePostFields(title, content, excerpt); err != nil {
		return nil, err
	}
	if in.ImageURL != nil {
		if u := strings.TrimSpace(*in.ImageURL); u != "" && !domain.IsAbsoluteURL(u) {
			return nil, domain.NewValidationError("featuredImage", "featured image must be an http(s) URL or an uploaded file")
		}
	}
	if _, err := s.resolveCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	current, err := s.posts.FindByID(ctx, in.PostID)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	if !current.OwnedBy(in.CallerID) {
		return nil, domain.ErrForbidden
	}

	upd := ports.PostUpdate{
		Title:       title,
		Content:     content,
		Excerpt:     excerpt,
		CategoryID:  categoryID,
		IsPublished: in.IsPublished,
		UpdatedAt:   s.now(),
	}
	if in.ImageURL != nil {
		u := strings.TrimSpace(*in.ImageURL)
		upd.FeaturedImage = &u
	}
	if in.Image != nil {
		name, err := s.images.Save(ctx, *in.Image)
		if err != nil {
			return nil, err
		}
		upd.FeaturedImage = &name
	}

	updated, err := s.posts.UpdateOwned(ctx, in.PostID, in.CallerID, upd)
	if err != nil {
		if in.Image != nil {
			s.removeImage(ctx, *upd.FeaturedImage)
		}
		if errors.Is(err, domain.ErrPostNotFound) || errors.Is(err, domain.ErrForbidden) {
			return nil, err
		}
		return nil, fmt.Errorf("update post: %w", err)
	}

	if upd.FeaturedImage != nil && *upd.FeaturedImage != current.FeaturedImage {
		s.removeImage(ctx, current.FeaturedImage)
	}

	s.invalidate(ctx)
	s.log.Info().Str("post_id", updated.ID).Str("author_id", in.CallerID).Msg("post updated")
	return s.expand(ctx, updated)
}

// Delete removes a post owned by the caller and its stored image.
func (s *PostService) Delete(ctx context.Context, postID, callerID string) error {
	removed, err := s.posts.DeleteOwned(ctx, postID, callerID)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) || errors.Is(err, domain.ErrForbidden) {
			return err
		}
		return fmt.Errorf("delete post: %w", err)
	}

	s.removeImage(ctx, removed.FeaturedImage)
	s.invalidate(ctx)
	s.log.Info().Str("post_id", postID).Str("author_id", callerID).Msg("post deleted")
	return nil
}

// AddComment appends a comment to a post and returns it with the author
// resolved.
func (s *PostService) AddComment(ctx context.Context, postID, callerID, content string) (*ports.CommentView, error) {
	content = strings.TrimSpace(content)
	if err := domain.ValidateComment(content); err != nil {
		return nil, err
	}

	comment := domain.Comment{
		ID:        domain.NewID(),
		AuthorID:  callerID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.posts.AppendComment(ctx, postID, comment); err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("add comment: %w", err)
	}

	author, err := s.users.FindByID(ctx, callerID)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("add comment: %w", err)
	}

	s.log.Info().Str("post_id", postID).Str("comment_id", comment.ID).Msg("comment added")
	return &ports.CommentView{
		ID:        comment.ID,
		Author:    userRef(callerID, author),
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}, nil
}

// List runs the listing engine, serving repeated requests from the cache.
func (s *PostService) List(ctx context.Context, p query.Params) (*query.Page[domain.PostSummary], error) {
	p = p.Normalize()
	key := "posts:" + p.CacheKey()

	var cached query.Page[domain.PostSummary]
	gen, hit, cacheErr := s.cache.Get(ctx, key, &cached)
	if cacheErr != nil {
		s.log.Warn().Err(cacheErr).Str("key", key).Msg("list cache read failed")
	} else if hit {
		return &cached, nil
	}

	items, total, err := s.posts.List(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	page := query.NewPage(items, total, p)

	if cacheErr == nil {
		if err := s.cache.Set(ctx, gen, key, page); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("list cache write failed")
		}
	}
	return &page, nil
}

// Search returns the newest published posts matching q.
func (s *PostService) Search(ctx context.Context, q string, limit int) ([]domain.PostSummary, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, domain.NewValidationError("q", "search query is required")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	page, err := s.List(ctx, query.Params{Page: 1, PageSize: limit, Search: q, Sort: query.SortNewest})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// resolveCategory checks an optional category reference. Malformed and
// unknown identifiers are both input errors.
func (s *PostService) resolveCategory(ctx context.Context, id string) (*domain.Category, error) {
	if id == "" {
		return nil, nil
	}
	if !domain.IsID(id) {
		return nil, domain.NewValidationError("category", "valid category is required")
	}
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return nil, domain.NewValidationError("category", "category does not exist")
		}
		return nil, fmt.Errorf("resolve category: %w", err)
	}
	return c, nil
}

// expand resolves the author, category and comment authors of post.
func (s *PostService) expand(ctx context.Context, post *domain.Post) (*ports.PostDetail, error) {
	ids := make([]string, 0, len(post.Comments)+1)
	ids = append(ids, post.AuthorID)
	for _, c := range post.Comments {
		ids = append(ids, c.AuthorID)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("expand post: %w", err)
	}

	var category *domain.Category
	if post.HasCategory() {
		category, err = s.categories.FindByID(ctx, post.CategoryID)
		if err != nil && !errors.Is(err, domain.ErrCategoryNotFound) {
			return nil, fmt.Errorf("expand post: %w", err)
		}
	}

	comments := make([]ports.CommentView, len(post.Comments))
	for i, c := range post.Comments {
		comments[i] = ports.CommentView{
			ID:        c.ID,
			Author:    userRef(c.AuthorID, users[c.AuthorID]),
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		}
	}

	return &ports.PostDetail{
		Post:     *post,
		Author:   userRef(post.AuthorID, users[post.AuthorID]),
		Category: category,
		Comments: comments,
	}, nil
}

func (s *PostService) removeImage(ctx context.Context, ref string) {
	if err := s.images.Remove(ctx, ref); err != nil {
		s.log.Warn().Err(err).Str("image", ref).Msg("failed to remove stored image")
	}
}

func (s *PostService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("list cache invalidation failed")
	}
}

func userRef(id string, u *domain.User) ports.UserRef {
	if u == nil {
		return ports.UserRef{ID: id, Name: unknownAuthor}
	}
	return ports.UserRef{ID: u.ID, Name: u.Name}
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, any) (int64, bool, error) { return 0, false, nil }
func (noopCache) Set(context.Context, int64, string, any) error        { return nil }
func (noopCache) Invalidate(context.Context) error                     { return nil }
