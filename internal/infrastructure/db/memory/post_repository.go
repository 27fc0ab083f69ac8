package memory

import (
	"context"

	"github.com/inkwell/blog/internal/core/domain"
	"github.com/inkwell/blog/internal/core/ports"
	"github.com/inkwell/blog/internal/core/query"
)

type PostRepository struct {
	s *Store
}

func (r *PostRepository) Create(_ context.Context, post *domain.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.posts {
		if p.Slug == post.Slug {
			return domain.ErrDuplicateKey
		}
	}
	if post.ID == "" {
		post.ID = domain.NewID()
	}
	r.s.posts[post.ID] = copyPost(post)
	return nil
}

func (r *PostRepository) FindByID(_ context.Context, id string) (*domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if p, ok := r.s.posts[id]; ok {
		return copyPost(p), nil
	}
	return nil, domain.ErrPostNotFound
}

func (r *PostRepository) FindBySlug(_ context.Context, slug string) (*domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.posts {
		if p.Slug == slug {
			return copyPost(p), nil
		}
	}
	return nil, domain.ErrPostNotFound
}

func (r *PostRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := r.FindBySlug(ctx, slug)
	return err == nil, nil
}

// owned returns the stored post when authorID owns it. Callers hold the
// write lock.
func (r *PostRepository) owned(id, authorID string) (*domain.Post, error) {
	p, ok := r.s.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	if !p.OwnedBy(authorID) {
		return nil, domain.ErrForbidden
	}
	return p, nil
}

func (r *PostRepository) UpdateOwned(_ context.Context, id, authorID string, upd ports.PostUpdate) (*domain.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, err := r.owned(id, authorID)
	if err != nil {
		return nil, err
	}
	p.Title = upd.Title
	p.Content = upd.Content
	p.Excerpt = upd.Excerpt
	p.CategoryID = upd.CategoryID
	if upd.FeaturedImage != nil {
		p.FeaturedImage = *upd.FeaturedImage
	}
	if upd.IsPublished != nil {
		p.IsPublished = *upd.IsPublished
	}
	p.UpdatedAt = upd.UpdatedAt
	return copyPost(p), nil
}

func (r *PostRepository) DeleteOwned(_ context.Context, id, authorID string) (*domain.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, err := r.owned(id, authorID)
	if err != nil {
		return nil, err
	}
	delete(r.s.posts, id)
	return p, nil
}

func (r *PostRepository) AppendComment(_ context.Context, postID string, comment domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[postID]
	if !ok {
		return domain.ErrPostNotFound
	}
	p.Comments = append(p.Comments, comment)
	return nil
}

func (r *PostRepository) IncrementViews(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok {
		return domain.ErrPostNotFound
	}
	p.ViewCount++
	return nil
}

func (r *PostRepository) List(_ context.Context, p query.Params) ([]domain.PostSummary, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]*domain.Post, 0, len(r.s.posts))
	for _, post := range r.s.posts {
		all = append(all, post)
	}
	page, total := query.Apply(p, all)

	items := make([]domain.PostSummary, len(page))
	for i, post := range page {
		items[i] = domain.PostSummary{
			ID:            post.ID,
			Title:         post.Title,
			Slug:          post.Slug,
			Excerpt:       post.Excerpt,
			FeaturedImage: post.FeaturedImage,
			CreatedAt:     post.CreatedAt,
			ViewCount:     post.ViewCount,
			AuthorID:      post.AuthorID,
			CategoryID:    post.CategoryID,
		}
		if u, ok := r.s.users[post.AuthorID]; ok {
			items[i].AuthorName = u.Name
		}
		if c, ok := r.s.categories[post.CategoryID]; ok {
			items[i].CategoryName = c.Name
		}
	}
	return items, total, nil
}
