package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/inkwell/blog/internal/core/domain"
	"github.com/inkwell/blog/internal/core/ports"
	"github.com/inkwell/blog/internal/core/query"
)

var nopLog = zerolog.Nop()

type stubUserRepo struct {
	users map[string]*domain.User // by id
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrDuplicateKey
		}
	}
	c := cloneUser(user)
	if c.ID == "" {
		c.ID = domain.NewID()
	}
	r.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByIDs(_ context.Context, ids []string) (map[string]*domain.User, error) {
	out := make(map[string]*domain.User)
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = cloneUser(u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) add(name string) *domain.User {
	u := &domain.User{ID: domain.NewID(), Name: name, Email: name + "@example.com", Role: domain.RoleAuthor}
	r.users[u.ID] = u
	return cloneUser(u)
}

// stubPostRepo mirrors the Mongo repository's filters over a map.
type stubPostRepo struct {
	mu    sync.Mutex
	posts map[string]*domain.Post

	// failCreateSlugs forces a duplicate-key error as if another writer
	// had taken the slug between the existence check and the insert.
	failCreateSlugs map[string]bool
	views           int
}

func newStubPostRepo() *stubPostRepo {
	return &stubPostRepo{posts: make(map[string]*domain.Post), failCreateSlugs: map[string]bool{}}
}

func clonePost(p *domain.Post) *domain.Post {
	c := *p
	c.Comments = append([]domain.Comment{}, p.Comments...)
	return &c
}

func (r *stubPostRepo) Create(_ context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreateSlugs[post.Slug] {
		return domain.ErrDuplicateKey
	}
	for _, p := range r.posts {
		if p.Slug == post.Slug {
			return domain.ErrDuplicateKey
		}
	}
	r.posts[post.ID] = clonePost(post)
	return nil
}

func (r *stubPostRepo) FindByID(_ context.Context, id string) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[id]; ok {
		return clonePost(p), nil
	}
	return nil, domain.ErrPostNotFound
}

func (r *stubPostRepo) FindBySlug(_ context.Context, slug string) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.posts {
		if p.Slug == slug {
			return clonePost(p), nil
		}
	}
	return nil, domain.ErrPostNotFound
}

func (r *stubPostRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := r.FindBySlug(ctx, slug)
	return err == nil, nil
}

func (r *stubPostRepo) UpdateOwned(_ context.Context, id, authorID string, upd ports.PostUpdate) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	if p.AuthorID != authorID {
		return nil, domain.ErrForbidden
	}
	p.Title, p.Content, p.Excerpt, p.CategoryID = upd.Title, upd.Content, upd.Excerpt, upd.CategoryID
	if upd.FeaturedImage != nil {
		p.FeaturedImage = *upd.FeaturedImage
	}
	if upd.IsPublished != nil {
		p.IsPublished = *upd.IsPublished
	}
	p.UpdatedAt = upd.UpdatedAt
	return clonePost(p), nil
}

func (r *stubPostRepo) DeleteOwned(_ context.Context, id, authorID string) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	if p.AuthorID != authorID {
		return nil, domain.ErrForbidden
	}
	delete(r.posts, id)
	return p, nil
}

func (r *stubPostRepo) AppendComment(_ context.Context, postID string, c domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return domain.ErrPostNotFound
	}
	p.Comments = append(p.Comments, c)
	return nil
}

func (r *stubPostRepo) IncrementViews(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return domain.ErrPostNotFound
	}
	p.ViewCount++
	r.views++
	return nil
}

func (r *stubPostRepo) List(_ context.Context, p query.Params) ([]domain.PostSummary, int64, error) {
	r.mu.Lock()
	all := make([]*domain.Post, 0, len(r.posts))
	for _, post := range r.posts {
		all = append(all, clonePost(post))
	}
	r.mu.Unlock()

	page, total := query.Apply(p, all)
	out := make([]domain.PostSummary, len(page))
	for i, post := range page {
		out[i] = domain.PostSummary{ID: post.ID, Title: post.Title, Slug: post.Slug, AuthorID: post.AuthorID, CreatedAt: post.CreatedAt}
	}
	return out, total, nil
}

type stubCategoryRepo struct {
	cats map[string]*domain.Category
}

func newStubCategoryRepo() *stubCategoryRepo {
	return &stubCategoryRepo{cats: make(map[string]*domain.Category)}
}

func (r *stubCategoryRepo) Create(_ context.Context, c *domain.Category) error {
	for _, existing := range r.cats {
		if existing.Name == c.Name {
			return domain.ErrDuplicateKey
		}
	}
	clone := *c
	r.cats[c.ID] = &clone
	return nil
}

func (r *stubCategoryRepo) FindByID(_ context.Context, id string) (*domain.Category, error) {
	if c, ok := r.cats[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, domain.ErrCategoryNotFound
}

func (r *stubCategoryRepo) List(_ context.Context) ([]domain.Category, error) {
	out := make([]domain.Category, 0, len(r.cats))
	for _, c := range r.cats {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memImageStore struct {
	files map[string][]byte
}

func newMemImageStore() *memImageStore {
	return &memImageStore{files: make(map[string][]byte)}
}

func (s *memImageStore) Put(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.files[name] = b
	return nil
}

func (s *memImageStore) Open(_ context.Context, name string) (io.ReadCloser, string, error) {
	b, ok := s.files[name]
	if !ok {
		return nil, "", domain.ErrImageNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), "application/octet-stream", nil
}

func (s *memImageStore) Delete(_ context.Context, name string) error {
	delete(s.files, name)
	return nil
}

// stubCache is a map-backed ListCache that records invalidations. Set
// drops entries computed under a retired generation.
type stubCache struct {
	gen         int64
	entries     map[string]any
	invalidated int
}

func newStubCache() *stubCache { return &stubCache{entries: map[string]any{}} }

func (c *stubCache) Get(_ context.Context, key string, dst any) (int64, bool, error) {
	v, ok := c.entries[key]
	if !ok {
		return c.gen, false, nil
	}
	switch d := dst.(type) {
	case *query.Page[domain.PostSummary]:
		*d = v.(query.Page[domain.PostSummary])
	case *[]domain.Category:
		*d = v.([]domain.Category)
	}
	return c.gen, true, nil
}

func (c *stubCache) Set(_ context.Context, gen int64, key string, v any) error {
	if gen == c.gen {
		c.entries[key] = v
	}
	return nil
}

func (c *stubCache) Invalidate(context.Context) error {
	c.entries = map[string]any{}
	c.gen++
	c.invalidated++
	return nil
}

// racingCache invalidates right after every lookup, as a write running
// concurrently with the listing would.
type racingCache struct {
	*stubCache
}

func (c racingCache) Get(ctx context.Context, key string, dst any) (int64, bool, error) {
	gen, hit, err := c.stubCache.Get(ctx, key, dst)
	_ = c.stubCache.Invalidate(ctx)
	return gen, hit, err
}

type stubDeduper struct {
	seen map[string]bool
	err  error
}

func (d *stubDeduper) IsDuplicate(_ context.Context, postID, viewer string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	k := postID + "|" + viewer
	if d.seen[k] {
		return true, nil
	}
	d.seen[k] = true
	return false, nil
}
