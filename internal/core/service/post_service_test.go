package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/inkwell/blog/internal/core/domain"
	"github.com/inkwell/blog/internal/core/ports"
	"github.com/inkwell/blog/internal/core/query"
)

type postFixture struct {
	svc    *PostService
	posts  *stubPostRepo
	cats   *stubCategoryRepo
	users  *stubUserRepo
	images *memImageStore
	cache  *stubCache
	views  *stubDeduper
}

func newPostFixture() *postFixture {
	f := &postFixture{
		posts:  newStubPostRepo(),
		cats:   newStubCategoryRepo(),
		users:  newStubUserRepo(),
		images: newMemImageStore(),
		cache:  newStubCache(),
		views:  &stubDeduper{seen: map[string]bool{}},
	}
	imgs := NewImageService(f.images, 1024, nopLog)
	f.svc = NewPostService(f.posts, f.cats, f.users, imgs, f.cache, f.views, nopLog)
	return f
}

func (f *postFixture) category(name string) *domain.Category {
	c := &domain.Category{ID: domain.NewID(), Name: name, Slug: domain.Slugify(name)}
	_ = f.cats.Create(context.Background(), c)
	return c
}

func (f *postFixture) create(t *testing.T, authorID, title string, published bool) *ports.PostDetail {
	t.Helper()
	d, err := f.svc.Create(context.Background(), ports.CreatePostInput{
		AuthorID:    authorID,
		Title:       title,
		Content:     "<p>body</p>",
		IsPublished: published,
	})
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}
	return d
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestPostService_Create_Success(t *testing.T) {
	f := newPostFixture()
	author := f.users.add("alice")
	tech := f.category("Tech")

	d, err := f.svc.Create(context.Background(), ports.CreatePostInput{
		AuthorID:    author.ID,
		Title:       "  Hello, World!  Foo ",
		Content:     "<p>hi</p>",
		Excerpt:     "short",
		CategoryID:  tech.ID,
		IsPublished: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.Post.Slug != "hello-world-foo" {
		t.Fatalf("unexpected slug %q", d.Post.Slug)
	}
	if d.Post.Title != "Hello, World!  Foo" {
		t.Fatalf("title should be trimmed, got %q", d.Post.Title)
	}
	if d.Author.Name != "alice" {
		t.Fatalf("author not resolved: %+v", d.Author)
	}
	if d.Category == nil || d.Category.Name != "Tech" {
		t.Fatalf("category not resolved: %+v", d.Category)
	}
	if f.cache.invalidated != 1 {
		t.Fatalf("expected cache invalidation on create")
	}
}

func TestPostService_Create_Validation(t *testing.T) {
	f := newPostFixture()
	author := f.users.add("alice")

	cases := []ports.CreatePostInput{
		{AuthorID: author.ID, Title: "", Content: "x"},
		{AuthorID: author.ID, Title: strings.Repeat("t", 101), Content: "x"},
		{AuthorID: author.ID, Title: "ok", Content: "   "},
		{AuthorID: author.ID, Title: "ok", Content: "x", Excerpt: strings.Repeat("e", 201)},
		{AuthorID: author.ID, Title: "ok", Content: "x", CategoryID: "tech"},
		{AuthorID: author.ID, Title: "ok", Content: "x", CategoryID: domain.NewID()},
		{AuthorID: author.ID, Title: "ok", Content: "x", ImageURL: "ftp://example.com/a.png"},
	}
	for i, in := range cases {
		if _, err := f.svc.Create(context.Background(), in); !domain.IsValidation(err) {
			t.Fatalf("case %d: expected ValidationError, got %v", i, err)
		}
	}
	if len(f.posts.posts) != 0 {
		t.Fatalf("validation failures must not persist anything")
	}
}

func TestPostService_Create_SlugCollisions(t *testing.T) {
	f := newPostFixture()
	author := f.users.add("alice")

	first := f.create(t, author.ID, "Same Title", true)
	second := f.create(t, author.ID, "Same Title", true)
	third := f.create(t, author.ID, "same title!", true)

	if first.Post.Slug != "same-title" || second.Post.Slug != "same-title-2" || third.Post.Slug != "same-title-3" {
		t.Fatalf("unexpected slugs: %s %s %s", first.Post.Slug, second.Post.Slug, third.Post.Slug)
	}
}

func TestPostService_Create_SlugRaceRetries(t *testing.T) {
	f := newPostFixture()
	author := f.users.add("alice")
	f.posts.failCreateSlugs["racy"] = true

	d := f.create(t, author.ID, "Racy", true)
	if d.Post.Slug != "racy-2" {
		t.Fatalf("expected retry with next suffix, got %s", d.Post.Slug)
	}
}

func TestPostService_Create_WithImage(t *testing.T) {
	f := newPostFixture()
	author := f.users.add("alice")

	d, err := f.svc.Create(context.Background(), ports.CreatePostInput{
		AuthorID: author.ID,
		Title:    "Pic",
		Content:  "x",
		Image:    &ports.ImageUpload{Filename: "a.png", ContentType: "image/png", Size: int64(len(pngHeader)), Body: bytes.NewReader(pngHeader)},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(d.Post.FeaturedImage, ".png") {
		t.Fatalf("unexpected image name %q", d.Post.FeaturedImage)
	}
	if _, ok := f.images.files[d.Post.FeaturedImage]; !ok {
		t.Fatalf("image not stored")
	}
}

func TestPostService_Create_RejectsOversizedImageBeforeInsert(t *testing.T) {
	f := newPostFixture()
	author := f.users.add("alice")
	big := bytes.Repeat([]byte{0}, 2048)

	_, err := f.svc.Create(context.Background(), ports.CreatePostInput{
		AuthorID: author.ID,
		Title:    "Big",
		Content:  "x",
		Image:    &ports.ImageUpload{Filename: "a.png", Size: -1, Body: bytes.NewReader(big)},
	})
	if !errors.Is(err, domain.ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
	if len(f.posts.posts) != 0 || len(f.images.files) != 0 {
		t.Fatalf("nothing should be persisted")
	}
}

func TestPostService_Get_ByIDAndSlug(t *testing.T) {
	f := newPostFixture()
	author := f.users.add("alice")
	d := f.create(t, author.ID, "My First Post", true)

	byID, err := f.svc.Get(context.Background(), ports.GetPostInput{IDOrSlug: d.Post.ID, ClientIP: "1.1.1.1"})
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	bySlug, err := f.svc.Get(context.Background(), ports.GetPostInput{IDOrSlug: "my-first-post", ClientIP: "1.1.1.1"})
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if byID.Post.ID != bySlug.Post.ID {
		t.Fatalf("lookups disagree")
	}

	if _, err := f.svc.Get(context.Background(), ports.GetPostInput{IDOrSlug: "nope"}); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	if _, err := f.svc.Get(context.Background(), ports.GetPostInput{IDOrSlug: domain.NewID()}); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound for unknown id, got %v", err)
	}
}

func TestPostService_Get_HexTitleFallsBackToSlug(t *testing.T) {
	f := newPostFixture()
	author := f.users.add("alice")
	hexTitle := "0123456789abcdef01234567"
	d := f.create(t, author.ID, hexTitle, true)

	got, err := f.svc.Get(context.Background(), ports.GetPostInput{IDOrSlug: hexTitle})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Post.ID != d.Post.ID {
		t.Fatalf("expected slug fallback to find the post")
	}
}

func TestPostService_Get_ViewDedup(t *testing.T) {
	f := newPostFixture()
	author := f.users.add("alice")
	reader := f.users.add("bob")
	d := f.create(t, author.ID, "Viewed", true)

	in := ports.GetPostInput{IDOrSlug: d.Post.ID, ViewerID: reader.ID}
	first, _ := f.svc.Get(context.Background(), in)
	second, _ := f.svc.Get(context.Background(), in)
	if first.Post.ViewCount != 1 || second.Post.ViewCount != 1 {
		t.Fatalf("expected one counted view, got %d then %d", first.Post.ViewCount, second.Post.ViewCount)
	}

	_, _ = f.svc.Get(context.Background(), ports.GetPostInput{IDOrSlug: d.Post.ID, ViewerID: author.ID})
	if f.posts.views != 1 {
		t.Fatalf("author views must not be counted, got %d", f.posts.views)
	}
}

func TestPostService_Get_DedupFailureCountsView(t *testing.T) {
	f := newPostFixture()
	f.views.err = errors.New("redis down")
	author := f.users.add("alice")
	d := f.create(t, author.ID, "Viewed", true)

	got, err := f.svc.Get(context.Background(), ports.GetPostInput{IDOrSlug: d.Post.ID, ClientIP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Post.ViewCount != 1 {
		t.Fatalf("expected fail-open view count, got %d", got.Post.ViewCount)
	}
}

func TestPostService_Get_UnpublishedOnlyForAuthor(t *testing.T) {
	f := newPostFixture()
	author := f.users.add("alice")
	other := f.users.add("bob")
	d := f.create(t, author.ID, "Draft", false)

	if _, err := f.svc.Get(context.Background(), ports.GetPostInput{IDOrSlug: d.Post.ID, ViewerID: other.ID}); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected draft hidden from others, got %v", err)
	}
	if _, err := f.svc.Get(context.Background(), ports.GetPostInput{IDOrSlug: d.Post.ID, ViewerID: author.ID}); err != nil {
		t.Fatalf("author should see own draft: %v", err)
	}
}

func TestPostService_Update_Ownership(t *testing.T) {
	f := newPostFixture()
	author := f.users.add("alice")
	other := f.users.add("bob")
	d := f.create(t, author.ID, "Original", true)

	_, err := f.svc.Update(context.Background(), ports.UpdatePostInput{PostID: d.Post.ID, CallerID: other.ID, Title: "Hijack", Content: "x"})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	_, err = f.svc.Update(context.Background(), ports.UpdatePostInput{PostID: domain.NewID(), CallerID: author.ID, Title: "x", Content: "x"})
	if !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}

	published := false
	updated, err := f.svc.Update(context.Background(), ports.UpdatePostInput{
		PostID: d.Post.ID, CallerID: author.ID, Title: "Renamed", Content: "new", IsPublished: &published,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Post.Title != "Renamed" || updated.Post.IsPublished {
		t.Fatalf("update not applied: %+v", updated.Post)
	}
	if updated.Post.Slug != "original" {
		t.Fatalf("slug must stay fixed, got %s", updated.Post.Slug)
	}
}

func TestPostService_Update_ReplacesImage(t *testing.T) {
	f := newPostFixture()
	author := f.users.add("alice")
	old := "11111111-1111-1111-1111-111111111111.png"
	f.images.files[old] = pngHeader
	d := f.create(t, author.ID, "Pic", true)
	f.posts.posts[d.Post.ID].FeaturedImage = old

	updated, err := f.svc.Update(context.Background(), ports.UpdatePostInput{
		PostID: d.Post.ID, CallerID: author.ID, Title: "Pic", Content: "x",
		Image: &ports.ImageUpload{Filename: "b.png", Size: int64(len(pngHeader)), Body: bytes.NewReader(pngHeader)},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Post.FeaturedImage == old {
		t.Fatalf("image not replaced")
	}
	if _, ok := f.images.files[old]; ok {
		t.Fatalf("old image should be removed")
	}
}

func TestPostService_Delete(t *testing.T) {
	f := newPostFixture()
	author := f.users.add("alice")
	other := f.users.add("bob")
	d := f.create(t, author.ID, "Doomed", true)

	if err := f.svc.Delete(context.Background(), d.Post.ID, other.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := f.svc.Delete(context.Background(), d.Post.ID, author.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), ports.GetPostInput{IDOrSlug: d.Post.ID}); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected deleted post to be gone by id, got %v", err)
	}
	if _, err := f.svc.Get(context.Background(), ports.GetPostInput{IDOrSlug: d.Post.Slug}); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected deleted post to be gone by slug, got %v", err)
	}
	if err := f.svc.Delete(context.Background(), d.Post.ID, author.ID); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound on second delete, got %v", err)
	}
}

func TestPostService_AddComment(t *testing.T) {
	f := newPostFixture()
	author := f.users.add("alice")
	commenter := f.users.add("bob")
	d := f.create(t, author.ID, "Discuss", true)

	c, err := f.svc.AddComment(context.Background(), d.Post.ID, commenter.ID, "  nice post  ")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if c.Content != "nice post" || c.Author.Name != "bob" {
		t.Fatalf("unexpected comment: %+v", c)
	}

	got, _ := f.svc.Get(context.Background(), ports.GetPostInput{IDOrSlug: d.Post.ID})
	if len(got.Comments) != 1 || got.Comments[0].ID != c.ID || got.Comments[0].Author.Name != "bob" {
		t.Fatalf("comment not visible: %+v", got.Comments)
	}

	if _, err := f.svc.AddComment(context.Background(), d.Post.ID, commenter.ID, strings.Repeat("x", 501)); !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := f.svc.AddComment(context.Background(), domain.NewID(), commenter.ID, "hi"); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestPostService_List_CachesUntilWrite(t *testing.T) {
	f := newPostFixture()
	author := f.users.add("alice")
	f.create(t, author.ID, "One", true)

	p := query.Params{Page: 1, PageSize: 10}
	first, err := f.svc.List(context.Background(), p)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if first.Total != 1 {
		t.Fatalf("expected 1, got %d", first.Total)
	}

	// Bypass the service so the cache is the only thing that changed.
	_ = f.posts.Create(context.Background(), &domain.Post{ID: domain.NewID(), Slug: "sneaky", Title: "Sneaky", IsPublished: true, CreatedAt: time.Now()})
	cached, _ := f.svc.List(context.Background(), p)
	if cached.Total != 1 {
		t.Fatalf("expected cached result, got total %d", cached.Total)
	}

	f.create(t, author.ID, "Two", true)
	fresh, _ := f.svc.List(context.Background(), p)
	if fresh.Total != 3 {
		t.Fatalf("expected cache to be invalidated, got total %d", fresh.Total)
	}
}

func TestPostService_List_SkipsCacheWhenWriteRaces(t *testing.T) {
	f := newPostFixture()
	author := f.users.add("alice")
	f.create(t, author.ID, "One", true)

	cache := newStubCache()
	svc := NewPostService(f.posts, f.cats, f.users, NewImageService(f.images, 1024, nopLog), racingCache{cache}, f.views, nopLog)
	if _, err := svc.List(context.Background(), query.Params{Page: 1, PageSize: 10}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cache.entries) != 0 {
		t.Fatalf("expected result computed before invalidation to be dropped, got %d entries", len(cache.entries))
	}
}

func TestPostService_Search(t *testing.T) {
	f := newPostFixture()
	author := f.users.add("alice")
	for i := 0; i < 12; i++ {
		f.create(t, author.ID, "Dragon tale", true)
	}
	f.create(t, author.ID, "Dragon draft", false)

	items, err := f.svc.Search(context.Background(), "dragon", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != DefaultSearchLimit {
		t.Fatalf("expected default limit, got %d", len(items))
	}

	if _, err := f.svc.Search(context.Background(), "   ", 5); !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
