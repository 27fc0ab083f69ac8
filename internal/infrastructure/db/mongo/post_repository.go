package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/inkwell/blog/internal/core/domain"
	"github.com/inkwell/blog/internal/core/ports"
	"github.com/inkwell/blog/internal/core/query"
)

// PostRepository stores posts with their comments embedded, so appending a
// comment is a single atomic $push.
type PostRepository struct {
	coll *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{coll: db.Collection(postsCollection)}
}

type mongoComment struct {
	ID        primitive.ObjectID  `bson:"_id"`
	User      *primitive.ObjectID `bson:"user"`
	Content   string              `bson:"content"`
	CreatedAt time.Time           `bson:"createdAt"`
}

type mongoPost struct {
	ID            primitive.ObjectID  `bson:"_id"`
	Title         string              `bson:"title"`
	Slug          string              `bson:"slug"`
	Content       string              `bson:"content"`
	Excerpt       string              `bson:"excerpt,omitempty"`
	FeaturedImage string              `bson:"featuredImage,omitempty"`
	Category      *primitive.ObjectID `bson:"category"`
	Author        *primitive.ObjectID `bson:"author"`
	IsPublished   bool                `bson:"isPublished"`
	ViewCount     int64               `bson:"viewCount"`
	Comments      []mongoComment      `bson:"comments"`
	CreatedAt     time.Time           `bson:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt"`
}

type mongoPostSummary struct {
	ID            primitive.ObjectID  `bson:"_id"`
	Title         string              `bson:"title"`
	Slug          string              `bson:"slug"`
	Excerpt       string              `bson:"excerpt"`
	FeaturedImage string              `bson:"featuredImage"`
	CreatedAt     time.Time           `bson:"createdAt"`
	ViewCount     int64               `bson:"viewCount"`
	Author        *primitive.ObjectID `bson:"author"`
	Category      *primitive.ObjectID `bson:"category"`
	AuthorName    string              `bson:"authorName"`
	CategoryName  string              `bson:"categoryName"`
}

func toMongoPost(p *domain.Post) (mongoPost, error) {
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return mongoPost{}, fmt.Errorf("invalid post id %q", p.ID)
	}
	comments := make([]mongoComment, 0, len(p.Comments))
	for _, c := range p.Comments {
		comments = append(comments, toMongoComment(c))
	}
	return mongoPost{
		ID:            oid,
		Title:         p.Title,
		Slug:          p.Slug,
		Content:       p.Content,
		Excerpt:       p.Excerpt,
		FeaturedImage: p.FeaturedImage,
		Category:      optionalObjectID(p.CategoryID),
		Author:        optionalObjectID(p.AuthorID),
		IsPublished:   p.IsPublished,
		ViewCount:     p.ViewCount,
		Comments:      comments,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}, nil
}

func toMongoComment(c domain.Comment) mongoComment {
	oid, err := primitive.ObjectIDFromHex(c.ID)
	if err != nil {
		oid = primitive.NewObjectID()
	}
	return mongoComment{ID: oid, User: optionalObjectID(c.AuthorID), Content: c.Content, CreatedAt: c.CreatedAt}
}

func (mp *mongoPost) toDomain() *domain.Post {
	comments := make([]domain.Comment, len(mp.Comments))
	for i, c := range mp.Comments {
		comments[i] = domain.Comment{
			ID:        c.ID.Hex(),
			AuthorID:  hexOrEmpty(c.User),
			Content:   c.Content,
			CreatedAt: c.CreatedAt.UTC(),
		}
	}
	return &domain.Post{
		ID:            mp.ID.Hex(),
		Title:         mp.Title,
		Slug:          mp.Slug,
		Content:       mp.Content,
		Excerpt:       mp.Excerpt,
		FeaturedImage: mp.FeaturedImage,
		CategoryID:    hexOrEmpty(mp.Category),
		AuthorID:      hexOrEmpty(mp.Author),
		IsPublished:   mp.IsPublished,
		ViewCount:     mp.ViewCount,
		Comments:      comments,
		CreatedAt:     mp.CreatedAt.UTC(),
		UpdatedAt:     mp.UpdatedAt.UTC(),
	}
}

func (ms *mongoPostSummary) toDomain() domain.PostSummary {
	return domain.PostSummary{
		ID:            ms.ID.Hex(),
		Title:         ms.Title,
		Slug:          ms.Slug,
		Excerpt:       ms.Excerpt,
		FeaturedImage: ms.FeaturedImage,
		CreatedAt:     ms.CreatedAt.UTC(),
		ViewCount:     ms.ViewCount,
		AuthorID:      hexOrEmpty(ms.Author),
		AuthorName:    ms.AuthorName,
		CategoryID:    hexOrEmpty(ms.Category),
		CategoryName:  ms.CategoryName,
	}
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := toMongoPost(post)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	oid, err := objectID(id, domain.ErrPostNotFound)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *PostRepository) FindBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *PostRepository) findOne(ctx context.Context, filter bson.M) (*domain.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mp mongoPost
	if err := r.coll.FindOne(ctx, filter).Decode(&mp); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return mp.toDomain(), nil
}

func (r *PostRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return n > 0, nil
}

// UpdateOwned filters on both _id and author so the ownership check and
// the write are one operation.
func (r *PostRepository) UpdateOwned(ctx context.Context, id, authorID string, upd ports.PostUpdate) (*domain.Post, error) {
	oid, err := objectID(id, domain.ErrPostNotFound)
	if err != nil {
		return nil, err
	}
	author := optionalObjectID(authorID)
	if author == nil {
		return nil, r.missOrForbidden(ctx, oid)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mp mongoPost
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "author": *author},
		postUpdateDoc(upd),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&mp)
	if err != nil {
		if isNoDocuments(err) {
			return nil, r.missOrForbidden(ctx, oid)
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	return mp.toDomain(), nil
}

func (r *PostRepository) DeleteOwned(ctx context.Context, id, authorID string) (*domain.Post, error) {
	oid, err := objectID(id, domain.ErrPostNotFound)
	if err != nil {
		return nil, err
	}
	author := optionalObjectID(authorID)
	if author == nil {
		return nil, r.missOrForbidden(ctx, oid)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mp mongoPost
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid, "author": *author}).Decode(&mp); err != nil {
		if isNoDocuments(err) {
			return nil, r.missOrForbidden(ctx, oid)
		}
		return nil, fmt.Errorf("delete post: %w", err)
	}
	return mp.toDomain(), nil
}

// missOrForbidden explains why an owner-filtered write matched nothing.
func (r *PostRepository) missOrForbidden(ctx context.Context, oid primitive.ObjectID) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("check post: %w", err)
	}
	if n == 0 {
		return domain.ErrPostNotFound
	}
	return domain.ErrForbidden
}

func (r *PostRepository) AppendComment(ctx context.Context, postID string, comment domain.Comment) error {
	oid, err := objectID(postID, domain.ErrPostNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$push": bson.M{"comments": toMongoComment(comment)}},
	)
	if err != nil {
		return fmt.Errorf("append comment: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (r *PostRepository) IncrementViews(ctx context.Context, id string) error {
	oid, err := objectID(id, domain.ErrPostNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"viewCount": 1}})
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

// List counts all matches independently of the page, then fetches the page
// through the aggregation pipeline.
func (r *PostRepository) List(ctx context.Context, p query.Params) ([]domain.PostSummary, int64, error) {
	p = p.Normalize()
	filter, ok := listFilter(p)
	if !ok {
		return []domain.PostSummary{}, 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}
	if int64(p.Skip()) >= total {
		return []domain.PostSummary{}, total, nil
	}

	cur, err := r.coll.Aggregate(ctx, listPipeline(filter, p))
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	var docs []mongoPostSummary
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode posts: %w", err)
	}

	items := make([]domain.PostSummary, len(docs))
	for i := range docs {
		items[i] = docs[i].toDomain()
	}
	return items, total, nil
}
