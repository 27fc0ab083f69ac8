package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultTimeout = 10 * time.Second
	indexTimeout   = 30 * time.Second

	usersCollection      = "users"
	postsCollection      = "posts"
	categoriesCollection = "categories"
)

type Config struct {
	URI      string
	Database string
	// Timeout bounds server selection and the startup ping. Zero means
	// ten seconds.
	Timeout time.Duration
}

// Connect opens a client, pings the primary and returns the database the
// repositories work on.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName("blog-api").
		SetServerSelectionTimeout(timeout)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, client.Database(cfg.Database), nil
}

// Health is the readiness probe for client.
func Health(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}
}

// EnsureIndexes creates the unique indexes the repositories rely on for
// email, slug and category name uniqueness, plus the listing indexes.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	sets := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bsonKeys("email", 1), Options: options.Index().SetUnique(true)},
		},
		categoriesCollection: {
			{Keys: bsonKeys("name", 1), Options: options.Index().SetUnique(true)},
		},
		postsCollection: {
			{Keys: bsonKeys("slug", 1), Options: options.Index().SetUnique(true)},
			{Keys: bsonKeys("isPublished", 1, "createdAt", -1)},
			{Keys: bsonKeys("isPublished", 1, "category", 1, "createdAt", -1)},
			{Keys: bsonKeys("isPublished", 1, "viewCount", -1)},
		},
	}
	for coll, models := range sets {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// objectID parses a hex identifier; malformed input reports notFound so
// that lookups by a garbage id behave like lookups of a missing document.
func objectID(id string, notFound error) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, notFound
	}
	return oid, nil
}

// optionalObjectID maps "" to the zero value, which is stored as null.
func optionalObjectID(id string) *primitive.ObjectID {
	if id == "" {
		return nil
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	return &oid
}

func hexOrEmpty(oid *primitive.ObjectID) string {
	if oid == nil || oid.IsZero() {
		return ""
	}
	return oid.Hex()
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
