// Command seed fills the configured Mongo database with demo users,
// categories, posts and comments.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/inkwell/blog/internal/core/service"
	"github.com/inkwell/blog/internal/infrastructure/db/mongo"
	"github.com/inkwell/blog/internal/pkg/config"
	"github.com/inkwell/blog/pkg/logger"
)

func main() {
	users := flag.Int("users", 10, "number of users to create besides the admin")
	posts := flag.Int("posts", 40, "number of posts to create")
	comments := flag.Int("comments", 5, "maximum comments per published post")
	admin := flag.String("admin", "admin@example.com", "email of the admin account")
	password := flag.String("password", "password123", "password for every seeded account")
	seed := flag.Int64("seed", 0, "random seed; 0 picks one from the clock")
	flag.Parse()

	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "blog-seed"})

	if cfg.DBDriver != config.DriverMongo {
		log.Fatal().Str("driver", cfg.DBDriver).Msg("seeding needs DB_DRIVER=mongo")
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	ctx := context.Background()
	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect")
	}
	defer func() { _ = client.Disconnect(ctx) }()
	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("ensure indexes")
	}

	userRepo := mongo.NewUserRepository(db)
	postRepo := mongo.NewPostRepository(db)
	catRepo := mongo.NewCategoryRepository(db)
	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	s := &seeder{
		auth:       service.NewAuthService(userRepo, tokens, append(cfg.AdminEmails, *admin), log),
		categories: service.NewCategoryService(catRepo, nil, log),
		posts:      service.NewPostService(postRepo, catRepo, userRepo, nil, nil, nil, log),
		faker:      gofakeit.New(*seed),
		log:        log,
	}

	sum, err := s.run(ctx, seedOptions{
		AdminEmail:  *admin,
		Password:    *password,
		Users:       *users,
		Posts:       *posts,
		MaxComments: *comments,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
	log.Info().
		Int("users", sum.Users).
		Int("categories", sum.Categories).
		Int("posts", sum.Posts).
		Int("comments", sum.Comments).
		Int64("seed", *seed).
		Msg("database seeded")
}
