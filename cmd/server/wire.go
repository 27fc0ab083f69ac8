package main

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/inkwell/blog/internal/api"
	"github.com/inkwell/blog/internal/api/handler"
	"github.com/inkwell/blog/internal/api/middleware"
	"github.com/inkwell/blog/internal/core/ports"
	"github.com/inkwell/blog/internal/core/service"
	"github.com/inkwell/blog/internal/infrastructure/db/memory"
	"github.com/inkwell/blog/internal/infrastructure/db/mongo"
	"github.com/inkwell/blog/internal/infrastructure/db/redis"
	"github.com/inkwell/blog/internal/infrastructure/storage"
	"github.com/inkwell/blog/internal/pkg/config"
)

type application struct {
	echo    *echo.Echo
	closers []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

type repositories struct {
	users      ports.UserRepository
	posts      ports.PostRepository
	categories ports.CategoryRepository
}

func build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*application, error) {
	app := &application{}
	readiness := map[string]handler.Pinger{}

	repos, err := openRepositories(ctx, cfg, app, readiness, log)
	if err != nil {
		app.close()
		return nil, err
	}

	// Interfaces stay nil unless Redis is configured.
	var (
		cache   service.ListCache
		views   service.ViewDeduper
		limiter middleware.RateLimiter
	)
	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			app.close()
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = rdb.Close() })
		readiness["redis"] = redis.Health(rdb)

		cache = redis.NewListCache(rdb, cfg.Redis.CacheTTL)
		views = redis.NewViewDeduper(rdb)
		limiter = redis.NewRateCounter(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	} else {
		log.Warn().Msg("REDIS_ADDR not set; list cache, view de-duplication and rate limiting disabled")
	}

	store, err := openImageStore(ctx, cfg, log)
	if err != nil {
		app.close()
		return nil, err
	}

	proxies, err := cfg.TrustedProxyRanges()
	if err != nil {
		app.close()
		return nil, err
	}

	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	images := service.NewImageService(store, cfg.MaxUploadBytes, log.With().Str("component", "images").Logger())

	app.echo = api.NewRouter(api.Deps{
		Auth:           service.NewAuthService(repos.users, tokens, cfg.AdminEmails, log.With().Str("component", "auth").Logger()),
		Tokens:         tokens,
		Posts:          service.NewPostService(repos.posts, repos.categories, repos.users, images, cache, views, log.With().Str("component", "posts").Logger()),
		Categories:     service.NewCategoryService(repos.categories, cache, log.With().Str("component", "categories").Logger()),
		Images:         images,
		Limiter:        limiter,
		AuthRateLimit:  cfg.RateLimitAuth,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Readiness:      readiness,
		TrustedProxies: proxies,
		Log:            log,
	})
	return app, nil
}

func openRepositories(ctx context.Context, cfg *config.Config, app *application, readiness map[string]handler.Pinger, log zerolog.Logger) (repositories, error) {
	if cfg.DBDriver == config.DriverMemory {
		log.Warn().Msg("using in-memory store; data is lost on restart")
		s := memory.NewStore()
		return repositories{users: s.Users(), posts: s.Posts(), categories: s.Categories()}, nil
	}

	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return repositories{}, err
	}
	app.closers = append(app.closers, func() { _ = client.Disconnect(context.Background()) })
	readiness["mongo"] = mongo.Health(client)

	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		return repositories{}, err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("mongo connected")

	return repositories{
		users:      mongo.NewUserRepository(db),
		posts:      mongo.NewPostRepository(db),
		categories: mongo.NewCategoryRepository(db),
	}, nil
}

func openImageStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.ImageStore, error) {
	switch cfg.Storage.Driver {
	case config.StorageMinIO:
		m := cfg.Storage.MinIO
		store, err := storage.NewMinIOStore(storage.MinIOConfig{
			Endpoint:  m.Endpoint,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			Bucket:    m.Bucket,
			UseSSL:    m.UseSSL,
		}, log)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case config.StorageS3:
		s := cfg.Storage.S3
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Region:    s.Region,
			Bucket:    s.Bucket,
			AccessKey: s.AccessKey,
			SecretKey: s.SecretKey,
			Endpoint:  s.Endpoint,
			PathStyle: s.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StorageLocal:
		store, err := storage.NewLocalStore(cfg.Storage.UploadDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
