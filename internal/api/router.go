package api

import (
	"net"
	"strconv"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/inkwell/blog/docs"
	"github.com/inkwell/blog/internal/api/handler"
	"github.com/inkwell/blog/internal/api/middleware"
	"github.com/inkwell/blog/internal/core/domain"
	"github.com/inkwell/blog/internal/core/ports"
)

const (
	authRateWindow = time.Minute
	// multipart framing on top of the image itself
	formOverhead     = 1 << 20
	defaultMaxUpload = 10 << 20
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Auth       ports.AuthService
	Tokens     ports.TokenVerifier
	Posts      ports.PostService
	Categories ports.CategoryService
	Images     ports.ImageService

	// Limiter backs the /auth rate limit; nil disables it.
	Limiter       middleware.RateLimiter
	AuthRateLimit int

	MaxUploadBytes int64
	Readiness      map[string]handler.Pinger

	// TrustedProxies are the ranges allowed to report the client address
	// through X-Forwarded-For.
	TrustedProxies []*net.IPNet

	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer prometheus.Registerer
	Log        zerolog.Logger
}

// NewRouter builds the Echo instance with every route registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.IPExtractor = middleware.IPExtractor(d.TrustedProxies)

	registerer := d.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomiddleware.CORS())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "blog",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	authRequired := middleware.Auth(d.Tokens)
	authOptional := middleware.OptionalAuth(d.Tokens)
	maxUpload := d.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	bodyLimit := echomiddleware.BodyLimit(strconv.FormatInt(maxUpload+formOverhead, 10))

	authHandler := handler.NewAuthHandler(d.Auth)
	postHandler := handler.NewPostHandler(d.Posts)
	categoryHandler := handler.NewCategoryHandler(d.Categories)
	uploadHandler := handler.NewUploadHandler(d.Images)

	// --- Auth routes ---
	auth := e.Group("/auth")
	limited := middleware.RateLimit(d.Limiter, "auth", d.AuthRateLimit, authRateWindow, d.Log)
	auth.POST("/register", authHandler.Register, limited)
	auth.POST("/login", authHandler.Login, limited)
	auth.GET("/me", authHandler.Me, authRequired)

	// --- Posts ---
	posts := e.Group("/posts")
	posts.GET("", postHandler.List)
	posts.GET("/search", postHandler.Search)
	posts.GET("/:idOrSlug", postHandler.Get, authOptional)
	posts.POST("", postHandler.Create, authRequired, bodyLimit)
	posts.PUT("/:id", postHandler.Update, authRequired, bodyLimit)
	posts.DELETE("/:id", postHandler.Delete, authRequired)
	posts.POST("/:id/comments", postHandler.AddComment, authRequired)

	// --- Categories ---
	e.GET("/categories", categoryHandler.List)
	e.POST("/categories", categoryHandler.Create, authRequired, middleware.RBAC(domain.RoleAdmin))

	e.GET("/uploads/:filename", uploadHandler.Serve)

	// --- Health probes, metrics and docs ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(d.Readiness).Readiness)
	e.GET("/metrics", metricsHandler(registerer))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func metricsHandler(r prometheus.Registerer) echo.HandlerFunc {
	if g, ok := r.(prometheus.Gatherer); ok {
		return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: g})
	}
	return echoprometheus.NewHandler()
}
