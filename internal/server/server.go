// Package server contains the HTTP handlers for the application's endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "inkwell/docs" // swagger docs
	"inkwell/internal/authz"
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// httpMetrics registers the HTTP collectors once per process.
func httpMetrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New("inkwell")
	})
	return prom
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	policy         authz.Policy

	userRepo    repository.UserRepository
	groupRepo   repository.GroupRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository

	feedService         *service.FeedService
	postService         *service.PostService
	commentService      *service.CommentService
	relationshipService *service.RelationshipService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := database.ApplySchema(context.Background(), db, cfg); err != nil {
		return nil, fmt.Errorf("schema setup failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, cache.InitRedis(cfg.RedisURL))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil redisClient leaves the page cache and rate limiter in their
// in-process fallbacks.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: httpMetrics(),
		policy:         authz.Policy{LoginURL: cfg.LoginURL},
		userRepo:       repository.NewUserRepository(db),
		groupRepo:      repository.NewGroupRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		followRepo:     repository.NewFollowRepository(db),
	}

	s.relationshipService = service.NewRelationshipService(s.followRepo, s.userRepo)
	s.postService = service.NewPostService(s.postRepo, s.groupRepo)
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo)
	s.feedService = service.NewFeedService(
		s.postRepo, s.commentRepo, s.groupRepo, s.userRepo,
		s.relationshipService,
		cache.NewPageCache(redisClient),
		service.FeedConfig{
			PostsPerPage: cfg.PostsPerPage,
			CacheTTL:     time.Duration(cfg.CacheTimeSeconds) * time.Second,
		},
	)

	return s, nil
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "Inkwell",
		BodyLimit:    (s.config.ImageMaxUploadMB + 1) * 1024 * 1024,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}

	middleware.LoggerFromContext(c.UserContext()).Error("unhandled request error",
		zap.String("path", c.Path()), zap.Error(err))
	observability.CaptureError(err, map[string]string{
		"path":   c.Path(),
		"method": c.Method(),
	})
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Identity must run before the context middleware so user_id reaches the logs.
	app.Use(middleware.Identify(middleware.IdentityConfig{
		Secret: s.config.JWTSecret,
		Issuer: s.config.JWTIssuer,
	}, s.userRepo.Upsert))
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.limitsEnabled()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  "RATE_LIMITED",
			})
		},
	}))
}

func (s *Server) limitsEnabled() bool {
	return s.config.Env != "test" && s.config.Env != "development"
}

func (s *Server) rateLimit(name string, limit int, window time.Duration) fiber.Handler {
	return middleware.RateLimit(s.redis, middleware.RateLimitConfig{
		Name:     name,
		Limit:    limit,
		Window:   window,
		Disabled: !s.limitsEnabled(),
	})
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Inkwell Metrics Dashboard",
	}))
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Reads
	app.Get("/", s.Gate(authz.OpRead, nil), s.Index)
	app.Get("/group/:slug", s.Gate(authz.OpRead, nil), s.GroupPosts)
	app.Get("/profile/:username", s.Gate(authz.OpRead, nil), s.Profile)
	app.Get("/posts/:id", s.Gate(authz.OpRead, nil), s.PostDetail)

	// Post authoring
	app.Get("/create", s.Gate(authz.OpCreatePost, nil), s.CreatePostForm)
	app.Post("/create", s.Gate(authz.OpCreatePost, nil),
		s.rateLimit("create_post", 10, time.Minute), s.CreatePost)
	app.Get("/posts/:id/edit", s.Gate(authz.OpEditPost, s.postOwner), s.EditPostForm)
	app.Post("/posts/:id/edit", s.Gate(authz.OpEditPost, s.postOwner), s.EditPost)

	app.Post("/posts/:id/comment", s.Gate(authz.OpComment, nil),
		s.rateLimit("create_comment", 20, time.Minute), s.AddComment)

	// Subscriptions
	app.Get("/follow", s.Gate(authz.OpFollowFeed, nil), s.FollowIndex)
	app.Post("/profile/:username/follow", s.Gate(authz.OpFollow, nil),
		s.rateLimit("follow", 30, time.Minute), s.ProfileFollow)
	app.Post("/profile/:username/unfollow", s.Gate(authz.OpUnfollow, nil),
		s.rateLimit("follow", 30, time.Minute), s.ProfileUnfollow)

	admin := app.Group("/admin")
	admin.Post("/cache/flush", s.Gate(authz.OpFlushCache, nil), s.FlushCache)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: without
// it the page cache and limiter run in-process and readiness reports degraded.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	switch {
	case dbStatus != "healthy":
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	case redisStatus != "healthy":
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", zap.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", zap.Error(err))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", zap.Error(cerr))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", zap.Error(rerr))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
