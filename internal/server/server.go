// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"social/internal/cache"
	"social/internal/config"
	"social/internal/database"
	"social/internal/featureflags"
	"social/internal/mailer"
	"social/internal/middleware"
	"social/internal/models"
	"social/internal/notifications"
	"social/internal/prerender"
	"social/internal/repository"
	"social/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// Server holds all dependencies for the HTTP server
type Server struct {
	config         *config.Config
	db             *database.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	featureFlags   *featureflags.Manager
	index          *prerender.Index

	userRepo repository.UserRepository
	cache    *cache.Cache
	mailer   mailer.Sender
	notifier *notifications.Notifier
	hub      *notifications.Hub

	authService         *service.AuthService
	userService         *service.UserService
	mediaService        *service.MediaService
	postService         *service.PostService
	commentService      *service.CommentService
	voteService         *service.VoteService
	conversationService *service.ConversationService
	messageService      *service.MessageService

	closeMailer func()
}

// NewServer creates a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Redis is optional: without it there is no cache, revocation or
	// real-time delivery.
	redisClient := cache.Connect(cfg.RedisURL)

	sender, closeMailer, err := mailer.New(cfg)
	if err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	s := NewServerWithDeps(cfg, db, redisClient, sender)
	s.closeMailer = closeMailer
	return s, nil
}

// NewServerWithDeps creates a server from already opened dependencies.
// redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *database.DB, redisClient *redis.Client, sender mailer.Sender) *Server {
	flags := featureflags.NewManager(cfg.FeatureFlags)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("social-api"),
		featureFlags:   flags,
		index:          prerender.New(cfg.IndexDir),
		cache:          cache.New(redisClient),
		mailer:         sender,
		closeMailer:    func() {},
	}
	s.userRepo = repository.NewUserRepository(db.Users(),
		repository.WithVersionCheck(flags.For(featureflags.OptimisticSaves)))

	var events service.EventPublisher
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		s.hub = notifications.NewHub()
		events = s.notifier
	}

	store := service.NewStore(s.userRepo, s.cache)
	s.authService = service.NewAuthService(s.userRepo, s.cache, sender, cfg)
	s.userService = service.NewUserService(store)
	s.mediaService = service.NewMediaService(store)
	s.postService = service.NewPostService(store)
	s.commentService = service.NewCommentService(store)
	s.voteService = service.NewVoteService(store)
	s.conversationService = service.NewConversationService(store, events)
	s.messageService = service.NewMessageService(store, s.conversationService)

	return s
}

// ErrorHandler renders every error returned by a handler as the "fail"
// envelope.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	appErr := models.AsAppError(err)
	if appErr.Status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, appErr, !s.config.IsProduction())
}

// App builds the fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Social API",
		BodyLimit:    16 * 1024 * 1024,
		ErrorHandler: s.ErrorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" || origins == "*" {
		origins = "http://localhost:8080,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return &models.AppError{
				Name:    "RateLimitError",
				Status:  fiber.StatusTooManyRequests,
				Message: "Too many requests, please try again later.",
			}
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group(s.config.APIPath())
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Social API Metrics",
	}))

	auth := api.Group("/auth")
	auth.Post("/sign-up-now", middleware.RateLimit(s.redis, 5, 10*time.Minute, "signup"), s.SignUpNow)
	auth.Post("/sign-up", middleware.RateLimit(s.redis, 5, 10*time.Minute, "signup"), s.SignUp)
	auth.Get("/activate/:token", s.Activate)
	auth.Post("/sign-in", middleware.RateLimitWithPolicy(
		s.redis, 10, 5*time.Minute, middleware.FailOpen, "signin"), s.SignIn)
	auth.Delete("/sign-out", s.SignOut)

	protected := api.Group("", s.AuthRequired())
	protected.Get("/ws", s.WebsocketHandler())
	protected.Get("/feature-flags", s.GetFeatureFlags)

	users := protected.Group("/users")
	users.Get("/", s.GetUsers)
	users.Get("/:userId", s.GetUser)
	users.Patch("/:userId", s.PatchUser)
	users.Delete("/:userId", s.DeleteUser)

	media := users.Group("/:userId/media")
	media.Post("/", s.PostFile)
	media.Get("/", s.GetFiles)
	media.Delete("/", s.DeleteFiles)
	media.Get("/:fileId", s.GetFile)
	media.Patch("/:fileId", s.PatchFile)
	media.Delete("/:fileId", s.DeleteFile)
	s.feedbackRoutes(media.Group("/:fileId"))

	posts := users.Group("/:userId/posts")
	posts.Post("/", s.PostPost)
	posts.Get("/", s.GetPosts)
	posts.Get("/:postId", s.GetPost)
	posts.Patch("/:postId", s.PatchPost)
	posts.Delete("/:postId", s.DeletePost)
	s.feedbackRoutes(posts.Group("/:postId"))

	conversations := users.Group("/:userId/conversations")
	conversations.Post("/", s.PostConversation)
	conversations.Get("/", s.GetConversations)
	conversations.Delete("/", s.DeleteConversations)
	conversations.Get("/:conversationId", s.GetConversation)
	conversations.Patch("/:conversationId", s.PatchConversation)
	conversations.Delete("/:conversationId", s.DeleteConversation)

	messages := conversations.Group("/:conversationId/messages")
	messages.Post("/", middleware.RateLimit(s.redis, 30, time.Minute, "send_message"), s.PostMessage)
	messages.Get("/", s.GetMessages)
	messages.Get("/:messageId", s.GetMessage)
	messages.Delete("/:messageId", s.DeleteMessage)
}

// feedbackRoutes mounts the vote and comment trees shared by posts and media
// files under parent.
func (s *Server) feedbackRoutes(parent fiber.Router) {
	votes := parent.Group("/votes")
	votes.Post("/", s.PostVote)
	votes.Get("/", s.GetVotes)
	votes.Get("/:voteId", s.GetVote)
	votes.Patch("/:voteId", s.PatchVote)
	votes.Delete("/:voteId", s.DeleteVote)

	comments := parent.Group("/comments")
	comments.Post("/", s.PostComment)
	comments.Get("/", s.GetComments)
	comments.Get("/:commentId", s.GetComment)
	comments.Patch("/:commentId", s.PatchComment)
	comments.Delete("/:commentId", s.DeleteComment)

	commentVotes := comments.Group("/:commentId/votes")
	commentVotes.Post("/", s.PostVote)
	commentVotes.Get("/", s.GetVotes)
	commentVotes.Get("/:voteId", s.GetVote)
	commentVotes.Patch("/:voteId", s.PatchVote)
	commentVotes.Delete("/:voteId", s.DeleteVote)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so a
// missing client is reported but does not fail the probe.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := s.db.Ping(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start writes the id index, wires the websocket hub and serves until the
// app is shut down.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	if err := s.index.Write(ctx, s.userRepo); err != nil {
		middleware.Logger.Warn("failed to write id index", slog.String("error", err.Error()))
	}

	s.app = s.App()

	if s.notifier != nil && s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start notification wiring", slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("Server starting",
		slog.String("port", s.config.Port),
		slog.String("prefix", s.config.APIPath()),
	)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down hub", slog.String("error", err.Error()))
		}
	}

	s.closeMailer()

	if err := s.db.Close(ctx); err != nil {
		middleware.Logger.Error("error closing database", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
