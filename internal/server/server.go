package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"anoa.com/socialforum/internal/config"
	"anoa.com/socialforum/internal/entity"
	"anoa.com/socialforum/internal/middleware"
	"anoa.com/socialforum/internal/scheduler"
	"anoa.com/socialforum/pkg/content"
	"anoa.com/socialforum/pkg/password"
	"anoa.com/socialforum/pkg/ratelimiter"
	"anoa.com/socialforum/pkg/storage"

	adminHttp "anoa.com/socialforum/internal/modules/admin/delivery/http"
	adminService "anoa.com/socialforum/internal/modules/admin/service"

	commentHttp "anoa.com/socialforum/internal/modules/comment/delivery/http"
	commentRepo "anoa.com/socialforum/internal/modules/comment/repository"
	commentService "anoa.com/socialforum/internal/modules/comment/service"

	notiHttp "anoa.com/socialforum/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/socialforum/internal/modules/notification/repository"
	notifService "anoa.com/socialforum/internal/modules/notification/service"

	postHttp "anoa.com/socialforum/internal/modules/post/delivery/http"
	postRepo "anoa.com/socialforum/internal/modules/post/repository"
	postService "anoa.com/socialforum/internal/modules/post/service"

	searchService "anoa.com/socialforum/internal/modules/search/service"

	tokenRepo "anoa.com/socialforum/internal/modules/token/repository"
	tokenService "anoa.com/socialforum/internal/modules/token/service"

	userHttp "anoa.com/socialforum/internal/modules/user/delivery/http"
	userRepo "anoa.com/socialforum/internal/modules/user/repository"
	userService "anoa.com/socialforum/internal/modules/user/service"

	viewService "anoa.com/socialforum/internal/modules/view/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const tokenPurgeJob = "refresh-token-purge"

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	tokens      tokenService.TokenService

	purgeSchedule string
}

// NewServer wires every module. redisClient, meiliClient and imageStorage are
// optional; a nil value disables the feature built on it.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, meiliClient meilisearch.ServiceManager, imageStorage storage.ImageStorage) (*Server, error) {
	renderer := content.NewRenderer()
	userRepo := userRepo.NewUserRepository(db)

	tokenSvc, err := tokenService.NewTokenService(tokenRepo.NewRefreshTokenRepository(db), tokenService.Options{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		return nil, err
	}

	var meiliSvc searchService.MeiliSearchService
	if meiliClient != nil {
		meiliSvc = searchService.NewMeiliSearchService(meiliClient, renderer)
	}

	authSvc := userService.NewAuthService(userRepo, tokenSvc, password.DefaultParams)
	authHandler := userHttp.NewAuthHandler(authSvc, cfg.IsProduction())

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc)

	postRepo := postRepo.NewPostRepository(db)
	viewSvc := viewService.NewViewService(redisClient)
	postCooldown := ratelimiter.NewCooldown(redisClient, "post", cfg.RateLimitPost)
	postSvc := postService.NewPostService(postRepo, userRepo, notificationSvc, meiliSvc, imageStorage, viewSvc, renderer, postCooldown)
	postHandler := postHttp.NewPostHandler(postSvc)

	commentCooldown := ratelimiter.NewCooldown(redisClient, "comment", cfg.RateLimitComment)
	commentSvc := commentService.NewCommentService(commentRepo.NewCommentRepository(db), postRepo, notificationSvc, renderer, commentCooldown)
	commentHandler := commentHttp.NewCommentHandler(commentSvc)

	adminSvc := adminService.NewAdminService(userRepo, postRepo, tokenSvc)
	adminHandler := adminHttp.NewAdminHandler(adminSvc, postSvc)

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/health"},
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authMiddleware := middleware.NewAuthMiddleware(tokenSvc, userRepo)
	requireAuth := authMiddleware.RequireAuth()
	optionalAuth := authMiddleware.OptionalAuth()

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", requireAuth, authHandler.Me)
	}

	posts := api.Group("/posts")
	{
		posts.GET("/feed", postHandler.GetFeed)
		posts.GET("/search", postHandler.SearchPosts)
		posts.GET("/user/my-posts", requireAuth, postHandler.GetMyPosts)
		posts.GET("/user/:userId", optionalAuth, postHandler.GetUserPosts)
		posts.GET("/:id", optionalAuth, postHandler.GetPostByID)
		posts.POST("", requireAuth, postHandler.CreatePost)
		posts.PUT("/:id", requireAuth, postHandler.UpdatePost)
		posts.DELETE("/:id", requireAuth, postHandler.DeletePost)
		posts.POST("/:id/like", requireAuth, postHandler.ToggleLike)
	}

	comments := api.Group("/comments")
	{
		comments.GET("/post/:postId", optionalAuth, commentHandler.GetComments)
		comments.POST("", requireAuth, commentHandler.CreateComment)
		comments.PUT("/:id", requireAuth, commentHandler.UpdateComment)
		comments.DELETE("/:id", requireAuth, commentHandler.DeleteComment)
		comments.POST("/:id/like", requireAuth, commentHandler.ToggleLike)
	}

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(requireAuth)
	{
		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.DELETE("/notifications/:id", notificationHandler.DeleteNotification)

		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireRole(entity.RoleAdmin))
		{
			adminGroup.GET("/posts/pending", adminHandler.GetPendingPosts)
			adminGroup.PUT("/posts/:id/approve", adminHandler.ApprovePost)
			adminGroup.PUT("/posts/:id/reject", adminHandler.RejectPost)
			adminGroup.GET("/users", adminHandler.GetUsers)
			adminGroup.PUT("/users/:userId/role", adminHandler.UpdateUserRole)
			adminGroup.PUT("/users/:userId/status", adminHandler.UpdateUserStatus)
			adminGroup.GET("/statistics", adminHandler.GetStatistics)
		}
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		tokens:      tokenSvc,

		purgeSchedule: cfg.TokenPurgeSchedule,
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// StartBackgroundJobs schedules periodic maintenance. Callers stop the
// returned scheduler on shutdown.
func (s *Server) StartBackgroundJobs(ctx context.Context) (*scheduler.Scheduler, error) {
	jobs := scheduler.New()

	err := jobs.Register(ctx, scheduler.Job{
		Name:     tokenPurgeJob,
		Schedule: s.purgeSchedule,
		Run: func(ctx context.Context) error {
			n, err := s.tokens.PurgeExpired(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				log.Printf("🧹 Purged %d expired refresh tokens", n)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	jobs.Start()
	return jobs, nil
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
