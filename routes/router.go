package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/snapgramhq/snapgram/config"
	"github.com/snapgramhq/snapgram/controllers"
	"github.com/snapgramhq/snapgram/middleware"
	"github.com/snapgramhq/snapgram/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}
	r.Use(middleware.RequestID())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Uploaded media is served straight off the media store.
	r.Static("/media", cfg.MediaRoot)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	postController := controllers.NewPostController(db)
	interactionController := controllers.NewInteractionController(db)
	adminController := controllers.NewAdminController(db)
	statsController := controllers.NewStatsController(db)

	// Identity
	signup := r.Group("/signup")
	signup.Use(middleware.RateLimitMiddleware())
	signup.GET("/", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"page": "signup"})
	})
	signup.POST("/", authController.Signup)

	login := r.Group("/login")
	login.Use(middleware.RateLimitMiddleware())
	login.POST("/", authController.Login)

	r.GET("/profile/", middleware.AuthRequired(), authController.Profile)
	r.POST("/logout/", middleware.AuthRequired(), authController.Logout)

	// Public feed; identity is resolved when present so liked_by_user works.
	r.GET("/", middleware.AuthOptional(), postController.Home)

	// Post CRUD, owner-scoped
	authed := r.Group("")
	authed.Use(middleware.AuthRequired())
	authed.GET("/create/", postController.NewPostPage)
	authed.POST("/create/", postController.CreatePost)
	authed.GET("/my-posts/", postController.MyPosts)
	authed.GET("/posts/:id/edit/", postController.EditPostPage)
	authed.POST("/posts/:id/edit/", postController.EditPost)
	authed.GET("/posts/:id/delete/", postController.DeletePostPage)
	authed.POST("/posts/:id/delete/", postController.DeletePost)

	// Like toggle and comments
	authed.POST("/posts/:id/like/", interactionController.ToggleLike)
	authed.POST("/posts/:id/comment/", interactionController.AddComment)

	// Operator surface
	api := r.Group("/api/v1")
	api.GET("/stats", statsController.GetStats)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	admin.GET("/posts", adminController.ListPosts)
	admin.GET("/comments", adminController.ListComments)

	return r
}
