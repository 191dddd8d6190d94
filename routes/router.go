package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cppla/blogapi/config"
	"github.com/cppla/blogapi/controllers"
	"github.com/cppla/blogapi/middleware"
	"github.com/cppla/blogapi/services"
	"github.com/cppla/blogapi/store"
	"github.com/cppla/blogapi/utils"
)

// Dependencies are the collaborators the router wires into controllers.
type Dependencies struct {
	Store     store.Store
	Tokens    *utils.TokenService
	Hasher    services.PasswordHasher
	Blacklist *utils.TokenBlacklist
	// BlogOptions are passed to the blog service, e.g. a fixed clock in tests.
	BlogOptions []services.BlogOption
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, deps Dependencies) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file when configured, else to the app logger
	gl := utils.Logger
	if cfg.GinPath != "" {
		if l, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress); err == nil {
			gl = l
		} else {
			utils.Sugar.Warnf("gin log file %s unavailable: %v", cfg.GinPath, err)
		}
	}
	r.Use(utils.Ginzap(gl, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(gl, true))

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Blogging API is running")
	})
	r.GET("/health", func(c *gin.Context) {
		utils.Respond(c, http.StatusOK, gin.H{"status": "ok"})
	})

	if deps.Blacklist == nil {
		deps.Blacklist = utils.NewTokenBlacklist(nil)
	}
	accounts := services.NewAccountService(deps.Store, deps.Hasher, deps.Tokens)
	blogs := services.NewBlogService(deps.Store, deps.Store, deps.BlogOptions...)

	authController := controllers.NewAuthController(accounts, deps.Tokens, deps.Blacklist)
	postController := controllers.NewPostController(blogs)
	authRequired := middleware.AuthRequired(deps.Tokens, deps.Blacklist)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute))
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", authRequired, authController.Logout)
	authGroup.GET("/me", authRequired, authController.Me)

	blogsGroup := api.Group("/blogs")
	blogsGroup.GET("", postController.ListPosts)
	blogsGroup.GET("/:id", postController.GetPost)
	blogsGroup.POST("", authRequired, postController.CreatePost)
	blogsGroup.PUT("/:id", authRequired, postController.UpdatePost)
	blogsGroup.DELETE("/:id", authRequired, postController.DeletePost)
	blogsGroup.POST("/:id/comments", authRequired, postController.CreateComment)
	blogsGroup.DELETE("/:id/comments/:commentId", authRequired, postController.DeleteComment)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, "Route not found")
	})

	return r
}
