package handlers

import (
	"io/fs"
	"net/http"
	"time"

	"piperblog/internal/constants"
	"piperblog/internal/i18n"
	"piperblog/internal/models"
	"piperblog/internal/services"
	"piperblog/internal/storage"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Dependencies is everything the router wires into handlers.
type Dependencies struct {
	Posts      *services.PostService
	Comments   *services.CommentService
	Categories *services.CategoryService
	Auth       *services.AuthService
	Files      *services.FileService
	Settings   *services.SettingService
	Stats      *services.StatsService

	Storage      storage.Storage
	Bundle       *i18n.Bundle
	Renderer     multitemplate.Renderer
	SessionStore sessions.Store
	StaticFS     fs.FS
	Limiter      *LoginLimiter
	Log          zerolog.Logger
}

// NewRouter creates and configures the Gin router
func NewRouter(d Dependencies) *gin.Engine {
	router := gin.New()
	router.HTMLRender = d.Renderer
	router.MaxMultipartMemory = 8 << 20

	router.Use(recoveryMiddleware(d.Log))
	router.Use(loggingMiddleware(d.Settings, d.Log))

	router.GET("/healthz", healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if d.StaticFS != nil {
		router.StaticFS("/static", http.FS(d.StaticFS))
	}

	blogHandler := NewBlogHandler(d.Posts, d.Comments, d.Categories, d.Log)
	authHandler := NewAuthHandler(d.Auth, d.Limiter, d.Log)
	adminHandler := NewAdminHandler(d.Stats)
	postHandler := NewPostHandler(d.Posts, d.Categories, d.Log)
	apiHandler := NewAPIHandler(d.Posts, d.Log)
	commentHandler := NewCommentAdminHandler(d.Comments, d.Log)
	categoryHandler := NewCategoryHandler(d.Categories, d.Log)
	fileHandler := NewFileHandler(d.Files, d.Storage, d.Log)
	settingsHandler := NewSettingsHandler(d.Settings, d.Log)

	router.GET("/theme.css", settingsHandler.ThemeCSS)
	router.GET("/uploads/*path", fileHandler.Serve)

	site := router.Group("/")
	site.Use(sessions.Sessions(constants.SessionName, d.SessionStore))
	site.Use(ContextMiddleware(d.Settings, d.Bundle, d.Log))
	site.Use(CSRFMiddleware(d.Log))
	{
		site.GET("/", blogHandler.Index)
		site.GET("/post/:slug", blogHandler.ShowPost)
		site.POST("/post/:slug/comments", blogHandler.SubmitComment)

		site.GET("/login", authHandler.ShowLoginPage)
		site.POST("/login", authHandler.Login)
		site.POST("/logout", authHandler.Logout)
		site.GET("/setup", authHandler.ShowSetupPage)
		site.POST("/setup", authHandler.Setup)
	}

	admin := site.Group("/admin")
	admin.Use(AuthMiddleware())
	{
		admin.GET("/", adminHandler.Dashboard)

		admin.GET("/posts", postHandler.List)
		admin.POST("/posts/action", postHandler.Action)
		admin.GET("/posts/new", postHandler.New)
		admin.POST("/posts/new", postHandler.Create)
		admin.GET("/posts/:id/edit", postHandler.Edit)
		admin.POST("/posts/:id", postHandler.Save)

		admin.GET("/api/posts/:id", apiHandler.GetPost)
		admin.POST("/api/posts/content", apiHandler.SaveContent)

		admin.GET("/comments", commentHandler.List)
		admin.POST("/comments/action", commentHandler.Action)

		admin.GET("/categories", categoryHandler.List)
		admin.POST("/categories", categoryHandler.Create)
		admin.POST("/categories/:id", categoryHandler.Rename)

		admin.GET("/files", fileHandler.List)
		admin.POST("/files", fileHandler.Upload)
	}

	// Site configuration and destructive file/category operations stay with administrators.
	owner := admin.Group("")
	owner.Use(RequireRole(models.RoleAdmin, d.Log))
	{
		owner.POST("/categories/:id/delete", categoryHandler.Delete)
		owner.POST("/files/delete", fileHandler.Delete)

		owner.GET("/settings", settingsHandler.Show)
		owner.POST("/settings", settingsHandler.Update)
	}

	router.NoRoute(sessions.Sessions(constants.SessionName, d.SessionStore), ContextMiddleware(d.Settings, d.Bundle, d.Log), blogHandler.NotFound)

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "piperblog",
	})
}
