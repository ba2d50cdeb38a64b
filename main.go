package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"piperblog/internal/config"
	"piperblog/internal/handlers"
	"piperblog/internal/i18n"
	"piperblog/internal/logger"
	"piperblog/internal/repository"
	"piperblog/internal/sanitizer"
	"piperblog/internal/services"
	"piperblog/internal/storage"
	"piperblog/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// Global filesystems that will be populated by either assets_dev.go or assets_prod.go at startup.
var templatesFS fs.FS
var staticFS fs.FS

const sessionMaxAge = 7 * 24 * 60 * 60

func main() {
	boot, err := config.LoadBoot()
	if err != nil {
		bootLog := logger.New("info", "json")
		bootLog.Fatal().Err(err).Msg("invalid environment")
	}
	log := logger.New(boot.LogLevel, boot.LogFormat)

	store, err := config.NewStore(boot.ConfigPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", boot.ConfigPath).Msg("failed to load site config")
	}
	site := store.Site()
	if !site.Debug.Enabled {
		gin.SetMode(gin.ReleaseMode)
	}

	bundle, err := i18n.LoadDir(boot.LangDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load language files")
	}

	db, err := utils.InitDatabase(site.Database, site.Debug.Enabled, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", site.Database.Driver).Msg("failed to initialize database")
	}

	ctx := context.Background()
	files, err := storage.New(ctx, site.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("driver", site.Storage.Driver).Msg("failed to initialize storage")
	}

	// Repositories
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Services
	san := sanitizer.New()
	settingService := services.NewSettingService(store, bundle, log)
	mailService := services.NewMailService(settingService, log)
	fileService := services.NewFileService(files, settingService, log)
	postService := services.NewPostService(postRepo, categoryRepo, san, settingService, fileService, log)
	commentService := services.NewCommentService(commentRepo, postRepo, san, settingService, mailService, log)
	categoryService := services.NewCategoryService(categoryRepo, postRepo, log)
	authService := services.NewAuthService(userRepo, boot.AdminINIPath, log)
	statsService := services.NewStatsService(postRepo, commentRepo, categoryRepo, userRepo, log)

	if authService.FileAdminConfigured() {
		log.Info().Str("path", boot.AdminINIPath).Msg("file administrator configured")
	} else if needs, err := authService.NeedsSetup(ctx); err == nil && needs {
		log.Warn().Msg("no administrator yet, open /setup to create one")
	}

	renderer, err := handlers.NewRenderer(templatesFS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse templates")
	}

	sessionStore := cookie.NewStore([]byte(boot.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   boot.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	limiter := handlers.NewLoginLimiter(5, 15*time.Minute)
	defer limiter.Stop()

	router := handlers.NewRouter(handlers.Dependencies{
		Posts:        postService,
		Comments:     commentService,
		Categories:   categoryService,
		Auth:         authService,
		Files:        fileService,
		Settings:     settingService,
		Stats:        statsService,
		Storage:      files,
		Bundle:       bundle,
		Renderer:     renderer,
		SessionStore: sessionStore,
		StaticFS:     staticFS,
		Limiter:      limiter,
		Log:          log,
	})

	srv := &http.Server{
		Addr:              boot.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", boot.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}
