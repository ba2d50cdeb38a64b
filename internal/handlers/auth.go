package handlers

import (
	"errors"
	"net/http"

	"piperblog/internal/constants"
	"piperblog/internal/metrics"
	"piperblog/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type AuthHandler struct {
	authService *services.AuthService
	limiter     *LoginLimiter
	log         zerolog.Logger
}

func NewAuthHandler(authService *services.AuthService, limiter *LoginLimiter, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, limiter: limiter, log: log}
}

func (h *AuthHandler) ShowLoginPage(c *gin.Context) {
	if CurrentIdentity(c) != nil {
		c.Redirect(http.StatusFound, "/admin/")
		return
	}
	if needed, err := h.authService.NeedsSetup(c.Request.Context()); err == nil && needed {
		c.Redirect(http.StatusFound, "/setup")
		return
	}
	render(c, http.StatusOK, "login.html", gin.H{"Username": ""})
}

func (h *AuthHandler) Login(c *gin.Context) {
	ip := c.ClientIP()
	username := c.PostForm("username")

	if h.limiter != nil && !h.limiter.Allow(ip) {
		metrics.LoginAttempts.WithLabelValues("limited").Inc()
		h.log.Warn().Str("client_ip", ip).Msg("login rate limited")
		render(c, http.StatusTooManyRequests, "login.html", gin.H{"Error": "error.too_many_attempts", "Username": username})
		return
	}

	id, err := h.authService.Authenticate(c.Request.Context(), username, c.PostForm("password"))
	if err != nil {
		render(c, http.StatusUnauthorized, "login.html", gin.H{"Error": "error.invalid_credentials", "Username": username})
		return
	}
	if h.limiter != nil {
		h.limiter.Reset(ip)
	}

	if err := startSession(c, id); err != nil {
		h.log.Error().Err(err).Msg("failed to save session")
		renderError(c, http.StatusInternalServerError, "error.internal")
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin/")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	lang := session.Get(constants.SessionKeyLang)
	session.Clear()
	if lang != nil {
		session.Set(constants.SessionKeyLang, lang)
	}
	session.Save()
	c.Redirect(http.StatusSeeOther, "/login")
}

// ShowSetupPage offers first-run admin creation while no administrator exists.
func (h *AuthHandler) ShowSetupPage(c *gin.Context) {
	needed, err := h.authService.NeedsSetup(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("setup check failed")
		renderError(c, http.StatusInternalServerError, "error.internal")
		return
	}
	if !needed {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	render(c, http.StatusOK, "setup.html", gin.H{"MinLength": services.MinPasswordLength})
}

func (h *AuthHandler) Setup(c *gin.Context) {
	id, err := h.authService.Setup(c.Request.Context(), c.PostForm("password"), c.PostForm("password_confirm"))
	if errors.Is(err, services.ErrSetupComplete) {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	if err != nil {
		key, known := errorKey(err)
		if !known {
			h.log.Error().Err(err).Msg("setup failed")
			renderError(c, http.StatusInternalServerError, key)
			return
		}
		render(c, http.StatusUnprocessableEntity, "setup.html", gin.H{"Error": key, "MinLength": services.MinPasswordLength})
		return
	}

	if err := startSession(c, id); err != nil {
		h.log.Error().Err(err).Msg("failed to save session")
		renderError(c, http.StatusInternalServerError, "error.internal")
		return
	}
	redirectWithFlash(c, "/admin/", constants.FlashSuccess, "setup.done")
}
