package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"piperblog/internal/config"
	"piperblog/internal/constants"
	"piperblog/internal/i18n"
	"piperblog/internal/metrics"
	"piperblog/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// LanguageOption is one entry of the language switcher.
type LanguageOption struct {
	Code string
	Name string
}

// ContextMiddleware places the request-scoped values every page needs into the
// gin context: a config snapshot, the translator, the identity and the CSRF token.
func ContextMiddleware(settings *services.SettingService, bundle *i18n.Bundle, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		site := settings.Site()
		c.Set(constants.ContextKeySite, site)

		session := sessions.Default(c)
		dirty := false

		if lang := c.Query("lang"); lang != "" && bundle.Has(lang) {
			session.Set(constants.SessionKeyLang, lang)
			dirty = true
		}
		lang, _ := session.Get(constants.SessionKeyLang).(string)
		c.Set(constants.ContextKeyTranslator, bundle.Translator(lang, site.App.Lang))

		var languages []LanguageOption
		for _, code := range bundle.Available() {
			languages = append(languages, LanguageOption{Code: code, Name: bundle.Name(code)})
		}
		c.Set(constants.ContextKeyLanguages, languages)

		if id := identityFromSession(session); id != nil {
			c.Set(constants.ContextKeyIdentity, id)
		}

		token, _ := session.Get(constants.SessionKeyCSRF).(string)
		if token == "" {
			token = newCSRFToken()
			session.Set(constants.SessionKeyCSRF, token)
			dirty = true
		}
		c.Set(constants.ContextKeyCSRFToken, token)

		if dirty {
			if err := session.Save(); err != nil {
				log.Error().Err(err).Msg("failed to save session")
			}
		}
		c.Next()
	}
}

// AuthMiddleware sends anonymous visitors to the login page.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentIdentity(c) == nil {
			if wantsJSON(c) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": T(c, "error.login_required")})
				return
			}
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole lets through only identities holding role. Run it after AuthMiddleware.
func RequireRole(role string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := CurrentIdentity(c)
		if id == nil || id.Role != role {
			if id != nil {
				log.Warn().Str("user", id.Username).Str("path", c.Request.URL.Path).Msg("role required")
			}
			renderError(c, http.StatusForbidden, "error.forbidden")
			return
		}
		c.Next()
	}
}

// CSRFMiddleware rejects state-changing requests whose token does not match
// the session token. It runs before any handler can mutate data.
func CSRFMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		expected := CSRFToken(c)
		sent := c.GetHeader(constants.CSRFHeader)
		if sent == "" {
			sent = c.PostForm(constants.CSRFFormField)
		}
		if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(sent)) != 1 {
			metrics.CSRFRejected.Inc()
			log.Warn().Str("path", c.Request.URL.Path).Str("client_ip", c.ClientIP()).Msg("CSRF token mismatch")
			renderError(c, http.StatusForbidden, "error.csrf")
			return
		}
		c.Next()
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests while [logs] enabled is set.
func loggingMiddleware(settings *services.SettingService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if !settings.Site().Logs.Enabled {
			return
		}
		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

func newCSRFToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

func identityFromSession(session sessions.Session) *services.Identity {
	username, _ := session.Get(constants.SessionKeyUsername).(string)
	if username == "" {
		return nil
	}
	id, _ := session.Get(constants.SessionKeyUserID).(uint)
	role, _ := session.Get(constants.SessionKeyRole).(string)
	source, _ := session.Get(constants.SessionKeyAuthSource).(string)
	return &services.Identity{ID: id, Username: username, Role: role, Source: source}
}

// startSession replaces the session contents with a fresh identity and CSRF
// token. The language choice survives.
func startSession(c *gin.Context, id *services.Identity) error {
	session := sessions.Default(c)
	lang := session.Get(constants.SessionKeyLang)
	session.Clear()
	if lang != nil {
		session.Set(constants.SessionKeyLang, lang)
	}
	session.Set(constants.SessionKeyUserID, id.ID)
	session.Set(constants.SessionKeyUsername, id.Username)
	session.Set(constants.SessionKeyRole, id.Role)
	session.Set(constants.SessionKeyAuthSource, id.Source)
	token := newCSRFToken()
	session.Set(constants.SessionKeyCSRF, token)
	c.Set(constants.ContextKeyCSRFToken, token)
	c.Set(constants.ContextKeyIdentity, id)
	return session.Save()
}

// SiteFrom returns the config snapshot taken for this request.
func SiteFrom(c *gin.Context) config.Site {
	if v, ok := c.Get(constants.ContextKeySite); ok {
		if site, ok := v.(config.Site); ok {
			return site
		}
	}
	return config.Default()
}

func Translator(c *gin.Context) *i18n.Translator {
	if v, ok := c.Get(constants.ContextKeyTranslator); ok {
		if t, ok := v.(*i18n.Translator); ok {
			return t
		}
	}
	return nil
}

// T translates key for the current request.
func T(c *gin.Context, key string, args ...string) string {
	if t := Translator(c); t != nil {
		return t.T(key, args...)
	}
	return key
}

func CurrentIdentity(c *gin.Context) *services.Identity {
	if v, ok := c.Get(constants.ContextKeyIdentity); ok {
		if id, ok := v.(*services.Identity); ok {
			return id
		}
	}
	return nil
}

func CSRFToken(c *gin.Context) string {
	return c.GetString(constants.ContextKeyCSRFToken)
}

func wantsJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/admin/api/") ||
		strings.Contains(c.GetHeader("Accept"), "application/json") ||
		strings.HasPrefix(c.ContentType(), "application/json")
}
