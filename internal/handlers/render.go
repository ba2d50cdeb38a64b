package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"time"

	"piperblog/internal/constants"
	"piperblog/internal/services"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

var partials = []string{
	"partials/_flash.html",
	"partials/_pagination.html",
	"partials/_comment.html",
	"partials/_admin_nav.html",
}

var templateFuncs = template.FuncMap{
	"formatDate": formatDate,
	"dict":       dict,
	"humanSize":  humanSize,
	"isSelected": func(id uint, ref *uint) bool { return ref != nil && *ref == id },
	"list":       func(items ...string) []string { return items },
}

// NewRenderer parses every page together with its layout and the shared partials.
func NewRenderer(templatesFS fs.FS) (multitemplate.Renderer, error) {
	r := multitemplate.NewRenderer()

	add := func(name string, files ...string) error {
		files = append(files, partials...)
		tpl, err := template.New(path.Base(files[0])).Funcs(templateFuncs).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parse template %s: %w", name, err)
		}
		r.Add(name, tpl)
		return nil
	}

	pages := []struct {
		name   string
		layout string
	}{
		{"index.html", "layout.html"},
		{"post.html", "layout.html"},
		{"login.html", "layout.html"},
		{"setup.html", "layout.html"},
		{"error.html", "layout.html"},
		{"admin/dashboard.html", "admin_layout.html"},
		{"admin/posts.html", "admin_layout.html"},
		{"admin/post_new.html", "admin_layout.html"},
		{"admin/post_edit.html", "admin_layout.html"},
		{"admin/comments.html", "admin_layout.html"},
		{"admin/categories.html", "admin_layout.html"},
		{"admin/files.html", "admin_layout.html"},
		{"admin/settings.html", "admin_layout.html"},
	}
	for _, p := range pages {
		if err := add(p.name, p.layout, p.name); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// render merges the request-scoped values into data and renders the page.
func render(c *gin.Context, status int, templateName string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	site := SiteFrom(c)
	languages, _ := c.Get(constants.ContextKeyLanguages)
	defaults := gin.H{
		"Site":      site,
		"T":         Translator(c),
		"Identity":  CurrentIdentity(c),
		"CSRF":      CSRFToken(c),
		"Languages": languages,
		"Path":      c.Request.URL.Path,
		"HasTheme":  site.Theme.CustomCSS != "",
	}
	for key, value := range defaults {
		if _, ok := data[key]; !ok {
			data[key] = value
		}
	}
	if t := Translator(c); t != nil {
		data["Lang"] = t.Locale()
	}

	session := sessions.Default(c)
	success := session.Flashes(constants.FlashSuccess)
	failure := session.Flashes(constants.FlashError)
	if len(success) > 0 || len(failure) > 0 {
		session.Save()
	}
	data["FlashSuccess"] = success
	data["FlashError"] = failure

	c.HTML(status, templateName, data)
}

// renderError shows the error page, or a JSON error for API requests, and aborts.
func renderError(c *gin.Context, status int, key string) {
	if wantsJSON(c) {
		c.AbortWithStatusJSON(status, gin.H{"status": "error", "message": T(c, key)})
		return
	}
	render(c, status, "error.html", gin.H{"Status": status, "Message": key})
	c.Abort()
}

// flash stores a translation key shown once on the next rendered page.
func flash(c *gin.Context, kind, key string) {
	session := sessions.Default(c)
	session.AddFlash(key, kind)
	session.Save()
}

func redirectWithFlash(c *gin.Context, location, kind, key string) {
	flash(c, kind, key)
	c.Redirect(http.StatusSeeOther, location)
}

var errorKeys = []struct {
	err error
	key string
}{
	{services.ErrPostNotFound, "error.post_not_found"},
	{services.ErrTitleRequired, "error.title_required"},
	{services.ErrInvalidStatus, "error.invalid_status"},
	{services.ErrInvalidAction, "error.invalid_action"},
	{services.ErrInvalidFormat, "error.invalid_format"},
	{services.ErrInvalidHeroImage, "error.invalid_hero_image"},
	{services.ErrCommentNotFound, "error.comment_not_found"},
	{services.ErrNameRequired, "error.name_required"},
	{services.ErrContentRequired, "error.content_required"},
	{services.ErrCommentTooLong, "error.comment_too_long"},
	{services.ErrInvalidEmail, "error.invalid_email"},
	{services.ErrSpamCheckFailed, "error.spam_check"},
	{services.ErrInvalidParent, "error.invalid_parent"},
	{services.ErrCommentsNotAllowed, "error.comments_closed"},
	{services.ErrCategoryNotFound, "error.category_not_found"},
	{services.ErrCategoryNameRequired, "error.category_name_required"},
	{services.ErrCategoryExists, "error.category_exists"},
	{services.ErrInvalidCredentials, "error.invalid_credentials"},
	{services.ErrSetupComplete, "error.setup_complete"},
	{services.ErrPasswordTooShort, "error.password_too_short"},
	{services.ErrPasswordMismatch, "error.password_mismatch"},
	{services.ErrUnknownTab, "error.unknown_tab"},
	{services.ErrUnsupportedLanguage, "error.unsupported_language"},
	{services.ErrInvalidSetting, "error.invalid_setting"},
	{services.ErrInvalidFileName, "error.invalid_file_name"},
	{services.ErrFileNotFound, "error.file_not_found"},
	{services.ErrFileTooLarge, "error.file_too_large"},
	{services.ErrFileType, "error.file_type"},
}

// errorKey maps a service error to its message key. Unknown errors are internal.
func errorKey(err error) (string, bool) {
	for _, e := range errorKeys {
		if errors.Is(err, e.err) {
			return e.key, true
		}
	}
	return "error.internal", false
}

func formatDate(v interface{}) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	}
	return ""
}

func dict(pairs ...interface{}) (map[string]interface{}, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.New("dict needs key/value pairs")
	}
	m := make(map[string]interface{}, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
