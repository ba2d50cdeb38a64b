package services

import (
	"fmt"
	"net/mail"
	"net/url"
	"strconv"
	"strings"

	"piperblog/internal/config"
	"piperblog/internal/i18n"

	"github.com/rs/zerolog"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
)

// SettingsTabs lists the settings pages in display order.
var SettingsTabs = []string{"general", "language", "theme", "email", "database", "system", "debug", "storage"}

// restartTabs hold values that are only read at startup.
var restartTabs = map[string]bool{"database": true, "storage": true}

type SettingService struct {
	store    *config.Store
	bundle   *i18n.Bundle
	minifier *minify.M
	log      zerolog.Logger
}

func NewSettingService(store *config.Store, bundle *i18n.Bundle, log zerolog.Logger) *SettingService {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	return &SettingService{
		store:    store,
		bundle:   bundle,
		minifier: m,
		log:      log.With().Str("component", "settings").Logger(),
	}
}

// Site returns the cached site configuration.
func (s *SettingService) Site() config.Site {
	return s.store.Site()
}

// Languages returns the locales that have a catalog.
func (s *SettingService) Languages() []string {
	if s.bundle == nil {
		return nil
	}
	return s.bundle.Available()
}

// ThemeCSS returns the minified custom stylesheet.
func (s *SettingService) ThemeCSS() string {
	return s.store.Site().Theme.CustomCSS
}

// NeedsRestart reports whether changes on tab only apply after a restart.
func NeedsRestart(tab string) bool {
	return restartTabs[tab]
}

// ApplyTab validates the form of one settings tab and merges it into config.ini.
func (s *SettingService) ApplyTab(tab string, form url.Values) error {
	current := s.store.Site()
	var delta config.Delta

	switch tab {
	case "general":
		title := strings.TrimSpace(form.Get("title"))
		if title == "" {
			return ErrTitleRequired
		}
		perPage, err := intField(form, "posts_per_page", 1, 100)
		if err != nil {
			return err
		}
		delta = config.Delta{"app": {
			"title":          title,
			"description":    strings.TrimSpace(form.Get("description")),
			"url":            strings.TrimSpace(form.Get("url")),
			"posts_per_page": strconv.Itoa(perPage),
		}}
	case "language":
		lang := strings.TrimSpace(form.Get("lang"))
		if s.bundle == nil || !s.bundle.Has(lang) {
			return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
		}
		delta = config.Delta{"app": {"lang": lang}}
	case "theme":
		minified, err := s.minifier.String("text/css", form.Get("custom_css"))
		if err != nil {
			return fmt.Errorf("%w: custom_css: %v", ErrInvalidSetting, err)
		}
		delta = config.Delta{"theme": {"custom_css": minified}}
	case "email":
		port, err := intField(form, "port", 1, 65535)
		if err != nil {
			return err
		}
		enabled := checkbox(form, "enabled")
		from := strings.TrimSpace(form.Get("from"))
		notify := strings.TrimSpace(form.Get("notify_to"))
		if enabled {
			for _, addr := range []string{from, notify} {
				if _, err := mail.ParseAddress(addr); err != nil {
					return fmt.Errorf("%w: %q", ErrInvalidEmail, addr)
				}
			}
		}
		delta = config.Delta{"email": {
			"enabled":    strconv.FormatBool(enabled),
			"host":       strings.TrimSpace(form.Get("host")),
			"port":       strconv.Itoa(port),
			"username":   strings.TrimSpace(form.Get("username")),
			"password":   keepSecret(form.Get("password"), current.Email.Password),
			"encryption": form.Get("encryption"),
			"from":       from,
			"notify_to":  notify,
		}}
	case "database":
		port := 0
		if form.Get("port") != "" {
			p, err := intField(form, "port", 1, 65535)
			if err != nil {
				return err
			}
			port = p
		}
		delta = config.Delta{"database": {
			"driver":   form.Get("driver"),
			"path":     strings.TrimSpace(form.Get("path")),
			"host":     strings.TrimSpace(form.Get("host")),
			"port":     strconv.Itoa(port),
			"name":     strings.TrimSpace(form.Get("name")),
			"user":     strings.TrimSpace(form.Get("user")),
			"password": keepSecret(form.Get("password"), current.Database.Password),
			"sslmode":  strings.TrimSpace(form.Get("sslmode")),
		}}
	case "system":
		delta = config.Delta{"system": {
			"soft_delete":  strconv.FormatBool(checkbox(form, "soft_delete")),
			"delete_files": strconv.FormatBool(checkbox(form, "delete_files")),
			"auto_cleanup": strconv.FormatBool(checkbox(form, "auto_cleanup")),
		}}
	case "debug":
		delta = config.Delta{
			"debug": {"enabled": strconv.FormatBool(checkbox(form, "debug_enabled"))},
			"logs":  {"enabled": strconv.FormatBool(checkbox(form, "logs_enabled"))},
		}
	case "storage":
		maxMB, err := intField(form, "max_upload_mb", 1, 1024)
		if err != nil {
			return err
		}
		maxWidth, err := intField(form, "max_image_width", 0, 10000)
		if err != nil {
			return err
		}
		delta = config.Delta{"storage": {
			"driver":          form.Get("driver"),
			"dir":             strings.TrimSpace(form.Get("dir")),
			"public_url":      strings.TrimSpace(form.Get("public_url")),
			"max_upload_mb":   strconv.Itoa(maxMB),
			"max_image_width": strconv.Itoa(maxWidth),
			"s3_endpoint":     strings.TrimSpace(form.Get("s3_endpoint")),
			"s3_region":       strings.TrimSpace(form.Get("s3_region")),
			"s3_bucket":       strings.TrimSpace(form.Get("s3_bucket")),
			"s3_access_key":   strings.TrimSpace(form.Get("s3_access_key")),
			"s3_secret_key":   keepSecret(form.Get("s3_secret_key"), current.Storage.S3SecretKey),
		}}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}

	if err := s.store.Update(delta); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSetting, err)
	}
	s.log.Info().Str("tab", tab).Msg("settings updated")
	return nil
}

func checkbox(form url.Values, key string) bool {
	switch form.Get(key) {
	case "on", "1", "true", "yes":
		return true
	}
	return false
}

// keepSecret leaves a stored password unchanged when the form field is left empty.
func keepSecret(submitted, current string) string {
	if submitted == "" {
		return current
	}
	return submitted
}

func intField(form url.Values, key string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(form.Get(key)))
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("%w: %s must be between %d and %d", ErrInvalidSetting, key, lo, hi)
	}
	return v, nil
}
