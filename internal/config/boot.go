package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Boot holds the process settings read from the environment before the site INI is loaded.
type Boot struct {
	Addr          string `envconfig:"PIPERBLOG_ADDR" default:":8080"`
	ConfigPath    string `envconfig:"PIPERBLOG_CONFIG" default:"config/config.ini"`
	AdminINIPath  string `envconfig:"PIPERBLOG_ADMIN_INI" default:"config/admin.ini"`
	LangDir       string `envconfig:"PIPERBLOG_LANG_DIR" default:"config/lang"`
	SessionSecret string `envconfig:"PIPERBLOG_SESSION_SECRET" required:"true"`
	CookieSecure  bool   `envconfig:"PIPERBLOG_COOKIE_SECURE" default:"false"`
	LogLevel      string `envconfig:"PIPERBLOG_LOG_LEVEL" default:"info"`
	LogFormat     string `envconfig:"PIPERBLOG_LOG_FORMAT" default:"json"`
}

// LoadBoot reads an optional .env file and then the environment.
func LoadBoot() (*Boot, error) {
	_ = godotenv.Load()
	var b Boot
	if err := envconfig.Process("", &b); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

func (b *Boot) Validate() error {
	if len(b.SessionSecret) < 32 {
		return fmt.Errorf("PIPERBLOG_SESSION_SECRET must be at least 32 bytes")
	}
	switch b.LogFormat {
	case "json", "pretty":
	default:
		return fmt.Errorf("PIPERBLOG_LOG_FORMAT must be json or pretty, got %q", b.LogFormat)
	}
	return nil
}
