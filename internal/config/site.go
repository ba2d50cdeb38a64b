package config

import (
	"fmt"
	"strconv"
)

// Site is the typed view of config.ini. Each nested struct is one INI section.
type Site struct {
	Database DatabaseConfig `ini:"database"`
	App      AppConfig      `ini:"app"`
	Email    EmailConfig    `ini:"email"`
	Theme    ThemeConfig    `ini:"theme"`
	System   SystemConfig   `ini:"system"`
	Debug    DebugConfig    `ini:"debug"`
	Logs     LogsConfig     `ini:"logs"`
	Storage  StorageConfig  `ini:"storage"`
}

type DatabaseConfig struct {
	Driver   string `ini:"driver"`
	Path     string `ini:"path"`
	Host     string `ini:"host"`
	Port     int    `ini:"port"`
	Name     string `ini:"name"`
	User     string `ini:"user"`
	Password string `ini:"password"`
	SSLMode  string `ini:"sslmode"`
}

type AppConfig struct {
	Title        string `ini:"title"`
	Description  string `ini:"description"`
	Lang         string `ini:"lang"`
	URL          string `ini:"url"`
	PostsPerPage int    `ini:"posts_per_page"`
}

type EmailConfig struct {
	Enabled    bool   `ini:"enabled"`
	Host       string `ini:"host"`
	Port       int    `ini:"port"`
	Username   string `ini:"username"`
	Password   string `ini:"password"`
	Encryption string `ini:"encryption"`
	From       string `ini:"from"`
	NotifyTo   string `ini:"notify_to"`
}

type ThemeConfig struct {
	CustomCSS string `ini:"custom_css"`
}

type SystemConfig struct {
	SoftDelete  bool `ini:"soft_delete"`
	DeleteFiles bool `ini:"delete_files"`
	AutoCleanup bool `ini:"auto_cleanup"`
}

type DebugConfig struct {
	Enabled bool `ini:"enabled"`
}

type LogsConfig struct {
	Enabled bool `ini:"enabled"`
}

type StorageConfig struct {
	Driver        string `ini:"driver"`
	Dir           string `ini:"dir"`
	PublicURL     string `ini:"public_url"`
	MaxUploadMB   int    `ini:"max_upload_mb"`
	MaxImageWidth int    `ini:"max_image_width"`
	S3Endpoint    string `ini:"s3_endpoint"`
	S3Region      string `ini:"s3_region"`
	S3Bucket      string `ini:"s3_bucket"`
	S3AccessKey   string `ini:"s3_access_key"`
	S3SecretKey   string `ini:"s3_secret_key"`
}

// Default returns the values used for keys missing from config.ini.
func Default() Site {
	return Site{
		Database: DatabaseConfig{Driver: "sqlite", Path: "data/piperblog.db", SSLMode: "disable"},
		App: AppConfig{
			Title:        "PiperBlog",
			Description:  "A small blog",
			Lang:         "en",
			PostsPerPage: 10,
		},
		Email:   EmailConfig{Port: 587, Encryption: "tls"},
		System:  SystemConfig{SoftDelete: true, AutoCleanup: false},
		Logs:    LogsConfig{Enabled: true},
		Storage: StorageConfig{Driver: "local", Dir: "uploads", PublicURL: "/uploads", MaxUploadMB: 10, MaxImageWidth: 1600},
	}
}

func (s *Site) Validate() error {
	switch s.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("database.driver: unsupported driver %q", s.Database.Driver)
	}
	switch s.Storage.Driver {
	case "local", "s3":
	default:
		return fmt.Errorf("storage.driver: unsupported driver %q", s.Storage.Driver)
	}
	switch s.Email.Encryption {
	case "tls", "ssl", "none":
	default:
		return fmt.Errorf("email.encryption: must be tls, ssl or none, got %q", s.Email.Encryption)
	}
	if s.App.PostsPerPage <= 0 {
		s.App.PostsPerPage = 10
	}
	return nil
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		port := d.Port
		if port == 0 {
			port = 5432
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, port, d.User, d.Password, d.Name, d.SSLMode)
	case "mysql":
		port := d.Port
		if port == 0 {
			port = 3306
		}
		// clientFoundRows makes RowsAffected count matched rows, not changed ones.
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&clientFoundRows=true",
			d.User, d.Password, d.Host+":"+strconv.Itoa(port), d.Name)
	}
	return d.Path
}
