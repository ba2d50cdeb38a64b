// Command piperctl performs maintenance tasks that do not need the web server.
//
//	piperctl hash-password            print an admin.ini block for a password read from stdin
//	piperctl create-user -user NAME   create or replace a database user
//	piperctl purge-spam               delete spam comments older than 30 days
//	piperctl import-markdown -dir D   import Markdown files with YAML front matter
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"piperblog/internal/config"
	"piperblog/internal/logger"
	"piperblog/internal/models"
	"piperblog/internal/repository"
	"piperblog/internal/sanitizer"
	"piperblog/internal/services"
	"piperblog/internal/utils"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	log := logger.New(envOr("PIPERBLOG_LOG_LEVEL", "warn"), "pretty")

	var err error
	switch os.Args[1] {
	case "hash-password":
		err = hashPassword(os.Stdin, os.Stdout)
	case "create-user":
		err = createUser(os.Args[2:], os.Stdin, log)
	case "purge-spam":
		err = purgeSpam(os.Args[2:], log)
	case "import-markdown":
		err = importMarkdown(os.Args[2:], log)
	case "-h", "--help", "help":
		usage(os.Stdout)
		return
	default:
		usage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: piperctl <hash-password|create-user|purge-spam|import-markdown> [flags]")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	password := strings.TrimRight(line, "\r\n")
	if len([]rune(password)) < services.MinPasswordLength {
		return "", services.ErrPasswordTooShort
	}
	return password, nil
}

func hashPassword(r io.Reader, w io.Writer) error {
	password, err := readPassword(r)
	if err != nil {
		return err
	}
	hash, err := services.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "[admin]\nusername = admin\npassword_hash = %s\n", hash)
	return err
}

// env is a site config plus an open database connection.
type env struct {
	store *config.Store
	db    *gorm.DB
	log   zerolog.Logger
}

func openEnv(configPath string, log zerolog.Logger) (*env, error) {
	store, err := config.NewStore(configPath)
	if err != nil {
		return nil, err
	}
	db, err := utils.InitDatabase(store.Site().Database, false, log)
	if err != nil {
		return nil, err
	}
	return &env{store: store, db: db, log: log}, nil
}

func (e *env) Close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func createUser(args []string, stdin io.Reader, log zerolog.Logger) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	configPath := fs.String("config", envOr("PIPERBLOG_CONFIG", "config/config.ini"), "site config file")
	username := fs.String("user", "", "username")
	email := fs.String("email", "", "email address")
	role := fs.String("role", models.RoleAdmin, "admin or editor")
	if err := fs.Parse(args); err != nil {
		return err
	}

	password, err := readPassword(stdin)
	if err != nil {
		return err
	}
	e, err := openEnv(*configPath, log)
	if err != nil {
		return err
	}
	defer e.Close()

	users := repository.NewUserRepository(e.db)
	auth := services.NewAuthService(users, "", log)
	if err := auth.CreateUser(context.Background(), *username, *email, password, *role); err != nil {
		return err
	}
	fmt.Printf("user %q saved with role %s\n", *username, *role)
	return nil
}

func purgeSpam(args []string, log zerolog.Logger) error {
	fs := flag.NewFlagSet("purge-spam", flag.ExitOnError)
	configPath := fs.String("config", envOr("PIPERBLOG_CONFIG", "config/config.ini"), "site config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := openEnv(*configPath, log)
	if err != nil {
		return err
	}
	defer e.Close()

	settings := services.NewSettingService(e.store, nil, log)
	comments := services.NewCommentService(repository.NewCommentRepository(e.db), repository.NewPostRepository(e.db), sanitizer.New(), settings, nil, log)
	n, err := comments.PurgeSpam(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("deleted %d spam comments\n", n)
	return nil
}
