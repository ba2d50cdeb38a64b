package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"os"
	"strings"
	"unicode/utf8"

	"piperblog/internal/metrics"
	"piperblog/internal/models"
	"piperblog/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/ini.v1"
	"gorm.io/gorm"
)

const (
	MinPasswordLength = 8
	setupUsername     = "admin"
)

// Identity sources stored in the session.
const (
	SourceFile  = "file"
	SourceDB    = "db"
	SourceSetup = "setup"
)

// dummyHash keeps the timing of unknown users close to that of wrong passwords.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("piperblog-dummy-password"), bcrypt.DefaultCost)

// Identity is the logged-in principal kept in the session.
type Identity struct {
	ID       uint
	Username string
	Role     string
	Source   string
}

func (id *Identity) IsAdmin() bool {
	return id != nil && id.Role == models.RoleAdmin
}

// AuthService checks the single admin from admin.ini first, then database users.
type AuthService struct {
	users    *repository.UserRepository
	adminINI string
	log      zerolog.Logger
}

func NewAuthService(users *repository.UserRepository, adminINI string, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		adminINI: adminINI,
		log:      log.With().Str("component", "auth").Logger(),
	}
}

type fileAdmin struct {
	Username     string
	PasswordHash string
}

// loadFileAdmin reads [admin] from admin.ini. A missing file means no file admin.
func (s *AuthService) loadFileAdmin() (*fileAdmin, error) {
	if s.adminINI == "" {
		return nil, nil
	}
	if _, err := os.Stat(s.adminINI); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	f, err := ini.Load(s.adminINI)
	if err != nil {
		return nil, err
	}
	sec := f.Section("admin")
	admin := &fileAdmin{
		Username:     strings.TrimSpace(sec.Key("username").String()),
		PasswordHash: strings.TrimSpace(sec.Key("password_hash").String()),
	}
	if admin.Username == "" || admin.PasswordHash == "" {
		return nil, nil
	}
	return admin, nil
}

// Authenticate returns the identity for valid credentials. Every rejection is
// reported as ErrInvalidCredentials regardless of which source refused it.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	admin, err := s.loadFileAdmin()
	if err != nil {
		s.log.Error().Err(err).Str("path", s.adminINI).Msg("cannot read admin file")
	}
	if admin != nil && subtle.ConstantTimeCompare([]byte(admin.Username), []byte(username)) == 1 {
		if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) == nil {
			metrics.LoginAttempts.WithLabelValues("success").Inc()
			s.log.Info().Str("user", username).Str("source", SourceFile).Msg("login")
			return &Identity{Username: admin.Username, Role: models.RoleAdmin, Source: SourceFile}, nil
		}
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Error().Err(err).Msg("user lookup failed")
		}
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.log.Info().Str("user", username).Str("source", SourceDB).Msg("login")
	return &Identity{ID: user.ID, Username: user.Username, Role: user.Role, Source: SourceDB}, nil
}

func (s *AuthService) FileAdminConfigured() bool {
	admin, err := s.loadFileAdmin()
	return err == nil && admin != nil
}

// NeedsSetup reports whether no administrator exists in either source.
func (s *AuthService) NeedsSetup(ctx context.Context) (bool, error) {
	if s.FileAdminConfigured() {
		return false, nil
	}
	n, err := s.users.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Setup creates the first administrator. It refuses once any admin exists.
func (s *AuthService) Setup(ctx context.Context, password, confirm string) (*Identity, error) {
	needed, err := s.NeedsSetup(ctx)
	if err != nil {
		return nil, err
	}
	if !needed {
		return nil, ErrSetupComplete
	}
	if err := checkPassword(password, confirm); err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	// An existing non-admin account named like the setup user is never taken over.
	if _, err := s.users.FindByUsername(ctx, setupUsername); err == nil {
		return nil, ErrSetupComplete
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	user := &models.User{Username: setupUsername, PasswordHash: hash, Role: models.RoleAdmin}
	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent setup won the unique username.
		s.log.Warn().Err(err).Msg("initial administrator not created")
		return nil, ErrSetupComplete
	}
	s.log.Info().Str("user", user.Username).Msg("initial administrator created")
	return &Identity{ID: user.ID, Username: user.Username, Role: user.Role, Source: SourceSetup}, nil
}

// CreateUser adds or replaces a database user.
func (s *AuthService) CreateUser(ctx context.Context, username, email, password, role string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrUsernameRequired
	}
	if role != models.RoleAdmin && role != models.RoleEditor {
		return ErrInvalidSetting
	}
	if err := checkPassword(password, password); err != nil {
		return err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return s.users.Upsert(ctx, &models.User{Username: username, Email: email, PasswordHash: hash, Role: role})
}

func checkPassword(password, confirm string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(confirm)) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
