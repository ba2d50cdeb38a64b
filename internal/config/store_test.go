package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/ini.v1"
)

func writeINI(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.ini")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMissingFileUsesDefaults(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "absent.ini"))
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	site := s.Site()
	if site.Database.Driver != "sqlite" || site.App.PostsPerPage != 10 || !site.System.SoftDelete {
		t.Errorf("unexpected defaults: %+v", site)
	}
}

func TestStoreUpdateMergesAndReloads(t *testing.T) {
	path := writeINI(t, "[app]\ntitle = Old\nlang = de\n\n[custom]\nkeep = yes\n")

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	if got := s.Site().App; got.Title != "Old" || got.Lang != "de" {
		t.Fatalf("loaded app section = %+v", got)
	}

	err = s.Update(Delta{
		"app":    {"title": "New"},
		"system": {"soft_delete": "false", "auto_cleanup": "true"},
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	site := s.Site()
	if site.App.Title != "New" || site.App.Lang != "de" {
		t.Errorf("app after update = %+v", site.App)
	}
	if site.System.SoftDelete || !site.System.AutoCleanup {
		t.Errorf("system after update = %+v", site.System)
	}

	f, err := ini.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := f.Section("custom").Key("keep").String(); got != "yes" {
		t.Errorf("unrelated key lost, custom.keep = %q", got)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Site().App.Title != "New" {
		t.Errorf("rewritten file not persisted: %+v", reopened.Site().App)
	}
}

func TestStoreUpdateRejectsInvalidValues(t *testing.T) {
	path := writeINI(t, "[database]\ndriver = sqlite\n")
	s, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Update(Delta{"database": {"driver": "oracle"}}); err == nil {
		t.Fatal("Update() accepted an unsupported driver")
	}
	if s.Site().Database.Driver != "sqlite" {
		t.Errorf("cache changed after rejected update: %q", s.Site().Database.Driver)
	}
	raw, _ := os.ReadFile(path)
	if strings.Contains(string(raw), "oracle") {
		t.Errorf("file rewritten after rejected update: %s", raw)
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		cfg  DatabaseConfig
		want string
	}{
		{DatabaseConfig{Driver: "sqlite", Path: "blog.db"}, "blog.db"},
		{DatabaseConfig{Driver: "postgres", Host: "db", User: "u", Password: "p", Name: "blog", SSLMode: "disable"},
			"host=db port=5432 user=u password=p dbname=blog sslmode=disable"},
		{DatabaseConfig{Driver: "mysql", Host: "db", Port: 3307, User: "u", Password: "p", Name: "blog"},
			"u:p@tcp(db:3307)/blog?charset=utf8mb4&parseTime=True&loc=Local&clientFoundRows=true"},
	}
	for _, tt := range tests {
		if got := tt.cfg.DSN(); got != tt.want {
			t.Errorf("DSN(%s) = %q, want %q", tt.cfg.Driver, got, tt.want)
		}
	}
}

func TestBootValidate(t *testing.T) {
	b := Boot{SessionSecret: "short", LogFormat: "json"}
	if err := b.Validate(); err == nil {
		t.Error("short session secret accepted")
	}
	b.SessionSecret = strings.Repeat("x", 32)
	if err := b.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
	b.LogFormat = "xml"
	if err := b.Validate(); err == nil {
		t.Error("unknown log format accepted")
	}
}
