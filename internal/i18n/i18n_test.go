package i18n

import (
	"os"
	"path/filepath"
	"testing"
)

func writeLangDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"en.ini": "[meta]\nname = English\n\n[auth]\ninvalid = Invalid credentials\nwelcome = Welcome, {name}!\n\n[nav]\nhome = Home\nposts = Posts\n",
		"de.ini": "[meta]\nname = Deutsch\n\n[auth]\ninvalid = Ungültige Zugangsdaten\n\n[nav]\nhome = Startseite\n",
		"fr.ini": "[nav]\nhome = Accueil\n",
		"notes.txt": "ignored",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestFallbackChain(t *testing.T) {
	b, err := LoadDir(writeLangDir(t))
	if err != nil {
		t.Fatalf("LoadDir() error: %v", err)
	}

	tests := []struct {
		name, locale, def, key, want string
	}{
		{"requested locale", "de", "en", "nav.home", "Startseite"},
		{"falls back to default", "fr", "de", "auth.invalid", "Ungültige Zugangsdaten"},
		{"falls back to english", "fr", "fr", "nav.posts", "Posts"},
		{"unknown key returns key", "de", "en", "nav.missing", "nav.missing"},
		{"region resolves to base", "de-AT", "en", "nav.home", "Startseite"},
		{"unknown locale uses default", "xx", "de", "nav.home", "Startseite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := b.Translator(tt.locale, tt.def)
			if got := tr.T(tt.key); got != tt.want {
				t.Errorf("T(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestPlaceholders(t *testing.T) {
	b, err := LoadDir(writeLangDir(t))
	if err != nil {
		t.Fatal(err)
	}
	got := b.Translator("en", "en").T("auth.welcome", "name", "Ada")
	if got != "Welcome, Ada!" {
		t.Errorf("T() = %q", got)
	}
}

func TestBundleMetadata(t *testing.T) {
	b, err := LoadDir(writeLangDir(t))
	if err != nil {
		t.Fatal(err)
	}
	if got := b.Available(); len(got) != 3 || got[0] != "de" || got[1] != "en" || got[2] != "fr" {
		t.Errorf("Available() = %v", got)
	}
	if b.Name("de") != "Deutsch" || b.Name("fr") != "fr" {
		t.Errorf("Name() = %q, %q", b.Name("de"), b.Name("fr"))
	}
	if !b.Has("DE") || b.Has("xx") {
		t.Error("Has() gave wrong answer")
	}
	if tr := b.Translator("xx", "de"); tr.Locale() != "de" {
		t.Errorf("Locale() = %q, want de", tr.Locale())
	}
}

func TestCatalogFirstDefinitionWins(t *testing.T) {
	c := NewCatalog()
	c.Add("a.b", "first")
	c.Add("a.b", "second")
	c.Add("a", "prefix")
	if got, _ := c.Lookup("a.b"); got != "first" {
		t.Errorf("Lookup(a.b) = %q", got)
	}
	if got, ok := c.Lookup("a"); !ok || got != "prefix" {
		t.Errorf("Lookup(a) = %q, %v", got, ok)
	}
	if _, ok := c.Lookup("a."); ok {
		t.Error("Lookup(a.) found an inner trie node")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d", c.Len())
	}
}
