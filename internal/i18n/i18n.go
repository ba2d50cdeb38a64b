// Package i18n loads translation catalogs from lang/<locale>.ini files and
// resolves messages with a locale fallback chain.
package i18n

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
)

// FallbackLocale is always the last catalog consulted before the key itself.
const FallbackLocale = "en"

type Bundle struct {
	catalogs map[string]*Catalog
	names    map[string]string
}

// LoadDir reads every *.ini file in dir. The file name without extension is the locale.
func LoadDir(dir string) (*Bundle, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read language dir: %w", err)
	}
	b := NewBundle()
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".ini" {
			continue
		}
		locale := normalize(strings.TrimSuffix(e.Name(), ".ini"))
		f, err := ini.Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", e.Name(), err)
		}
		b.AddFile(locale, f)
	}
	if len(b.catalogs) == 0 {
		return nil, fmt.Errorf("no language files in %s", dir)
	}
	return b, nil
}

func NewBundle() *Bundle {
	return &Bundle{
		catalogs: make(map[string]*Catalog),
		names:    make(map[string]string),
	}
}

// AddFile flattens an INI file into the catalog for locale. Keys in a named
// section become "section.key".
func (b *Bundle) AddFile(locale string, f *ini.File) {
	cat, ok := b.catalogs[locale]
	if !ok {
		cat = NewCatalog()
		b.catalogs[locale] = cat
	}
	for _, sec := range f.Sections() {
		prefix := ""
		if sec.Name() != ini.DefaultSection {
			prefix = sec.Name() + "."
		}
		for _, key := range sec.Keys() {
			cat.Add(prefix+key.Name(), key.Value())
		}
	}
	if name, ok := cat.Lookup("meta.name"); ok {
		b.names[locale] = name
	} else {
		b.names[locale] = locale
	}
}

// Has reports whether a catalog exists for locale.
func (b *Bundle) Has(locale string) bool {
	_, ok := b.catalogs[b.resolve(locale)]
	return ok
}

// Available returns the loaded locales, sorted.
func (b *Bundle) Available() []string {
	out := make([]string, 0, len(b.catalogs))
	for l := range b.catalogs {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Name returns the display name declared in the catalog's [meta] section.
func (b *Bundle) Name(locale string) string {
	if n, ok := b.names[b.resolve(locale)]; ok {
		return n
	}
	return locale
}

// resolve maps "de-AT" to "de" when only the base language is loaded.
func (b *Bundle) resolve(locale string) string {
	locale = normalize(locale)
	if _, ok := b.catalogs[locale]; ok {
		return locale
	}
	if i := strings.IndexByte(locale, '-'); i > 0 {
		return locale[:i]
	}
	return locale
}

// Translator returns a translator for locale falling back to defaultLocale and then English.
func (b *Bundle) Translator(locale, defaultLocale string) *Translator {
	t := &Translator{locale: FallbackLocale}
	seen := make(map[string]bool)
	for _, l := range []string{locale, defaultLocale, FallbackLocale} {
		l = b.resolve(l)
		cat, ok := b.catalogs[l]
		if !ok || seen[l] {
			continue
		}
		if len(t.chain) == 0 {
			t.locale = l
		}
		seen[l] = true
		t.chain = append(t.chain, cat)
	}
	return t
}

// Translator is immutable and safe to share between goroutines.
type Translator struct {
	locale string
	chain  []*Catalog
}

func (t *Translator) Locale() string {
	return t.locale
}

// T resolves key through the fallback chain. args are name/value pairs that
// replace {name} placeholders. An unknown key is returned unchanged.
func (t *Translator) T(key string, args ...string) string {
	msg := key
	if t != nil {
		for _, cat := range t.chain {
			if m, ok := cat.Lookup(key); ok {
				msg = m
				break
			}
		}
	}
	for i := 0; i+1 < len(args); i += 2 {
		msg = strings.ReplaceAll(msg, "{"+args[i]+"}", args[i+1])
	}
	return msg
}

func normalize(locale string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(locale)), "_", "-")
}
