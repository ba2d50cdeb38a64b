package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/ini.v1"
)

// Delta is a set of section -> key -> value changes merged into config.ini.
type Delta map[string]map[string]string

// Store caches the parsed site config and rewrites the INI file on update.
type Store struct {
	path string
	mu   sync.RWMutex
	site Site
}

// NewStore loads path. A missing file yields the defaults; it is created on the first Update.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

// Site returns a snapshot of the cached config.
func (s *Store) Site() Site {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.site
}

// Reload re-reads the file into the cache.
func (s *Store) Reload() error {
	site, err := loadSite(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.site = site
	s.mu.Unlock()
	return nil
}

// Update merges delta into the file, keeping every key it does not mention,
// writes it back and reloads the cache.
func (s *Store) Update(delta Delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := ini.LooseLoad(s.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	for section, values := range delta {
		sec := f.Section(section)
		for key, value := range values {
			sec.Key(key).SetValue(value)
		}
	}

	candidate := Default()
	if err := f.MapTo(&candidate); err != nil {
		return fmt.Errorf("map %s: %w", s.path, err)
	}
	if err := candidate.Validate(); err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := f.SaveTo(tmp); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}

	s.site = candidate
	return nil
}

func loadSite(path string) (Site, error) {
	site := Default()
	f, err := ini.LooseLoad(path)
	if err != nil {
		return site, fmt.Errorf("read %s: %w", path, err)
	}
	if err := f.MapTo(&site); err != nil {
		return site, fmt.Errorf("map %s: %w", path, err)
	}
	if err := site.Validate(); err != nil {
		return site, err
	}
	return site, nil
}
