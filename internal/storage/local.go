package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Local stores files in a single directory served under PublicURL.
type Local struct {
	dir       string
	publicURL string
}

func NewLocal(dir, publicURL string) (*Local, error) {
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if publicURL == "" {
		publicURL = "/uploads"
	}
	return &Local{dir: dir, publicURL: strings.TrimSuffix(publicURL, "/")}, nil
}

func (l *Local) Dir() string {
	return l.dir
}

// Path returns the file path for name, or "" when name is not a plain file name.
func (l *Local) Path(name string) string {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ""
	}
	return filepath.Join(l.dir, name)
}

func (l *Local) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	p := l.Path(name)
	if p == "" {
		return ErrNotFound
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(p)
		return err
	}
	return f.Close()
}

func (l *Local) Delete(ctx context.Context, name string) error {
	p := l.Path(name)
	if p == "" {
		return ErrNotFound
	}
	err := os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// List returns the stored files, newest first.
func (l *Local) List(ctx context.Context) ([]Object, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}
	var objects []Object
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		objects = append(objects, Object{
			Name:    e.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			URL:     l.URL(e.Name()),
		})
	}
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].ModTime.After(objects[j].ModTime)
	})
	return objects, nil
}

func (l *Local) URL(name string) string {
	return l.publicURL + "/" + name
}
