// Package storage keeps uploaded files on local disk or in an S3 compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"piperblog/internal/config"
)

var ErrNotFound = errors.New("file not found")

// Object describes one stored file.
type Object struct {
	Name    string
	Size    int64
	ModTime time.Time
	URL     string
}

// Storage is implemented by Local and S3. Names are flat keys without directories.
type Storage interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]Object, error)
	URL(name string) string
}

// New builds the backend selected by [storage] driver.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocal(cfg.Dir, cfg.PublicURL)
	case "s3":
		return NewS3(ctx, cfg)
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
}
