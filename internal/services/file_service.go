package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"piperblog/internal/storage"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
)

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".pdf": true, ".txt": true, ".zip": true,
}

// FileService manages the uploads shown on the admin files page.
type FileService struct {
	store    storage.Storage
	settings *SettingService
	log      zerolog.Logger
}

func NewFileService(store storage.Storage, settings *SettingService, log zerolog.Logger) *FileService {
	return &FileService{
		store:    store,
		settings: settings,
		log:      log.With().Str("component", "files").Logger(),
	}
}

func (s *FileService) List(ctx context.Context) ([]storage.Object, error) {
	return s.store.List(ctx)
}

// Upload stores a file under a collision-free key and returns that key.
// Images wider than the configured width are downscaled first.
func (s *FileService) Upload(ctx context.Context, filename string, r io.Reader, size int64) (string, error) {
	cfg := s.settings.Site().Storage
	limit := int64(cfg.MaxUploadMB) << 20
	if limit > 0 && size > limit {
		return "", ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrFileType, ext)
	}
	base := slug.Make(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if base == "" {
		base = "file"
	}
	name := uuid.NewString()[:8] + "_" + base + ext

	reader := r
	if storage.IsResizable(ext) {
		src := r
		if limit > 0 {
			src = io.LimitReader(r, limit+1)
		}
		data, err := io.ReadAll(src)
		if err != nil {
			return "", err
		}
		if limit > 0 && int64(len(data)) > limit {
			return "", ErrFileTooLarge
		}
		if resized, changed, err := storage.Downscale(data, ext, cfg.MaxImageWidth); err != nil {
			s.log.Warn().Err(err).Str("file", filename).Msg("image not resized")
		} else if changed {
			data = resized
		}
		reader, size = bytes.NewReader(data), int64(len(data))
	}

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.store.Put(ctx, name, reader, size, contentType); err != nil {
		return "", err
	}
	s.log.Info().Str("file", name).Int64("size", size).Msg("file uploaded")
	return name, nil
}

// Delete removes a stored file. Only plain file names are accepted.
func (s *FileService) Delete(ctx context.Context, name string) error {
	if !validFileName(name) {
		return ErrInvalidFileName
	}
	err := s.store.Delete(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrFileNotFound
	}
	if err != nil {
		return err
	}
	s.log.Info().Str("file", name).Msg("file deleted")
	return nil
}

// DeleteByURL deletes the file a public URL points to, if it is one of ours.
func (s *FileService) DeleteByURL(ctx context.Context, fileURL string) error {
	name := path.Base(fileURL)
	if !validFileName(name) || s.store.URL(name) != fileURL {
		return ErrFileNotFound
	}
	return s.Delete(ctx, name)
}

func (s *FileService) URL(name string) string {
	return s.store.URL(name)
}

func validFileName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, "/\\\x00") && !strings.HasPrefix(name, ".")
}
