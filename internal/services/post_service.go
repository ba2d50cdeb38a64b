package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"piperblog/internal/metrics"
	"piperblog/internal/models"
	"piperblog/internal/repository"
	"piperblog/internal/sanitizer"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const excerptLength = 200

// PostInput is the editor form.
type PostInput struct {
	Title      string
	Excerpt    string
	Source     string
	Format     string
	HeroImage  string
	CategoryID *uint
	Status     models.PostStatus
}

type PostService struct {
	repo       *repository.PostRepository
	categories *repository.CategoryRepository
	sanitizer  *sanitizer.Sanitizer
	settings   *SettingService
	files      *FileService
	log        zerolog.Logger
}

func NewPostService(repo *repository.PostRepository, categories *repository.CategoryRepository, san *sanitizer.Sanitizer, settings *SettingService, files *FileService, log zerolog.Logger) *PostService {
	return &PostService{
		repo:       repo,
		categories: categories,
		sanitizer:  san,
		settings:   settings,
		files:      files,
		log:        log.With().Str("component", "posts").Logger(),
	}
}

// CreateDraft creates an empty draft from a title.
func (s *PostService) CreateDraft(ctx context.Context, title string, authorID uint) (*models.Post, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	slugStr, err := s.generateUniqueSlug(ctx, title, 0)
	if err != nil {
		return nil, err
	}
	post := &models.Post{
		Title:    title,
		Slug:     slugStr,
		Format:   string(sanitizer.FormatMarkup),
		Status:   models.PostStatusDraft,
		AuthorID: authorID,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}
	metrics.PostsSaved.WithLabelValues("create").Inc()
	s.log.Info().Uint("post_id", post.ID).Str("slug", post.Slug).Msg("draft created")
	return post, nil
}

// Save applies the full editor form to a post.
func (s *PostService) Save(ctx context.Context, id uint, in PostInput) (*models.Post, error) {
	post, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	format, err := sanitizer.ParseFormat(in.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, in.Format)
	}
	content, err := s.sanitizer.Sanitize(in.Source, format)
	if err != nil {
		return nil, err
	}
	hero, err := cleanHeroImage(in.HeroImage)
	if err != nil {
		return nil, err
	}
	if in.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, *in.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
	}

	if post.Title != title {
		newSlug, err := s.generateUniqueSlug(ctx, title, id)
		if err != nil {
			return nil, err
		}
		post.Slug = newSlug
	}
	if in.Status != "" {
		if !in.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		setStatus(post, in.Status)
	}

	post.Title = title
	post.Excerpt = strings.TrimSpace(in.Excerpt)
	post.Source = in.Source
	post.Format = string(format)
	post.Content = content
	post.HeroImage = hero
	post.CategoryID = in.CategoryID
	post.Category = nil

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, err
	}
	metrics.PostsSaved.WithLabelValues("update").Inc()
	return post, nil
}

// UpdateContent replaces only the body, re-rendered in the post's current format.
func (s *PostService) UpdateContent(ctx context.Context, id uint, source string) error {
	post, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	format, err := sanitizer.ParseFormat(post.Format)
	if err != nil {
		format = sanitizer.FormatMarkup
	}
	content, err := s.sanitizer.Sanitize(source, format)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateFields(ctx, id, map[string]interface{}{
		"source":  source,
		"content": content,
	}); err != nil {
		return err
	}
	metrics.PostsSaved.WithLabelValues("content").Inc()
	return nil
}

// ApplyAction runs one list action: publish, unpublish, archive or delete.
func (s *PostService) ApplyAction(ctx context.Context, id uint, action string) error {
	var status models.PostStatus
	switch action {
	case "publish":
		status = models.PostStatusPublished
	case "unpublish":
		status = models.PostStatusDraft
	case "archive":
		status = models.PostStatusArchived
	case "delete":
		_, err := s.Delete(ctx, id)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	post, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	setStatus(post, status)
	return s.repo.UpdateStatus(ctx, id, post.Status, post.PublishedAt)
}

// Delete archives the post in soft-delete mode. Otherwise it removes the
// post's comments and then the post in one transaction, and optionally the
// hero image. It reports whether the post was only archived.
func (s *PostService) Delete(ctx context.Context, id uint) (bool, error) {
	post, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	system := s.settings.Site().System

	if system.SoftDelete {
		if err := s.repo.UpdateStatus(ctx, id, models.PostStatusArchived, nil); err != nil {
			return false, err
		}
		s.log.Info().Uint("post_id", id).Msg("post archived")
		return true, nil
	}

	err = s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewCommentRepository(tx).DeleteByPost(ctx, id); err != nil {
			return err
		}
		return repository.NewPostRepository(tx).Delete(ctx, id)
	})
	if err != nil {
		return false, err
	}
	s.log.Info().Uint("post_id", id).Msg("post deleted")

	if system.DeleteFiles && post.HeroImage != "" && s.files != nil {
		if err := s.files.DeleteByURL(ctx, post.HeroImage); err != nil && !errors.Is(err, ErrFileNotFound) {
			s.log.Warn().Err(err).Str("file", post.HeroImage).Msg("failed to delete hero image")
		}
	}
	return false, nil
}

func (s *PostService) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	return post, err
}

// GetPublishedBySlug is the public article lookup. Drafts and archived posts are not found.
func (s *PostService) GetPublishedBySlug(ctx context.Context, slug string) (*models.Post, error) {
	post, err := s.repo.FindBySlug(ctx, slug, true)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	s.fillExcerpt(post)
	return post, nil
}

func (s *PostService) ListPublished(ctx context.Context, page, pageSize int, categoryID *uint) ([]models.Post, int64, error) {
	total, err := s.repo.CountPublished(ctx, categoryID)
	if err != nil {
		return nil, 0, err
	}
	posts, err := s.repo.FindPublishedPage(ctx, page, pageSize, categoryID)
	if err != nil {
		return nil, 0, err
	}
	for i := range posts {
		s.fillExcerpt(&posts[i])
	}
	return posts, total, nil
}

func (s *PostService) ListForAdmin(ctx context.Context, query, status string) ([]models.Post, error) {
	if status != "" && status != "all" && !models.PostStatus(status).Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.FindAllByAdmin(ctx, strings.TrimSpace(query), status)
}

func (s *PostService) fillExcerpt(post *models.Post) {
	if post.Excerpt == "" {
		post.Excerpt = sanitizer.Excerpt(post.Content, excerptLength)
	}
}

func setStatus(post *models.Post, status models.PostStatus) {
	if status == models.PostStatusPublished && post.PublishedAt == nil {
		now := time.Now()
		post.PublishedAt = &now
	}
	post.Status = status
}

func cleanHeroImage(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", ErrInvalidHeroImage
	}
	return raw, nil
}

// generateUniqueSlug checks for slug uniqueness and appends a counter if needed.
func (s *PostService) generateUniqueSlug(ctx context.Context, title string, postID uint) (string, error) {
	baseSlug := slug.Make(title)
	if baseSlug == "" {
		baseSlug = "post"
	}
	finalSlug := baseSlug
	counter := 1
	for {
		var exists bool
		var err error
		if postID == 0 {
			exists, err = s.repo.CheckSlugExists(ctx, finalSlug)
		} else {
			exists, err = s.repo.CheckSlugExistsForOtherPost(ctx, finalSlug, postID)
		}
		if err != nil {
			return "", err
		}
		if !exists {
			break
		}
		finalSlug = fmt.Sprintf("%s-%d", baseSlug, counter)
		counter++
	}
	return finalSlug, nil
}
