package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"piperblog/internal/models"
	"piperblog/internal/repository"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type CategoryService struct {
	repo  *repository.CategoryRepository
	posts *repository.PostRepository
	log   zerolog.Logger
}

func NewCategoryService(repo *repository.CategoryRepository, posts *repository.PostRepository, log zerolog.Logger) *CategoryService {
	return &CategoryService{
		repo:  repo,
		posts: posts,
		log:   log.With().Str("component", "categories").Logger(),
	}
}

func (s *CategoryService) List(ctx context.Context) ([]models.CategoryWithCount, error) {
	return s.repo.FindAllWithCounts(ctx)
}

func (s *CategoryService) All(ctx context.Context) ([]models.Category, error) {
	return s.repo.FindAll(ctx)
}

func (s *CategoryService) FindBySlug(ctx context.Context, slugStr string) (*models.Category, error) {
	category, err := s.repo.FindBySlug(ctx, slugStr)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	return category, err
}

func (s *CategoryService) Create(ctx context.Context, name string) (*models.Category, error) {
	name, err := s.checkName(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	slugStr, err := s.generateUniqueSlug(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	category := &models.Category{Name: name, Slug: slugStr}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	s.log.Info().Uint("category_id", category.ID).Str("name", name).Msg("category created")
	return category, nil
}

// Rename changes the name and regenerates the slug.
func (s *CategoryService) Rename(ctx context.Context, id uint, name string) error {
	name, err := s.checkName(ctx, name, id)
	if err != nil {
		return err
	}
	slugStr, err := s.generateUniqueSlug(ctx, name, id)
	if err != nil {
		return err
	}
	err = s.repo.UpdateFields(ctx, id, map[string]interface{}{"name": name, "slug": slugStr})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCategoryNotFound
	}
	return err
}

// Delete detaches the category's posts and removes it.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	err := s.posts.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewPostRepository(tx).ClearCategory(ctx, id); err != nil {
			return err
		}
		return repository.NewCategoryRepository(tx).Delete(ctx, id)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCategoryNotFound
	}
	if err != nil {
		return err
	}
	s.log.Info().Uint("category_id", id).Msg("category deleted")
	return nil
}

func (s *CategoryService) checkName(ctx context.Context, name string, excludeID uint) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrCategoryNameRequired
	}
	exists, err := s.repo.CheckNameExists(ctx, name, excludeID)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrCategoryExists
	}
	return name, nil
}

func (s *CategoryService) generateUniqueSlug(ctx context.Context, name string, excludeID uint) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "category"
	}
	candidate := base
	for i := 1; ; i++ {
		exists, err := s.repo.CheckSlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
