package repository

import (
	"context"
	"time"

	"piperblog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(post).Error
}

func (r *PostRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateStatus sets the status and, when publishedAt is non-nil, the publish time.
func (r *PostRepository) UpdateStatus(ctx context.Context, id uint, status models.PostStatus, publishedAt *time.Time) error {
	fields := map[string]interface{}{"status": status}
	if publishedAt != nil {
		fields["published_at"] = *publishedAt
	}
	return r.UpdateFields(ctx, id, fields)
}

func (r *PostRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PostRepository) FindByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Preload("Category").First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *PostRepository) FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Post, error) {
	var post models.Post
	query := r.db.WithContext(ctx).Preload("Category").Where("slug = ?", slug)
	if publishedOnly {
		query = query.Where("status = ?", models.PostStatusPublished)
	}
	if err := query.First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *PostRepository) CheckSlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostRepository) CheckSlugExistsForOtherPost(ctx context.Context, slug string, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ? AND id != ?", slug, id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostRepository) publishedQuery(ctx context.Context, categoryID *uint) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Post{}).Where("status = ?", models.PostStatusPublished)
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}
	return query
}

func (r *PostRepository) FindPublishedPage(ctx context.Context, page, pageSize int, categoryID *uint) ([]models.Post, error) {
	var posts []models.Post
	offset := (page - 1) * pageSize
	err := r.publishedQuery(ctx, categoryID).
		Preload("Category").
		Order("published_at desc").Order("id desc").
		Offset(offset).Limit(pageSize).
		Find(&posts).Error
	return posts, err
}

func (r *PostRepository) CountPublished(ctx context.Context, categoryID *uint) (int64, error) {
	var count int64
	err := r.publishedQuery(ctx, categoryID).Count(&count).Error
	return count, err
}

// FindAllByAdmin lists posts of every status, newest first, optionally
// filtered by a title substring and a status.
func (r *PostRepository) FindAllByAdmin(ctx context.Context, query string, status string) ([]models.Post, error) {
	var posts []models.Post
	dbQuery := r.db.WithContext(ctx).Preload("Category").Order("created_at desc").Order("id desc")
	if query != "" {
		dbQuery = dbQuery.Where("title LIKE ?", "%"+query+"%")
	}
	if status != "" && status != "all" {
		dbQuery = dbQuery.Where("status = ?", status)
	}
	err := dbQuery.Find(&posts).Error
	return posts, err
}

func (r *PostRepository) FindLatest(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).Order("created_at desc").Order("id desc").Limit(limit).Find(&posts).Error
	return posts, err
}

// Count counts posts with the given status, or all posts when status is empty.
func (r *PostRepository) Count(ctx context.Context, status models.PostStatus) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Post{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error
	return count, err
}

// ClearCategory detaches every post from a category that is being removed.
func (r *PostRepository) ClearCategory(ctx context.Context, categoryID uint) error {
	return r.db.WithContext(ctx).Model(&models.Post{}).
		Where("category_id = ?", categoryID).
		Update("category_id", nil).Error
}

func (r *PostRepository) GetDB() *gorm.DB {
	return r.db
}
