package repository

import (
	"context"
	"time"

	"piperblog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
}

func (r *CommentRepository) FindByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// FindByPost returns the comments of a post in creation order.
func (r *CommentRepository) FindByPost(ctx context.Context, postID uint, status models.CommentStatus) ([]*models.Comment, error) {
	var comments []*models.Comment
	query := r.db.WithContext(ctx).Where("post_id = ?", postID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("created_at asc").Order("id asc").Find(&comments).Error
	return comments, err
}

// FindAllByAdmin lists comments newest first with the title and slug of their post.
func (r *CommentRepository) FindAllByAdmin(ctx context.Context, status string) ([]models.Comment, error) {
	var comments []models.Comment
	query := r.db.WithContext(ctx).
		Preload("Post", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title", "slug") }).
		Order("created_at desc").Order("id desc")
	if status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&comments).Error
	return comments, err
}

func (r *CommentRepository) UpdateStatus(ctx context.Context, id uint, status models.CommentStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes one comment. Its replies move up to the deleted comment's parent.
func (r *CommentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).
			Where("parent_id = ?", id).
			Update("parent_id", comment.ParentID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Comment{}, id).Error
	})
}

func (r *CommentRepository) DeleteByPost(ctx context.Context, postID uint) error {
	return r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.Comment{}).Error
}

// DeleteSpamBefore purges spam comments created before cutoff.
func (r *CommentRepository) DeleteSpamBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.CommentStatusSpam, cutoff).
		Delete(&models.Comment{})
	return res.RowsAffected, res.Error
}

// Count counts comments with the given status, or all comments when status is empty.
func (r *CommentRepository) Count(ctx context.Context, status models.CommentStatus) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Comment{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error
	return count, err
}

func (r *CommentRepository) CountByPost(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}
