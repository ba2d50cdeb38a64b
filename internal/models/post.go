package models

import (
	"html/template"
	"time"
)

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
	PostStatusArchived  PostStatus = "archived"
)

// Valid reports whether s is one of the enumerated post states.
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return true
	}
	return false
}

// Post rows never use gorm's soft delete: archiving is a status, deleting removes the row.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title" form:"title"`
	Slug        string     `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Excerpt     string     `gorm:"type:text" json:"excerpt" form:"excerpt"`
	Source      string     `gorm:"type:text" json:"source" form:"content"`
	Format      string     `gorm:"size:16;not null;default:markup" json:"format" form:"format"`
	Content     string     `gorm:"type:text" json:"content"`
	Status      PostStatus `gorm:"size:16;index;not null;default:draft" json:"status"`
	CategoryID  *uint      `gorm:"index" json:"category_id"`
	Category    *Category  `json:"category,omitempty"`
	AuthorID    uint       `gorm:"index" json:"author_id"`
	HeroImage   string     `gorm:"size:512" json:"hero_image" form:"hero_image"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at"`
}

// HTML returns the stored, already sanitized body for templates.
func (p *Post) HTML() template.HTML {
	return template.HTML(p.Content)
}

// IsPublished is used by templates and the public article lookup.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}
