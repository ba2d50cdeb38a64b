package models

import (
	"html/template"
	"time"
)

type CommentStatus string

const (
	CommentStatusPending  CommentStatus = "pending"
	CommentStatusApproved CommentStatus = "approved"
	CommentStatusSpam     CommentStatus = "spam"
)

func (s CommentStatus) Valid() bool {
	switch s {
	case CommentStatusPending, CommentStatusApproved, CommentStatusSpam:
		return true
	}
	return false
}

type Comment struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	PostID      uint          `gorm:"index;not null" json:"post_id"`
	Post        *Post         `json:"post,omitempty"`
	ParentID    *uint         `gorm:"index" json:"parent_id"`
	AuthorName  string        `gorm:"size:100;not null" json:"author_name"`
	AuthorEmail string        `gorm:"size:255" json:"author_email"`
	Content     string        `gorm:"type:text;not null" json:"content"`
	Status      CommentStatus `gorm:"size:16;index;not null;default:pending" json:"status"`
	CreatedAt   time.Time     `gorm:"index" json:"created_at"`

	// Replies is filled when a thread is assembled; it is not a column.
	Replies []*Comment `gorm:"-" json:"replies,omitempty"`
}

// HTML returns the sanitized comment body.
func (c *Comment) HTML() template.HTML {
	return template.HTML(c.Content)
}
