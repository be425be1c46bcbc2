package models

import (
	"time"
)

// Post is a short-form status update, optionally with an image, a video or a previewed link.
type Post struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	ImageURL     string    `json:"imageUrl"`
	VideoURL     string    `json:"videoUrl"`
	LinkURL      string    `json:"linkUrl"`
	LinkTitle    string    `json:"linkTitle"`
	LinkExcerpt  string    `gorm:"type:text" json:"linkExcerpt"`
	AuthorID     uint      `gorm:"not null;index" json:"authorId"`
	Author       *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	LikeCount    int       `gorm:"default:0;not null" json:"likeCount"`
	CommentCount int       `gorm:"default:0;not null" json:"commentCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
