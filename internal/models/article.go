package models

import (
	"time"

	"gorm.io/datatypes"
)

type Article struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	Title       string                      `gorm:"not null" json:"title"`
	Slug        string                      `gorm:"uniqueIndex;not null" json:"slug"`
	Content     string                      `gorm:"type:text;not null" json:"content"`
	Excerpt     string                      `gorm:"type:text;not null" json:"excerpt"`
	ImageURL    string                      `json:"imageUrl"`
	Category    string                      `gorm:"size:64;not null;index" json:"category"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	IsPremium   bool                        `gorm:"default:false;not null;index" json:"isPremium"`
	AuthorID    uint                        `gorm:"not null;index" json:"authorId"`
	Author      *User                       `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	ViewCount   int                         `gorm:"default:0;not null" json:"viewCount"`
	LikeCount   int                         `gorm:"default:0;not null" json:"likeCount"`
	PublishedAt time.Time                   `gorm:"index" json:"publishedAt"`
	CreatedAt   time.Time                   `json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`

	// Not persisted, filled in per response
	ContentHTML string `gorm:"-" json:"contentHtml,omitempty"`
	Locked      bool   `gorm:"-" json:"locked,omitempty"`
}
