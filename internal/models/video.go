package models

import (
	"time"

	"gorm.io/datatypes"
)

type Video struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	Title       string                      `gorm:"not null" json:"title"`
	Description string                      `gorm:"type:text" json:"description"`
	URL         string                      `gorm:"not null" json:"url"`
	Thumbnail   string                      `json:"thumbnail"`
	AuthorID    uint                        `gorm:"not null;index" json:"authorId"`
	Author      *User                       `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	CreatedAt   time.Time                   `json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
}
