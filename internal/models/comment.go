package models

import (
	"time"
)

type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	ArticleID uint      `gorm:"not null;index" json:"articleId"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ParentID  *uint     `gorm:"index" json:"parentId"` // Nullable for top-level comments
	CreatedAt time.Time `json:"createdAt"`
}
