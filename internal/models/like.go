package models

import (
	"time"
)

// Like records that a user liked an article; Article.LikeCount is the cached total.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_user_article" json:"userId"`
	ArticleID uint      `gorm:"not null;uniqueIndex:idx_like_user_article;index" json:"articleId"`
	CreatedAt time.Time `json:"createdAt"`
}
