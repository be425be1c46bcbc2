package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserStats is a per-user rollup maintained alongside activity, not derived from it.
type UserStats struct {
	ID             uint                     `gorm:"primaryKey" json:"-"`
	UserID         uint                     `gorm:"uniqueIndex;not null" json:"userId"`
	ArticlesLiked  int                      `gorm:"default:0;not null" json:"articlesLiked"`
	CommentsCount  int                      `gorm:"default:0;not null" json:"commentsCount"`
	ActiveDays     int                      `gorm:"default:0;not null" json:"activeDays"`
	TotalViews     int                      `gorm:"default:0;not null" json:"totalViews"`
	WeeklyActivity datatypes.JSONSlice[int] `json:"weeklyActivity"` // index 0 is Sunday
	LastActiveAt   time.Time                `json:"lastActiveAt"`
}

func (UserStats) TableName() string {
	return "user_stats"
}
