package services

import (
	"time"

	"codeloom/internal/models"
	"codeloom/internal/utils"

	"github.com/juju/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StatsService maintains the per-user activity rollup.
type StatsService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// RecordActivity bumps today's weekly slot, clearing last week's, and on the first activity of a
// new calendar day, the active day count.
func (s *StatsService) RecordActivity(userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return recordActivity(tx, userID, s.now())
	})
}

func recordActivity(tx *gorm.DB, userID uint, now time.Time) error {
	var stats models.UserStats
	err := tx.Where("user_id = ?", userID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		stats = models.UserStats{
			UserID:         userID,
			ActiveDays:     1,
			WeeklyActivity: datatypes.JSONSlice[int](utils.NewWeeklyActivity(now)),
			LastActiveAt:   now,
		}
		return errors.Trace(tx.Create(&stats).Error)
	}
	if err != nil {
		return errors.Trace(err)
	}

	updates := map[string]any{
		"weekly_activity": datatypes.JSONSlice[int](utils.BumpWeeklyActivity(stats.WeeklyActivity, stats.LastActiveAt, now)),
		"last_active_at":  now,
	}
	if !utils.SameDay(stats.LastActiveAt, now) {
		updates["active_days"] = gorm.Expr("active_days + 1")
	}
	return errors.Trace(tx.Model(&models.UserStats{}).Where("id = ?", stats.ID).Updates(updates).Error)
}

// bumpStat adds delta to a counter column, never going below zero.
func bumpStat(tx *gorm.DB, userID uint, column string, delta int) error {
	expr := gorm.Expr(column+" + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN "+column+" + ? < 0 THEN 0 ELSE "+column+" + ? END", delta, delta)
	}
	return errors.Trace(tx.Model(&models.UserStats{}).Where("user_id = ?", userID).Update(column, expr).Error)
}
