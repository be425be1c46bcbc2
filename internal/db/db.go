package db

import (
	"time"

	"codeloom/internal/log"
	"codeloom/internal/models"

	"github.com/juju/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the process-wide handle, set by Init.
var DB *gorm.DB

// Init connects to PostgreSQL and runs migrations.
func Init(dsn string) (*gorm.DB, error) {
	conn, err := Open(postgres.Open(dsn))
	if err != nil {
		return nil, errors.Annotate(err, "connecting to database")
	}
	dbLogger := log.WithComponent("db")
	dbLogger.Info().Msg("Database connection established")

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	DB = conn
	return conn, nil
}

// Open wraps gorm.Open with the settings every environment shares.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// Migrate creates or updates every table the server uses.
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.UserStats{},
		&models.Connection{},
		&models.ChatMessage{},
		&models.Article{},
		&models.Comment{},
		&models.Like{},
		&models.Post{},
		&models.Video{},
	)
	if err != nil {
		return errors.Annotate(err, "migrating database")
	}
	dbLogger := log.WithComponent("db")
	dbLogger.Info().Msg("Database migration completed")
	return nil
}
