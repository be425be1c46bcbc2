package services

import (
	"testing"

	"codeloom/internal/db/dbtest"
	"codeloom/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.New(t)
}

func mustRegister(t *testing.T, conn *gorm.DB, username string) *models.User {
	t.Helper()
	user, err := NewUserService(conn).Register(RegisterInput{
		Email:    username + "@codeloom.dev",
		Username: username,
		Password: "secret123",
	})
	require.NoError(t, err)
	return user
}
