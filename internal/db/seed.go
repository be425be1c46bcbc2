package db

import (
	"time"

	"codeloom/internal/log"
	"codeloom/internal/models"
	"codeloom/internal/utils"

	"github.com/juju/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Seed inserts demo users and articles into an empty database.
func Seed(conn *gorm.DB) error {
	logger := log.WithComponent("db")

	var count int64
	if err := conn.Model(&models.User{}).Count(&count).Error; err != nil {
		return errors.Trace(err)
	}
	if count > 0 {
		logger.Info().Msg("Users already seeded, skipping")
		return nil
	}

	hash, err := utils.HashPassword("codeloom123")
	if err != nil {
		return errors.Trace(err)
	}

	users := []models.User{
		{Email: "joao@codeloom.dev", Username: "joaosilva", DisplayName: "João Silva", Password: &hash, Role: models.RoleAdmin},
		{Email: "maria@codeloom.dev", Username: "mariasantos", DisplayName: "Maria Santos", Password: &hash, IsPremium: true},
	}

	return conn.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for i := range users {
			if err := tx.Create(&users[i]).Error; err != nil {
				return errors.Annotatef(err, "seeding user %s", users[i].Username)
			}
			stats := models.UserStats{
				UserID:         users[i].ID,
				ActiveDays:     1,
				WeeklyActivity: datatypes.JSONSlice[int](utils.NewWeeklyActivity(now)),
				LastActiveAt:   now,
			}
			if err := tx.Create(&stats).Error; err != nil {
				return errors.Trace(err)
			}
		}

		articles := []models.Article{
			{
				Title:       "Guia Completo para React Hooks em 2024",
				Slug:        "guia-completo-react-hooks-2024",
				Content:     "React Hooks revolucionaram a forma como escrevemos componentes...",
				Excerpt:     "Aprenda tudo sobre React Hooks, desde o básico até técnicas avançadas para criar aplicações modernas e eficientes.",
				Category:    "JavaScript",
				Tags:        datatypes.JSONSlice[string]{"React", "Hooks", "JavaScript", "Frontend"},
				AuthorID:    users[0].ID,
				PublishedAt: now,
			},
			{
				Title:       "Machine Learning com Python: Primeiros Passos",
				Slug:        "machine-learning-python-primeiros-passos",
				Content:     "Machine Learning está transformando o mundo da tecnologia...",
				Excerpt:     "Descubra como começar sua jornada em Machine Learning usando Python e as principais bibliotecas do mercado.",
				Category:    "Python",
				Tags:        datatypes.JSONSlice[string]{"Python", "Machine Learning", "Data Science", "AI"},
				IsPremium:   true,
				AuthorID:    users[1].ID,
				PublishedAt: now,
			},
		}
		if err := tx.Create(&articles).Error; err != nil {
			return errors.Annotate(err, "seeding articles")
		}

		logger.Info().Int("users", len(users)).Int("articles", len(articles)).Msg("Initial data created")
		return nil
	})
}
