package handlers

import (
	"context"
	"net/http"
	"time"

	"codeloom/internal/chat"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db  *gorm.DB
	hub *chat.Hub
}

func NewHealthHandler(db *gorm.DB, hub *chat.Hub) *HealthHandler {
	return &HealthHandler{db: db, hub: hub}
}

// Healthz pings the database and reports connected chat users.
func (h *HealthHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "online": len(h.hub.Online())})
}
