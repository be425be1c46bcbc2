package handlers

import (
	"net/http"

	"codeloom/internal/log"
	"codeloom/internal/middleware"
	"codeloom/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users *services.UserService
	stats *services.StatsService
}

func NewAuthHandler(users *services.UserService, stats *services.StatsService) *AuthHandler {
	return &AuthHandler{users: users, stats: stats}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.Register(req)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := middleware.Login(c, user); err != nil {
		respondError(c, err)
		return
	}
	logger := log.WithUserID(user.ID)
	logger.Info().Str("username", user.Username).Msg("User registered")
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.Authenticate(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := middleware.Login(c, user); err != nil {
		respondError(c, err)
		return
	}
	if err := h.stats.RecordActivity(user.ID); err != nil {
		log.Errorf("Recording login activity failed", err)
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := middleware.Logout(c); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns the session user, or 401.
func (h *AuthHandler) Me(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, user)
}
