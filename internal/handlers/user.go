package handlers

import (
	"context"
	"net/http"

	"codeloom/internal/models"
	"codeloom/internal/services"

	"github.com/gin-gonic/gin"
)

// AvatarPresigner hands out direct upload URLs for avatars.
type AvatarPresigner interface {
	PresignAvatarUpload(ctx context.Context, userID uint, contentType string) (*services.AvatarUpload, error)
}

type UserHandler struct {
	users   *services.UserService
	avatars AvatarPresigner
}

// NewUserHandler builds the handler. avatars may be nil when storage is not configured.
func NewUserHandler(users *services.UserService, avatars AvatarPresigner) *UserHandler {
	return &UserHandler{users: users, avatars: avatars}
}

// List is admin only.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok || !requireSelf(c, id) {
		return
	}
	var req services.ProfileUpdate
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.Update(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Stats(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	stats, err := h.users.GetStats(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *UserHandler) SetStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok || !requireSelf(c, id) {
		return
	}
	var req struct {
		Status models.PresenceStatus `json:"status"`
	}
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.SetStatus(id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// PresignAvatar returns a URL the browser can PUT the image to. The client
// then saves publicUrl through Update.
func (h *UserHandler) PresignAvatar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok || !requireSelf(c, id) {
		return
	}
	if h.avatars == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Avatar uploads are not configured"})
		return
	}
	var req struct {
		ContentType string `json:"contentType"`
	}
	if !bindJSON(c, &req) {
		return
	}
	upload, err := h.avatars.PresignAvatarUpload(c.Request.Context(), id, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}
