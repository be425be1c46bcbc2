package handlers

import (
	"net/http"

	"codeloom/internal/chat"
	"codeloom/internal/services"
	"codeloom/internal/utils"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	hub      *chat.Hub
	messages *services.ChatMessageService
}

func NewChatHandler(hub *chat.Hub, messages *services.ChatMessageService) *ChatHandler {
	return &ChatHandler{hub: hub, messages: messages}
}

// History returns ?limit (default 50, max 100) messages of ?roomId.
func (h *ChatHandler) History(c *gin.Context) {
	limit := utils.StringToInt(c.Query("limit"), services.DefaultHistoryLimit)
	msgs, err := h.messages.History(c.Query("roomId"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *ChatHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	msg, err := h.messages.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *ChatHandler) Report(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.messages.Report(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message reported"})
}

// ServeWS upgrades /ws for the session user. An explicit ?userId must match it.
func (h *ChatHandler) ServeWS(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}
	if raw := c.Query("userId"); raw != "" {
		id, err := utils.ParseID(raw)
		if err != nil {
			badRequest(c, "Invalid userId")
			return
		}
		if id != user.ID {
			c.JSON(http.StatusForbidden, gin.H{"message": "userId does not match session"})
			return
		}
	}
	chat.ServeWS(h.hub, c.Writer, c.Request, user.ID)
}
