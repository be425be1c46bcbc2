package handlers

import (
	"net/http"

	"codeloom/internal/services"

	"github.com/gin-gonic/gin"
)

type ConnectionHandler struct {
	connections *services.ConnectionService
}

func NewConnectionHandler(connections *services.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connections: connections}
}

// Request sends a friend request from the session user. A userId in the
// body, if present, must be the session user.
func (h *ConnectionHandler) Request(c *gin.Context) {
	var req struct {
		UserID       uint `json:"userId"`
		TargetUserID uint `json:"targetUserId"`
	}
	if !bindJSON(c, &req) {
		return
	}
	me := currentUser(c)
	if req.UserID != 0 && req.UserID != me.ID {
		c.JSON(http.StatusForbidden, gin.H{"message": "You can only send requests as yourself"})
		return
	}
	conn, err := h.connections.Request(me.ID, req.TargetUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conn)
}

func (h *ConnectionHandler) Accept(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	conn, err := h.connections.Accept(currentUser(c).ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

func (h *ConnectionHandler) Reject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	conn, err := h.connections.Reject(currentUser(c).ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

func (h *ConnectionHandler) List(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	conns, err := h.connections.List(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conns)
}

func (h *ConnectionHandler) Pending(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok || !requireSelf(c, userID) {
		return
	}
	conns, err := h.connections.ListPending(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conns)
}

// Status describes the session user's relationship with :otherId.
func (h *ConnectionHandler) Status(c *gin.Context) {
	otherID, ok := paramID(c, "otherId")
	if !ok {
		return
	}
	status, err := h.connections.Status(currentUser(c).ID, otherID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}
