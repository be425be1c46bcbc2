package handlers

import (
	"net/http"

	"codeloom/internal/log"
	"codeloom/internal/middleware"
	"codeloom/internal/models"
	"codeloom/internal/services"
	"codeloom/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
)

// respondError maps service errors to status codes. Unknown errors are
// logged and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	var providerErr *services.ProviderError
	switch {
	case errors.Is(err, errors.NotValid), errors.Is(err, errors.BadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, errors.Unauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
	case errors.Is(err, errors.Forbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
	case errors.Is(err, errors.NotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, errors.AlreadyExists):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.As(err, &providerErr):
		log.Logger.Error().Err(err).Str("path", c.FullPath()).Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("Billing provider error")
		c.JSON(http.StatusBadGateway, gin.H{"message": "billing provider error"})
	default:
		log.Logger.Error().Err(err).Str("path", c.FullPath()).Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": message})
}

// bindJSON decodes the body, answering 400 itself on failure.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		badRequest(c, "Invalid request body")
		return false
	}
	return true
}

// paramID parses a numeric path parameter, answering 400 itself on failure.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := utils.ParseID(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

// requireSelf lets a user act only on their own record.
func requireSelf(c *gin.Context, id uint) bool {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return false
	}
	if user.ID != id && !user.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"message": "You can only change your own profile"})
		return false
	}
	return true
}
