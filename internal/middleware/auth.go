package middleware

import (
	"net/http"

	"codeloom/internal/log"
	"codeloom/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
)

const (
	CurrentUserKey = "user"
	SessionUserKey = "user_id"
)

// UserGetter loads the session's user.
type UserGetter interface {
	Get(id uint) (*models.User, error)
}

// LoadUser resolves the session user, if any, into the request context.
// A session pointing at a deleted user is cleared.
func LoadUser(users UserGetter) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		id, ok := session.Get(SessionUserKey).(uint)
		if ok && id != 0 {
			user, err := users.Get(id)
			switch {
			case err == nil:
				c.Set(CurrentUserKey, user)
			case errors.Is(err, errors.NotFound):
				session.Clear()
				_ = session.Save()
			default:
				log.Errorf("Loading session user failed", err)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the logged in user or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CurrentUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// AuthRequired rejects anonymous requests. LoadUser must run first.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}
		c.Next()
	}
}

func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin access required"})
			return
		}
		c.Next()
	}
}

// Login stores the user id in the session.
func Login(c *gin.Context, user *models.User) error {
	session := sessions.Default(c)
	session.Set(SessionUserKey, user.ID)
	return errors.Trace(session.Save())
}

func Logout(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	return errors.Trace(session.Save())
}
