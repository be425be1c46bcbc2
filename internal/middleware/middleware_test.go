package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"codeloom/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers map[uint]*models.User

func (s stubUsers) Get(id uint) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, errors.NotFoundf("user %d", id)
}

func newEngine(users stubUsers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.Use(sessions.Sessions("codeloom_session", cookie.NewStore([]byte("test-secret"))))
	r.Use(LoadUser(users))

	r.POST("/login/:id", func(c *gin.Context) {
		id, _ := strconv.Atoi(c.Param("id"))
		if err := Login(c, users[uint(id)]); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.GET("/me", AuthRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUser(c).ID})
	})
	r.GET("/admin", AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func loginCookie(t *testing.T, r *gin.Engine, id string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login/"+id, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func get(r *gin.Engine, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	users := stubUsers{1: {ID: 1, Role: models.RoleUser}}
	r := newEngine(users)

	rec := get(r, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Authentication required"}`, rec.Body.String())

	rec = get(r, "/me", loginCookie(t, r, "1"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1}`, rec.Body.String())
}

func TestAdminRequired(t *testing.T) {
	users := stubUsers{
		1: {ID: 1, Role: models.RoleUser},
		2: {ID: 2, Role: models.RoleAdmin},
	}
	r := newEngine(users)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin", nil).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/admin", loginCookie(t, r, "1")).Code)
	assert.Equal(t, http.StatusOK, get(r, "/admin", loginCookie(t, r, "2")).Code)
}

func TestRequestID(t *testing.T) {
	r := newEngine(stubUsers{})

	rec := get(r, "/me", nil)
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}
