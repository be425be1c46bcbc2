package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"codeloom/internal/config"
	"codeloom/internal/db/dbtest"
	"codeloom/internal/middleware"
	"codeloom/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func fakeGoogle(t *testing.T, verified bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "good-code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		body := `{"id":"g-42","email":"lia@gmail.com","verified_email":true,"name":"Lia Costa","picture":"https://lh3.googleusercontent.com/a/lia"}`
		if !verified {
			body = `{"id":"g-43","email":"x@gmail.com","verified_email":false,"name":"X"}`
		}
		_, _ = w.Write([]byte(body))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func googleEngine(t *testing.T, google *httptest.Server) (*gin.Engine, *services.UserService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	users := services.NewUserService(dbtest.New(t))

	h := NewGoogleAuthHandler(users, config.GoogleConfig{ClientID: "cid", ClientSecret: "secret"}, "https://codeloom.test")
	h.oauth.Endpoint = oauth2.Endpoint{
		AuthURL:  google.URL + "/auth",
		TokenURL: google.URL + "/token",
	}
	h.userInfoURL = google.URL + "/userinfo"

	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.Use(middleware.LoadUser(users))
	r.GET("/google", h.Login)
	r.GET("/google/callback", h.Callback)
	r.GET("/me", func(c *gin.Context) {
		if user := middleware.CurrentUser(c); user != nil {
			c.JSON(http.StatusOK, user)
			return
		}
		c.Status(http.StatusUnauthorized)
	})
	return r, users
}

// startLogin hits /google and returns the state and the session cookie.
func startLogin(t *testing.T, r *gin.Engine) (string, *http.Cookie) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/google", nil))
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	assert.Equal(t, "https://codeloom.test/api/auth/google/callback", loc.Query().Get("redirect_uri"))

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return state, cookies[0]
}

func callback(r *gin.Engine, query string, ck *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/google/callback?"+query, nil)
	if ck != nil {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGoogleCallbackSignsIn(t *testing.T) {
	r, users := googleEngine(t, fakeGoogle(t, true))
	state, ck := startLogin(t, r)

	w := callback(r, url.Values{"state": {state}, "code": {"good-code"}}.Encode(), ck)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "https://codeloom.test/", w.Header().Get("Location"))

	list, err := users.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "lia@gmail.com", list[0].Email)
	assert.Equal(t, "Lia Costa", list[0].DisplayName)
	require.NotNil(t, list[0].ExternalUID)
	assert.Equal(t, "google:g-42", *list[0].ExternalUID)

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "test_session" {
			session = c
		}
	}
	require.NotNil(t, session)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(session)
	me := httptest.NewRecorder()
	r.ServeHTTP(me, req)
	assert.Equal(t, http.StatusOK, me.Code)
}

func TestGoogleCallbackRejects(t *testing.T) {
	r, users := googleEngine(t, fakeGoogle(t, false))

	w := callback(r, "state=forged&code=good-code", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	state, ck := startLogin(t, r)
	w = callback(r, url.Values{"state": {state}}.Encode(), ck)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// the state is single use, so start again
	state, ck = startLogin(t, r)
	w = callback(r, url.Values{"state": {state}, "code": {"good-code"}}.Encode(), ck)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	list, err := users.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}
