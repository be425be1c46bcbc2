package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"codeloom/internal/config"
	"codeloom/internal/log"
	"codeloom/internal/middleware"
	"codeloom/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const oauthStateKey = "oauth_state"

// GoogleUserInfo is the subset of the userinfo endpoint we use.
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type GoogleAuthHandler struct {
	users       *services.UserService
	oauth       *oauth2.Config
	userInfoURL string
	siteURL     string
}

func NewGoogleAuthHandler(users *services.UserService, cfg config.GoogleConfig, siteURL string) *GoogleAuthHandler {
	return &GoogleAuthHandler{
		users: users,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  siteURL + "/api/auth/google/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		siteURL:     siteURL,
	}
}

func generateStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Login redirects to Google's consent screen.
func (h *GoogleAuthHandler) Login(c *gin.Context) {
	state, err := generateStateToken()
	if err != nil {
		respondError(c, err)
		return
	}
	session := sessions.Default(c)
	session.Set(oauthStateKey, state)
	if err := session.Save(); err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, h.oauth.AuthCodeURL(state))
}

// Callback finishes the code exchange and signs the user in.
func (h *GoogleAuthHandler) Callback(c *gin.Context) {
	session := sessions.Default(c)
	saved, _ := session.Get(oauthStateKey).(string)
	session.Delete(oauthStateKey)
	_ = session.Save()

	if saved == "" || c.Query("state") != saved {
		badRequest(c, "Invalid OAuth state")
		return
	}
	code := c.Query("code")
	if code == "" {
		badRequest(c, "Missing authorization code")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()
	token, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		logger := log.WithComponent("oauth")
		logger.Warn().Err(err).Msg("Google token exchange failed")
		c.JSON(http.StatusBadGateway, gin.H{"message": "Google sign-in failed"})
		return
	}
	info, err := h.fetchUserInfo(ctx, token)
	if err != nil {
		logger := log.WithComponent("oauth")
		logger.Warn().Err(err).Msg("Google userinfo failed")
		c.JSON(http.StatusBadGateway, gin.H{"message": "Google sign-in failed"})
		return
	}
	if !info.VerifiedEmail {
		badRequest(c, "Google email is not verified")
		return
	}

	user, err := h.users.UpsertExternal(services.ExternalIdentity{
		UID:         "google:" + info.ID,
		Email:       info.Email,
		DisplayName: info.Name,
		Avatar:      info.Picture,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if err := middleware.Login(c, user); err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, h.siteURL+"/")
}

func (h *GoogleAuthHandler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*GoogleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.userInfoURL, nil)
	if err != nil {
		return nil, errors.Trace(err)
	}
	resp, err := h.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("userinfo status %d", resp.StatusCode)
	}
	var info GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, errors.Trace(err)
	}
	return &info, nil
}
