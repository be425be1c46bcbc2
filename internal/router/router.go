// Package router assembles the gin engine: middleware, sessions and routes.
package router

import (
	"net/http"
	"strings"
	"time"

	"codeloom/internal/chat"
	"codeloom/internal/config"
	"codeloom/internal/handlers"
	"codeloom/internal/metrics"
	"codeloom/internal/middleware"
	"codeloom/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const sessionName = "codeloom_session"

// Deps are the services the routes are built on. Billing and Avatars may be
// nil when their provider is not configured.
type Deps struct {
	DB          *gorm.DB
	Hub         *chat.Hub
	Users       *services.UserService
	Stats       *services.StatsService
	Connections *services.ConnectionService
	Messages    *services.ChatMessageService
	Articles    *services.ArticleService
	Feed        *services.FeedService
	Billing     *services.BillingService
	Avatars     handlers.AvatarPresigner
}

// New returns an engine with the middleware chain and every route mounted.
func New(cfg *config.Config, d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog())
	r.Use(middleware.Metrics())
	r.Use(cors.New(corsConfig(cfg.CORSOrigin)))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(middleware.LoadUser(d.Users))

	RegisterRoutes(r, cfg, d)
	return r
}

// corsConfig echoes the caller's origin for "*" so credentialed requests work.
func corsConfig(origin string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID", "Stripe-Signature"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origin == "" || origin == "*" {
		c.AllowOriginFunc = func(string) bool { return true }
	} else {
		c.AllowOrigins = strings.Split(origin, ",")
		for i := range c.AllowOrigins {
			c.AllowOrigins[i] = strings.TrimSpace(c.AllowOrigins[i])
		}
	}
	return c
}

func RegisterRoutes(r *gin.Engine, cfg *config.Config, d Deps) {
	// Handlers
	authHandler := handlers.NewAuthHandler(d.Users, d.Stats)
	userHandler := handlers.NewUserHandler(d.Users, d.Avatars)
	articleHandler := handlers.NewArticleHandler(d.Articles)
	feedHandler := handlers.NewFeedHandler(d.Feed)
	chatHandler := handlers.NewChatHandler(d.Hub, d.Messages)
	connectionHandler := handlers.NewConnectionHandler(d.Connections)
	seoHandler := handlers.NewSEOHandler(d.Articles, cfg.SiteURL)
	healthHandler := handlers.NewHealthHandler(d.DB, d.Hub)

	// Ops
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/robots.txt", seoHandler.RobotsTxt)
	r.GET("/sitemap.xml", seoHandler.SitemapXML)
	r.GET("/feed.xml", seoHandler.RSSFeed)

	// Chat socket
	r.GET("/ws", chatHandler.ServeWS)

	api := r.Group("/api")

	// Auth
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		if cfg.Google.Enabled() {
			googleHandler := handlers.NewGoogleAuthHandler(d.Users, cfg.Google, cfg.SiteURL)
			auth.GET("/google", googleHandler.Login)
			auth.GET("/google/callback", googleHandler.Callback)
		}
	}

	// Public reads
	api.GET("/users/:id", userHandler.Get)
	api.GET("/users/:id/stats", userHandler.Stats)
	api.GET("/articles", articleHandler.List)
	api.GET("/articles/:id", articleHandler.Get)
	api.GET("/articles/slug/:slug", articleHandler.GetBySlug)
	api.GET("/articles/:id/comments", articleHandler.Comments)
	api.GET("/articles/:id/like/:userId", articleHandler.IsLiked)
	api.GET("/posts", feedHandler.ListPosts)
	api.GET("/posts/:id", feedHandler.GetPost)
	api.GET("/videos", feedHandler.ListVideos)
	api.GET("/videos/:id", feedHandler.GetVideo)
	api.GET("/chat/messages", chatHandler.History)
	api.GET("/chat/messages/:id", chatHandler.Get)
	api.GET("/connections/user/:userId", connectionHandler.List)

	// Protected
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.PATCH("/users/:id", userHandler.Update)
		authorized.PUT("/users/:id/status", userHandler.SetStatus)
		authorized.POST("/users/:id/avatar", userHandler.PresignAvatar)

		authorized.POST("/articles", articleHandler.Create)
		authorized.POST("/articles/:id/comments", articleHandler.AddComment)
		authorized.POST("/articles/:id/like", articleHandler.ToggleLike)

		authorized.POST("/posts", feedHandler.CreatePost)
		authorized.POST("/videos", feedHandler.CreateVideo)

		authorized.POST("/chat/report/:id", chatHandler.Report)

		authorized.POST("/connections", connectionHandler.Request)
		authorized.POST("/connections/:id/accept", connectionHandler.Accept)
		authorized.POST("/connections/:id/reject", connectionHandler.Reject)
		authorized.GET("/connections/pending/:userId", connectionHandler.Pending)
		authorized.GET("/connections/status/:otherId", connectionHandler.Status)
	}

	// Admin
	admin := api.Group("")
	admin.Use(middleware.AdminRequired())
	{
		admin.GET("/users", userHandler.List)
	}

	// Billing
	if d.Billing != nil {
		billingHandler := handlers.NewBillingHandler(d.Billing)
		api.GET("/prices", billingHandler.Prices)
		api.POST("/webhook/stripe", billingHandler.Webhook)
		authorized.POST("/create-subscription", billingHandler.CreateSubscription)
		authorized.POST("/cancel-subscription", billingHandler.CancelSubscription)
	} else {
		disabled := func(c *gin.Context) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Billing is not configured"})
		}
		api.GET("/prices", disabled)
		api.POST("/webhook/stripe", disabled)
		api.POST("/create-subscription", disabled)
		api.POST("/cancel-subscription", disabled)
	}
}
