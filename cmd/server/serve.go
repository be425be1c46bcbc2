package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"codeloom/internal/chat"
	"codeloom/internal/db"
	"codeloom/internal/log"
	"codeloom/internal/router"
	"codeloom/internal/services"
	"codeloom/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, args []string) error {
	cfg, conn, err := setup()
	if err != nil {
		return err
	}
	if cfg.SeedData {
		if err := db.Seed(conn); err != nil {
			return err
		}
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	users := services.NewUserService(conn)
	messages := services.NewChatMessageService(conn)
	llm := services.NewLLMService(cfg.LLM)
	if !llm.Enabled() {
		log.Warn("LLM token not configured, excerpts use the content fallback")
	}

	deps := router.Deps{
		DB:          conn,
		Users:       users,
		Stats:       services.NewStatsService(conn),
		Connections: services.NewConnectionService(conn),
		Messages:    messages,
		Articles:    services.NewArticleService(conn, utils.GetCache(), llm),
		Feed:        services.NewFeedService(conn, services.NewPageFetcher(nil)),
	}

	if cfg.Stripe.Enabled() {
		provider := services.NewStripeProvider(cfg.Stripe, nil)
		deps.Billing = services.NewBillingService(conn, provider, cfg.Stripe.PriceID)
	} else {
		log.Warn("Stripe not configured, billing endpoints answer 503")
	}

	if cfg.S3.Enabled() {
		storage, err := services.NewAvatarStorage(ctx, cfg.S3)
		if err != nil {
			return errors.Annotate(err, "configuring avatar storage")
		}
		deps.Avatars = storage
	} else {
		log.Warn("S3 not configured, avatar uploads answer 503")
	}

	hub := chat.NewHub(users, messages)
	deps.Hub = hub
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger := log.WithComponent("server")
		logger.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("CodeLoom server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-errCh:
		stop()
		<-hubDone
		return errors.Annotate(err, "http server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP server shutdown failed", err)
	}
	<-hubDone
	log.Info("Shutdown complete")
	return nil
}
