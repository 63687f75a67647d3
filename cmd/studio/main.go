// Package main starts the HTTP server of the studio booking service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/estudiopopnest/wellness-booking/internal/catalog"
	"github.com/estudiopopnest/wellness-booking/internal/config"
	"github.com/estudiopopnest/wellness-booking/internal/handler"
	"github.com/estudiopopnest/wellness-booking/internal/mailer"
	"github.com/estudiopopnest/wellness-booking/internal/middleware"
	"github.com/estudiopopnest/wellness-booking/internal/repository"
	"github.com/estudiopopnest/wellness-booking/internal/service"
	"github.com/estudiopopnest/wellness-booking/internal/stripe"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	cat, err := catalog.Load()
	if err != nil {
		sugar.Fatalw("catalog load error", "error", err.Error())
	}

	var gateway service.PaymentGateway
	if cfg.StripeSecretKey != "" {
		gateway = stripe.NewClient(cfg.StripeSecretKey)
	} else {
		sugar.Warn("STRIPE_SECRET_KEY not set, card payments are disabled")
	}

	var mail service.Mailer
	if m := mailer.New(cfg.SMTPHost, cfg.SMTPUser, cfg.SMTPPassword, cfg.FrontendURL, logger); m.Enabled() {
		mail = m
	} else {
		sugar.Warn("SMTP credentials not set, emails are disabled")
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)

	svc := service.NewService(repo, gateway, cat, mail, authMiddleware)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.EnsureDefaultAdmin(ctx); err != nil {
		sugar.Fatalw("default admin seeding error", "error", err.Error())
	}

	h := handler.NewHandler(svc, logger, authMiddleware, cfg.StripeWebhookSecret)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting studio server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
