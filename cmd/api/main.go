package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-feedback-service/internal/config"
	"github.com/go-feedback-service/internal/infrastructure/mail"
	s3infra "github.com/go-feedback-service/internal/infrastructure/s3"
	"github.com/go-feedback-service/internal/infrastructure/sns"
	"github.com/go-feedback-service/internal/infrastructure/store"
	"github.com/go-feedback-service/internal/pkg/logging"
	"github.com/go-feedback-service/internal/pkg/token"
	transporthttp "github.com/go-feedback-service/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.AppEnv)
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	ctx := context.Background()

	authn := token.NewAuthenticator(cfg.SenderAuthToken)
	if !authn.Configured() {
		slog.Warn("FEEDBACK_SENDER_AUTHTOKEN is empty, every authenticated request will be rejected")
	}

	// Record store (creates the table / indexes if they don't exist).
	repo, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		logging.Fatal("record store unavailable", "backend", cfg.StoreBackend, "err", err)
	}

	// S3 attachment store.
	s3Client, err := s3infra.NewClient(ctx, cfg)
	if err != nil {
		logging.Fatal("s3 client unavailable", "err", err)
	}

	deps := &transporthttp.Deps{
		FeedbackRepo:  repo,
		ObjectStore:   s3infra.NewStore(s3Client, cfg.S3BucketName),
		Authenticator: authn,
	}

	// SNS topic (optional: submissions still succeed without fan-out).
	if cfg.SNSTopicARN != "" {
		snsClient, err := sns.NewClient(ctx, cfg)
		if err != nil {
			logging.Fatal("sns client unavailable", "err", err)
		}
		deps.Publisher = sns.NewPublisher(snsClient, cfg.SNSTopicARN)
	} else {
		slog.Warn("SNS_TOPIC_ARN not set, submission events will not be published")
	}

	// Resend mailer (optional: the relay acknowledges and drops events without it).
	if cfg.MailConfigured() {
		deps.Mailer = mail.NewMailer(cfg.ResendAPIKey, cfg.ProviderTimeout)
	} else {
		slog.Warn("mail delivery not configured, relay will drop notifications")
	}

	routerCtx, stopRouter := context.WithCancel(ctx)
	defer stopRouter()
	router := transporthttp.NewRouter(routerCtx, cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "store", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
	}
	stopRouter()
	if err := closeStore(shutdownCtx); err != nil {
		slog.Error("closing record store", "err", err)
	}
	slog.Info("server stopped")
}
