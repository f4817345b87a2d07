package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-feedback-service/internal/application/caretaker"
	"github.com/go-feedback-service/internal/application/feedback"
	"github.com/go-feedback-service/internal/application/relay"
	"github.com/go-feedback-service/internal/config"
	"github.com/go-feedback-service/internal/transport/http/handler"
	appmiddleware "github.com/go-feedback-service/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. Background work the
// router starts stops when ctx ends.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", appmiddleware.CredentialHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.Authenticator)

	// 5 requests/second, burst of 10 per client IP on the endpoints desktop clients hit.
	submitRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)

	feedbackSvc := feedback.NewService(feedback.ServiceDeps{
		Authenticator:  deps.Authenticator,
		Records:        deps.FeedbackRepo,
		Objects:        deps.ObjectStore,
		Publisher:      deps.Publisher,
		StoreTimeout:   cfg.StoreTimeout,
		PublishTimeout: cfg.PublishTimeout,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	relaySvc := relay.NewService(relay.ServiceDeps{
		Records:         deps.FeedbackRepo,
		Links:           deps.ObjectStore,
		Mailer:          deps.Mailer,
		Sender:          cfg.MailSender,
		Recipient:       cfg.MailRecipient,
		StoreTimeout:    cfg.StoreTimeout,
		ProviderTimeout: cfg.ProviderTimeout,
	})
	caretakerSvc := caretaker.NewService(caretaker.ServiceDeps{
		Records:      deps.FeedbackRepo,
		PageSize:     cfg.CaretakerPageSize,
		StoreTimeout: cfg.StoreTimeout,
	})

	healthH := handler.NewHealthHandler()
	feedbackH := handler.NewFeedbackHandler(feedbackSvc, deps.Authenticator.Configured(), cfg.MaxUploadBytes)
	relayH := handler.NewRelayHandler(relaySvc, deps.Publisher)
	caretakerH := handler.NewCaretakerHandler(caretakerSvc, cfg.KeepHistory, cfg.CaretakerBudget)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health", healthH.Health)
		r.Get("/health-check/{action}", healthH.Ping)
		r.Get("/feedback", feedbackH.Probe)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.With(submitRL.Limit).Post("/feedback", feedbackH.Submit)
			r.With(submitRL.Limit).Post("/feedback/uploads", feedbackH.Upload)
			r.Get("/caretaker", caretakerH.Run)
			r.Post("/caretaker", caretakerH.Run)
			r.Post("/relay/sns", relayH.SNS)
		})
	})

	return r
}
