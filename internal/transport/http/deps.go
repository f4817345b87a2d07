package http

import (
	"context"
	"io"
	"time"

	"github.com/go-feedback-service/internal/domain"
	"github.com/go-feedback-service/internal/infrastructure/mail"
	"github.com/go-feedback-service/internal/pkg/token"
)

// FeedbackRepository is the minimal interface the router requires from a feedback store.
type FeedbackRepository interface {
	Put(ctx context.Context, rec *domain.FeedbackRecord) error
	Get(ctx context.Context, feedbackID string) (*domain.FeedbackRecord, error)
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.FeedbackRecord, string, error)
	Delete(ctx context.Context, feedbackID string) error
}

// ObjectStore is the minimal interface the router requires from an object storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64) error
	Exists(ctx context.Context, key string) (bool, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// EventPublisher is the minimal interface the router requires from the messaging layer.
type EventPublisher interface {
	Publish(ctx context.Context, evt domain.SubmissionEvent) (string, error)
	ConfirmSubscription(ctx context.Context, topicARN, token string) error
}

// Mailer is the minimal interface the router requires from the mail provider.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) (string, error)
}

// Deps holds all infrastructure dependencies for the router.
// Publisher and Mailer are nil when their backend is not configured.
type Deps struct {
	FeedbackRepo  FeedbackRepository
	ObjectStore   ObjectStore
	Publisher     EventPublisher
	Mailer        Mailer
	Authenticator *token.Authenticator
}
