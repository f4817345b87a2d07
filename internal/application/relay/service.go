package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/go-feedback-service/internal/domain"
	"github.com/go-feedback-service/internal/infrastructure/mail"
)

// Outcome tells the messaging layer whether to drop or redeliver an event.
type Outcome int

const (
	Ack Outcome = iota
	Retry
)

func (o Outcome) String() string {
	if o == Retry {
		return "retry"
	}
	return "ack"
}

const (
	// AttachmentLinkTTL is how long the presigned attachment link in a mail stays valid.
	AttachmentLinkTTL = 7 * 24 * time.Hour
	originMailer      = "fmpfeedback.relay"
)

type Service interface {
	// Relay forwards one event to the mail provider. The returned error, if any,
	// explains the outcome and is meant for logging only.
	Relay(ctx context.Context, evt domain.SubmissionEvent) (Outcome, error)
}

type recordStore interface {
	Get(ctx context.Context, feedbackID string) (*domain.FeedbackRecord, error)
}

type linkSigner interface {
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type mailer interface {
	Send(ctx context.Context, msg mail.Message) (string, error)
}

type ServiceDeps struct {
	Records         recordStore
	Links           linkSigner
	Mailer          mailer // nil when mail delivery is not configured
	Sender          string
	Recipient       string
	StoreTimeout    time.Duration
	ProviderTimeout time.Duration
}

type service struct {
	records         recordStore
	links           linkSigner
	mailer          mailer
	sender          string
	recipient       string
	storeTimeout    time.Duration
	providerTimeout time.Duration
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		records:         deps.Records,
		links:           deps.Links,
		mailer:          deps.Mailer,
		sender:          deps.Sender,
		recipient:       deps.Recipient,
		storeTimeout:    deps.StoreTimeout,
		providerTimeout: deps.ProviderTimeout,
	}
	if s.storeTimeout <= 0 {
		s.storeTimeout = 5 * time.Second
	}
	if s.providerTimeout <= 0 {
		s.providerTimeout = 10 * time.Second
	}
	return s
}

func (s *service) Relay(ctx context.Context, evt domain.SubmissionEvent) (Outcome, error) {
	if evt.Action != domain.ActionFeedbackSubmitted || evt.FeedbackID == "" {
		slog.Info("ignoring event", "action", evt.Action, "event_id", evt.EventID)
		return Ack, nil
	}
	log := slog.With("feedback_id", evt.FeedbackID, "event_id", evt.EventID)

	if s.mailer == nil {
		log.Error("mail delivery not configured, dropping notification")
		return Ack, fmt.Errorf("mail delivery not configured: %w", domain.ErrPermanentProvider)
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	rec, err := s.records.Get(storeCtx, evt.FeedbackID)
	cancel()
	switch {
	case errors.Is(err, domain.ErrNotFound):
		log.Warn("feedback no longer stored, dropping notification")
		return Ack, err
	case err != nil:
		log.Error("failed to load feedback", "err", err)
		return Retry, err
	}

	msg := mail.Message{
		From:    s.sender,
		To:      s.recipient,
		Subject: subject(rec),
		Text:    s.body(ctx, rec),
		Headers: map[string]string{"X-Origin-Mailer": originMailer},
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()
	msgID, err := s.mailer.Send(sendCtx, msg)
	switch {
	case err == nil:
		log.Info("feedback mail accepted", "message_id", msgID)
		return Ack, nil
	case errors.Is(err, domain.ErrPermanentProvider):
		log.Error("mail provider rejected feedback mail", "err", err)
		return Ack, err
	default:
		log.Warn("mail provider unavailable, requesting redelivery", "err", err)
		return Retry, err
	}
}

func subject(rec *domain.FeedbackRecord) string {
	return fmt.Sprintf("[%s] Feedback %s", rec.ProductName, rec.FeedbackID)
}

func (s *service) body(ctx context.Context, rec *domain.FeedbackRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s\n", rec.ProductName)
	fmt.Fprintf(&b, "Feedback: %s\n", rec.FeedbackID)
	fmt.Fprintf(&b, "Submitted: %s\n", rec.CreatedAt.UTC().Format(time.RFC3339))
	if rec.ClientIP != "" {
		fmt.Fprintf(&b, "Client IP: %s\n", rec.ClientIP)
	}

	if rec.Comment != "" {
		fmt.Fprintf(&b, "\n%s\n", rec.Comment)
	}

	if len(rec.Metadata) > 0 {
		keys := make([]string, 0, len(rec.Metadata))
		for k := range rec.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("\nMetadata:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %v\n", k, rec.Metadata[k])
		}
	}

	if rec.AttachmentRef != "" {
		b.WriteString("\nAttachment: ")
		b.WriteString(s.attachmentLink(ctx, rec))
		b.WriteString("\n")
	}
	return b.String()
}

// attachmentLink falls back to the bare reference when signing fails; the mail still goes out.
func (s *service) attachmentLink(ctx context.Context, rec *domain.FeedbackRecord) string {
	if s.links == nil {
		return rec.AttachmentRef
	}
	url, err := s.links.PresignedURL(ctx, rec.AttachmentRef, AttachmentLinkTTL)
	if err != nil {
		slog.Warn("failed to presign attachment link", "feedback_id", rec.FeedbackID, "err", err)
		return rec.AttachmentRef
	}
	return fmt.Sprintf("%s (expires in 7 days)", url)
}
