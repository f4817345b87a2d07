package feedback

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-feedback-service/internal/domain"
	"github.com/go-feedback-service/internal/pkg/id"
	"github.com/go-feedback-service/internal/pkg/validate"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	// MaxMetadataBytes bounds the JSON-encoded size of client metadata.
	MaxMetadataBytes = 8 << 10
	excerptRunes     = 200
	defaultTimeout   = 5 * time.Second
)

type Service interface {
	// Submit authenticates, validates and stores one submission, then announces it.
	Submit(ctx context.Context, credential string, input domain.SubmissionInput, clientIP string) (*domain.FeedbackRecord, error)
	// Upload stores an attachment and returns the reference a later Submit can carry.
	Upload(ctx context.Context, filename string, body io.Reader, size int64) (*domain.Upload, error)
}

type authenticator interface {
	Authenticate(presented string) error
}

type recordStore interface {
	Put(ctx context.Context, rec *domain.FeedbackRecord) error
}

type objectStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Upload(ctx context.Context, key string, r io.Reader, size int64) error
}

type eventPublisher interface {
	Publish(ctx context.Context, evt domain.SubmissionEvent) (string, error)
}

type ServiceDeps struct {
	Authenticator  authenticator
	Records        recordStore
	Objects        objectStore
	Publisher      eventPublisher // nil disables event fan-out
	StoreTimeout   time.Duration
	PublishTimeout time.Duration
	MaxUploadBytes int64
	Now            func() time.Time
}

type service struct {
	authn          authenticator
	records        recordStore
	objects        objectStore
	publisher      eventPublisher
	storeTimeout   time.Duration
	publishTimeout time.Duration
	maxUploadBytes int64
	now            func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		authn:          deps.Authenticator,
		records:        deps.Records,
		objects:        deps.Objects,
		publisher:      deps.Publisher,
		storeTimeout:   orDefault(deps.StoreTimeout, defaultTimeout),
		publishTimeout: orDefault(deps.PublishTimeout, defaultTimeout),
		maxUploadBytes: deps.MaxUploadBytes,
		now:            now,
	}
}

func (s *service) Submit(ctx context.Context, credential string, input domain.SubmissionInput, clientIP string) (*domain.FeedbackRecord, error) {
	if err := s.authn.Authenticate(credential); err != nil {
		return nil, err
	}

	input.ProductName = strings.TrimSpace(input.ProductName)
	input.Comment = strings.TrimSpace(input.Comment)
	input.AttachmentRef = strings.TrimSpace(input.AttachmentRef)
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if err := checkMetadata(input.Metadata); err != nil {
		return nil, err
	}
	if input.AttachmentRef != "" {
		if err := s.checkAttachment(ctx, input.AttachmentRef); err != nil {
			return nil, err
		}
	}

	// Identifier and timestamp are assigned at the commit point.
	now := s.now().UTC()
	rec := &domain.FeedbackRecord{
		FeedbackID:    id.NewAt(now),
		CreatedAt:     now,
		ProductName:   input.ProductName,
		Comment:       input.Comment,
		AttachmentRef: input.AttachmentRef,
		Metadata:      input.Metadata,
		ClientIP:      clientIP,
	}
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.records.Put(storeCtx, rec); err != nil {
		return nil, fmt.Errorf("store feedback: %w", err)
	}

	s.publish(ctx, rec)
	return rec, nil
}

// publish never fails the submission: the record is already durable.
func (s *service) publish(ctx context.Context, rec *domain.FeedbackRecord) {
	if s.publisher == nil {
		slog.Warn("event publishing disabled, notification skipped", "feedback_id", rec.FeedbackID)
		return
	}
	evt := domain.SubmissionEvent{
		EventID:        uuid.NewString(),
		Action:         domain.ActionFeedbackSubmitted,
		FeedbackID:     rec.FeedbackID,
		ProductName:    rec.ProductName,
		CommentExcerpt: excerpt(rec.Comment, excerptRunes),
		SubmittedAt:    rec.CreatedAt,
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	msgID, err := s.publisher.Publish(pubCtx, evt)
	if err != nil {
		slog.Error("failed to publish submission event", "feedback_id", rec.FeedbackID, "event_id", evt.EventID, "err", err)
		return
	}
	slog.Info("submission event published", "feedback_id", rec.FeedbackID, "message_id", msgID)
}

func (s *service) checkAttachment(ctx context.Context, ref string) error {
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	ok, err := s.objects.Exists(storeCtx, ref)
	if err != nil {
		return fmt.Errorf("check attachment: %w", err)
	}
	if !ok {
		return domain.Invalid("attachment_ref", "exists")
	}
	return nil
}

func (s *service) Upload(ctx context.Context, filename string, body io.Reader, size int64) (*domain.Upload, error) {
	filename = strings.TrimSpace(filename)
	switch {
	case filename == "":
		return nil, domain.Invalid("filename", "required")
	case size <= 0:
		return nil, domain.Invalid("body", "required")
	case s.maxUploadBytes > 0 && size > s.maxUploadBytes:
		return nil, domain.Invalid("body", "max_size")
	}

	safeName := sanitizeFilename(filename)
	key := fmt.Sprintf("uploads/%s/%s", id.New(), safeName)
	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.objects.Upload(storeCtx, key, body, size); err != nil {
		return nil, fmt.Errorf("store attachment: %w", err)
	}
	return &domain.Upload{Token: key, Filename: safeName, Size: size}, nil
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func checkMetadata(md map[string]any) error {
	if len(md) == 0 {
		return nil
	}
	b, err := json.Marshal(md)
	if err != nil {
		return domain.Invalid("metadata", "json")
	}
	if len(b) > MaxMetadataBytes {
		return domain.Invalid("metadata", "max_size")
	}
	return nil
}

func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in S3 keys.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." && result != ".." {
		return result
	}
	return "_"
}
