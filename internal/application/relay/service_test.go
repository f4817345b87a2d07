package relay

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-feedback-service/internal/domain"
	"github.com/go-feedback-service/internal/infrastructure/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockRecordStore struct{ mock.Mock }

func (m *mockRecordStore) Get(ctx context.Context, feedbackID string) (*domain.FeedbackRecord, error) {
	args := m.Called(ctx, feedbackID)
	if r, _ := args.Get(0).(*domain.FeedbackRecord); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockLinkSigner struct{ mock.Mock }

func (m *mockLinkSigner) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, msg mail.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

// --- helpers ---

func newService(rs *mockRecordStore, ls *mockLinkSigner, ml *mockMailer) Service {
	deps := ServiceDeps{
		Records:   rs,
		Links:     ls,
		Sender:    "feedback@example.com",
		Recipient: "support@example.com",
	}
	if ml != nil {
		deps.Mailer = ml
	}
	return NewService(deps)
}

func event(id string) domain.SubmissionEvent {
	return domain.SubmissionEvent{EventID: "e-1", Action: domain.ActionFeedbackSubmitted, FeedbackID: id}
}

func record() *domain.FeedbackRecord {
	return &domain.FeedbackRecord{
		FeedbackID:    "01HZX3K",
		CreatedAt:     time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
		ProductName:   "Widget",
		Comment:       "Great app!",
		AttachmentRef: "uploads/01HZX3K/app.log",
		Metadata:      map[string]any{"version": "1.2", "os": "macOS", "build": 42, "beta": true},
		ClientIP:      "10.0.0.1",
	}
}

// --- tests ---

func TestRelay_Delivers(t *testing.T) {
	rs, ls, ml := &mockRecordStore{}, &mockLinkSigner{}, &mockMailer{}
	rs.On("Get", mock.Anything, "01HZX3K").Return(record(), nil)
	ls.On("PresignedURL", mock.Anything, "uploads/01HZX3K/app.log", AttachmentLinkTTL).Return("https://s3/signed", nil)
	ml.On("Send", mock.Anything, mock.Anything).Return("msg-42", nil)

	out, err := newService(rs, ls, ml).Relay(context.Background(), event("01HZX3K"))

	require.NoError(t, err)
	assert.Equal(t, Ack, out)
	msg := ml.Calls[0].Arguments.Get(1).(mail.Message)
	assert.Equal(t, "[Widget] Feedback 01HZX3K", msg.Subject)
	assert.Equal(t, "feedback@example.com", msg.From)
	assert.Equal(t, "support@example.com", msg.To)
	assert.Equal(t, originMailer, msg.Headers["X-Origin-Mailer"])
	assert.Contains(t, msg.Text, "Great app!")
	assert.Contains(t, msg.Text, "Client IP: 10.0.0.1")
	assert.Contains(t, msg.Text, "https://s3/signed")
	assert.Less(t, strings.Index(msg.Text, "os: macOS"), strings.Index(msg.Text, "version: 1.2"))
	assert.Contains(t, msg.Text, "build: 42")
	assert.Contains(t, msg.Text, "beta: true")
}

func TestRelay_TransientProviderFailure_Retry(t *testing.T) {
	rs, ls, ml := &mockRecordStore{}, &mockLinkSigner{}, &mockMailer{}
	rec := record()
	rec.AttachmentRef = ""
	rs.On("Get", mock.Anything, "01HZX3K").Return(rec, nil)
	ml.On("Send", mock.Anything, mock.Anything).Return("", domain.Transient("resend send (status 429)", errors.New("rate limited")))

	out, err := newService(rs, ls, ml).Relay(context.Background(), event("01HZX3K"))

	assert.Equal(t, Retry, out)
	assert.ErrorIs(t, err, domain.ErrTransientBackend)
	ls.AssertNotCalled(t, "PresignedURL", mock.Anything, mock.Anything, mock.Anything)
}

func TestRelay_PermanentProviderFailure_Ack(t *testing.T) {
	rs, ls, ml := &mockRecordStore{}, &mockLinkSigner{}, &mockMailer{}
	rec := record()
	rec.AttachmentRef = ""
	rs.On("Get", mock.Anything, "01HZX3K").Return(rec, nil)
	ml.On("Send", mock.Anything, mock.Anything).Return("", domain.ErrPermanentProvider)

	out, err := newService(rs, ls, ml).Relay(context.Background(), event("01HZX3K"))

	assert.Equal(t, Ack, out)
	assert.ErrorIs(t, err, domain.ErrPermanentProvider)
}

func TestRelay_RecordGone_Ack(t *testing.T) {
	rs, ls, ml := &mockRecordStore{}, &mockLinkSigner{}, &mockMailer{}
	rs.On("Get", mock.Anything, "01OLD").Return(nil, domain.ErrNotFound)

	out, _ := newService(rs, ls, ml).Relay(context.Background(), event("01OLD"))

	assert.Equal(t, Ack, out)
	ml.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRelay_StoreDown_Retry(t *testing.T) {
	rs, ls, ml := &mockRecordStore{}, &mockLinkSigner{}, &mockMailer{}
	rs.On("Get", mock.Anything, "01HZX3K").Return(nil, domain.Transient("get feedback", errors.New("timeout")))

	out, err := newService(rs, ls, ml).Relay(context.Background(), event("01HZX3K"))

	assert.Equal(t, Retry, out)
	assert.ErrorIs(t, err, domain.ErrTransientBackend)
}

func TestRelay_PresignFailure_StillSends(t *testing.T) {
	rs, ls, ml := &mockRecordStore{}, &mockLinkSigner{}, &mockMailer{}
	rs.On("Get", mock.Anything, "01HZX3K").Return(record(), nil)
	ls.On("PresignedURL", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("no creds"))
	ml.On("Send", mock.Anything, mock.Anything).Return("msg-1", nil)

	out, err := newService(rs, ls, ml).Relay(context.Background(), event("01HZX3K"))

	require.NoError(t, err)
	assert.Equal(t, Ack, out)
	msg := ml.Calls[0].Arguments.Get(1).(mail.Message)
	assert.Contains(t, msg.Text, "uploads/01HZX3K/app.log")
}

func TestRelay_UnknownAction_Ack(t *testing.T) {
	rs, ls, ml := &mockRecordStore{}, &mockLinkSigner{}, &mockMailer{}

	out, err := newService(rs, ls, ml).Relay(context.Background(), domain.SubmissionEvent{Action: "feedback.archived", FeedbackID: "x"})
	require.NoError(t, err)
	assert.Equal(t, Ack, out)

	out, err = newService(rs, ls, ml).Relay(context.Background(), domain.SubmissionEvent{Action: domain.ActionFeedbackSubmitted})
	require.NoError(t, err)
	assert.Equal(t, Ack, out)
	rs.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestRelay_MailNotConfigured_Ack(t *testing.T) {
	rs, ls := &mockRecordStore{}, &mockLinkSigner{}

	out, err := newService(rs, ls, nil).Relay(context.Background(), event("01HZX3K"))

	assert.Equal(t, Ack, out)
	assert.ErrorIs(t, err, domain.ErrPermanentProvider)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "ack", Ack.String())
	assert.Equal(t, "retry", Retry.String())
}
