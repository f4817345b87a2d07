package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-feedback-service/internal/application/relay"
	"github.com/go-feedback-service/internal/domain"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRelaySvc struct{ mock.Mock }

func (m *mockRelaySvc) Relay(ctx context.Context, evt domain.SubmissionEvent) (relay.Outcome, error) {
	args := m.Called(ctx, evt)
	return args.Get(0).(relay.Outcome), args.Error(1)
}

type mockConfirmer struct{ mock.Mock }

func (m *mockConfirmer) ConfirmSubscription(ctx context.Context, topicARN, token string) error {
	return m.Called(ctx, topicARN, token).Error(0)
}

const eventJSON = `{"event_id":"e-1","action":"feedback.submitted","feedback_id":"01HZX3K","product_name":"Widget","submitted_at":"2024-05-01T12:30:00Z"}`

func snsRequest(t *testing.T, msgType string, env snsEnvelope) *http.Request {
	t.Helper()
	body, err := json.Marshal(env)
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/v1/relay/sns", strings.NewReader(string(body)))
	r.Header.Set(snsTypeHeader, msgType)
	return r
}

func TestRelaySNS_Notification_Ack(t *testing.T) {
	svc := &mockRelaySvc{}
	svc.On("Relay", mock.Anything, mock.MatchedBy(func(evt domain.SubmissionEvent) bool {
		return evt.FeedbackID == "01HZX3K" && evt.Action == domain.ActionFeedbackSubmitted
	})).Return(relay.Ack, nil)

	rr := httptest.NewRecorder()
	NewRelayHandler(svc, nil).SNS(rr, snsRequest(t, snsTypeNotification, snsEnvelope{Type: snsTypeNotification, Message: eventJSON}))

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestRelaySNS_Notification_Retry(t *testing.T) {
	svc := &mockRelaySvc{}
	svc.On("Relay", mock.Anything, mock.Anything).Return(relay.Retry, domain.ErrTransientBackend)

	rr := httptest.NewRecorder()
	NewRelayHandler(svc, nil).SNS(rr, snsRequest(t, snsTypeNotification, snsEnvelope{Type: snsTypeNotification, Message: eventJSON}))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "retry", decodeEnvelope(t, rr).Message)
}

func TestRelaySNS_RawDelivery(t *testing.T) {
	svc := &mockRelaySvc{}
	svc.On("Relay", mock.Anything, mock.Anything).Return(relay.Ack, nil)

	r := httptest.NewRequest(http.MethodPost, "/v1/relay/sns", strings.NewReader(eventJSON))
	rr := httptest.NewRecorder()
	NewRelayHandler(svc, nil).SNS(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertNumberOfCalls(t, "Relay", 1)
}

func TestRelaySNS_RawDelivery_NotificationHeader(t *testing.T) {
	svc := &mockRelaySvc{}
	svc.On("Relay", mock.Anything, mock.MatchedBy(func(evt domain.SubmissionEvent) bool {
		return evt.FeedbackID == "01HZX3K"
	})).Return(relay.Ack, nil)

	r := httptest.NewRequest(http.MethodPost, "/v1/relay/sns", strings.NewReader(eventJSON))
	r.Header.Set(snsTypeHeader, snsTypeNotification)
	r.Header.Set(snsRawHeader, "true")
	rr := httptest.NewRecorder()
	NewRelayHandler(svc, nil).SNS(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestRelaySNS_RawDelivery_RetryPropagates(t *testing.T) {
	svc := &mockRelaySvc{}
	svc.On("Relay", mock.Anything, mock.Anything).Return(relay.Retry, domain.ErrTransientBackend)

	r := httptest.NewRequest(http.MethodPost, "/v1/relay/sns", strings.NewReader(eventJSON))
	r.Header.Set(snsTypeHeader, snsTypeNotification)
	r.Header.Set(snsRawHeader, "true")
	rr := httptest.NewRecorder()
	NewRelayHandler(svc, nil).SNS(rr, r)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRelaySNS_MalformedEvent_Acked(t *testing.T) {
	svc := &mockRelaySvc{}
	r := httptest.NewRequest(http.MethodPost, "/v1/relay/sns", strings.NewReader("{oops"))
	rr := httptest.NewRecorder()
	NewRelayHandler(svc, nil).SNS(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertNotCalled(t, "Relay", mock.Anything, mock.Anything)
}

func TestRelaySNS_SubscriptionConfirmation(t *testing.T) {
	confirmer := &mockConfirmer{}
	confirmer.On("ConfirmSubscription", mock.Anything, "arn:topic", "tok-1").Return(nil)

	rr := httptest.NewRecorder()
	NewRelayHandler(&mockRelaySvc{}, confirmer).SNS(rr, snsRequest(t, snsTypeConfirmation,
		snsEnvelope{Type: snsTypeConfirmation, TopicArn: "arn:topic", Token: "tok-1"}))

	assert.Equal(t, http.StatusOK, rr.Code)
	confirmer.AssertExpectations(t)
}

func TestRelaySNS_SubscriptionConfirmation_Fails(t *testing.T) {
	confirmer := &mockConfirmer{}
	confirmer.On("ConfirmSubscription", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.Transient("sns confirm subscription", assert.AnError))

	rr := httptest.NewRecorder()
	NewRelayHandler(&mockRelaySvc{}, confirmer).SNS(rr, snsRequest(t, snsTypeConfirmation,
		snsEnvelope{Type: snsTypeConfirmation, TopicArn: "arn:topic", Token: "tok-1"}))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
