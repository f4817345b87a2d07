package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-feedback-service/internal/application/relay"
	"github.com/go-feedback-service/internal/domain"
	"github.com/goccy/go-json"
)

const (
	snsTypeHeader        = "x-amz-sns-message-type"
	snsRawHeader         = "x-amz-sns-rawdelivery"
	snsTypeConfirmation  = "SubscriptionConfirmation"
	snsTypeNotification  = "Notification"
	snsTypeUnsubscribe   = "UnsubscribeConfirmation"
	maxNotificationBytes = 256 << 10
)

type subscriptionConfirmer interface {
	ConfirmSubscription(ctx context.Context, topicARN, token string) error
}

// snsEnvelope is the JSON document SNS posts to HTTP subscribers.
type snsEnvelope struct {
	Type      string `json:"Type"`
	MessageID string `json:"MessageId"`
	Token     string `json:"Token"`
	TopicArn  string `json:"TopicArn"`
	Message   string `json:"Message"`
}

// RelayHandler receives SNS push deliveries and hands submission events to the relay.
// A 2xx response acknowledges the delivery; anything else makes SNS redeliver.
type RelayHandler struct {
	svc       relay.Service
	confirmer subscriptionConfirmer
}

func NewRelayHandler(svc relay.Service, confirmer subscriptionConfirmer) *RelayHandler {
	return &RelayHandler{svc: svc, confirmer: confirmer}
}

func (h *RelayHandler) SNS(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxNotificationBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "could not read request body")
		return
	}

	// Raw message delivery posts the event itself. SNS still sets the
	// message type header to Notification on those requests.
	msgType := r.Header.Get(snsTypeHeader)
	if msgType == "" || r.Header.Get(snsRawHeader) == "true" {
		h.relay(w, r, body)
		return
	}

	var env snsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		slog.Warn("dropping malformed sns envelope", "err", err)
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: relay.Ack.String()})
		return
	}

	switch msgType {
	case snsTypeConfirmation:
		if h.confirmer == nil {
			writeError(w, http.StatusServiceUnavailable, codeTransient, "subscription confirmation unavailable")
			return
		}
		if err := h.confirmer.ConfirmSubscription(r.Context(), env.TopicArn, env.Token); err != nil {
			writeServiceError(w, r, err)
			return
		}
		slog.Info("sns subscription confirmed", "topic_arn", env.TopicArn)
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "subscribed"})
	case snsTypeNotification:
		h.relay(w, r, []byte(env.Message))
	case snsTypeUnsubscribe:
		slog.Warn("sns subscription removed", "topic_arn", env.TopicArn)
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: relay.Ack.String()})
	default:
		slog.Info("ignoring sns message", "type", msgType, "message_id", env.MessageID)
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: relay.Ack.String()})
	}
}

func (h *RelayHandler) relay(w http.ResponseWriter, r *http.Request, payload []byte) {
	var evt domain.SubmissionEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		// Redelivery cannot repair a malformed event.
		slog.Warn("dropping malformed submission event", "err", err)
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: relay.Ack.String()})
		return
	}

	outcome, err := h.svc.Relay(r.Context(), evt)
	if outcome == relay.Retry {
		writeJSON(w, http.StatusServiceUnavailable, MessageEnvelope{
			Message:   relay.Retry.String(),
			Error:     "delivery failed, redeliver later",
			ErrorCode: codeTransient,
		})
		return
	}
	resp := MessageEnvelope{Message: relay.Ack.String()}
	if err != nil {
		resp.Error = "event acknowledged without delivery"
	}
	writeJSON(w, http.StatusOK, resp)
}
