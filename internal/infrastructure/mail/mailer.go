package mail

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-feedback-service/internal/domain"
	"github.com/resend/resend-go/v2"
)

// Message is a plain-text mail addressed to a single recipient.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	Headers map[string]string
}

// Mailer delivers messages through the Resend REST API.
type Mailer struct {
	client *resend.Client
}

func NewMailer(apiKey string, timeout time.Duration) *Mailer {
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: statusRecorder{next: http.DefaultTransport},
	}
	return &Mailer{client: resend.NewCustomClient(httpClient, apiKey)}
}

// Send returns the provider message id. Failures wrap domain.ErrTransientBackend
// when a retry may succeed and domain.ErrPermanentProvider otherwise.
func (m *Mailer) Send(ctx context.Context, msg Message) (string, error) {
	status := 0
	ctx = context.WithValue(ctx, statusKey{}, &status)

	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		Headers: msg.Headers,
	})
	if err != nil {
		return "", classify(status, err)
	}
	return sent.Id, nil
}

func classify(status int, err error) error {
	switch {
	case status == 0, status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return domain.Transient(fmt.Sprintf("resend send (status %d)", status), err)
	default:
		return fmt.Errorf("resend send (status %d): %w: %w", status, domain.ErrPermanentProvider, err)
	}
}

type statusKey struct{}

// statusRecorder copies the response status into the *int stored under statusKey,
// since the client library folds it into an opaque error.
type statusRecorder struct {
	next http.RoundTripper
}

func (t statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err == nil {
		if p, ok := req.Context().Value(statusKey{}).(*int); ok {
			*p = resp.StatusCode
		}
	}
	return resp, err
}
