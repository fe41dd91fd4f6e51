// Package notify delivers reminder texts to a client's phone.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Sender delivers one text. to is the phone as stored on the appointment.
type Sender interface {
	Send(ctx context.Context, to string, body string) error
	ProviderID() string
}

var ErrNoRecipient = errors.New("recipient phone is empty")

// smsPayload is what a webhook gateway receives.
type smsPayload struct {
	To      string `json:"to"`
	Body    string `json:"body"`
	Channel string `json:"channel"`
}

// WebhookSender posts reminders to an SMS gateway of the operator's choice.
type WebhookSender struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewWebhookSender(endpoint, token string) *WebhookSender {
	return &WebhookSender{
		endpoint: strings.TrimSpace(endpoint),
		token:    strings.TrimSpace(token),
		client: &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (s *WebhookSender) ProviderID() string { return "sms-webhook" }

func (s *WebhookSender) Send(ctx context.Context, to string, body string) error {
	if s.endpoint == "" {
		return errors.New("sms webhook url not configured")
	}
	phone := E164(to)
	if phone == "" {
		return ErrNoRecipient
	}
	raw, err := json.Marshal(smsPayload{To: phone, Body: body, Channel: "sms"})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("sms webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

// NoopSender accepts every reminder and delivers none.
type NoopSender struct{}

func (NoopSender) ProviderID() string { return "sms-noop" }

func (NoopSender) Send(context.Context, string, string) error { return nil }
