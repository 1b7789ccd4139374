// Package notify delivers alert notifications through an outbound email
// transport. SMS rides the same transport via carrier email-to-SMS gateway
// addresses, so a single Send operation covers both channels.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Transport sends one notification to one destination address. A failure
// must be distinguishable from success but is not classified further.
type Transport interface {
	Send(ctx context.Context, to, subject, body string) error
}

// ErrNotConfigured is returned by the disabled transport when no delivery
// credentials were provided. Attempts still get logged, as failed.
var ErrNotConfigured = errors.New("notification transport is not configured")

const defaultEndpoint = "https://api.resend.com/emails"

// Mailer sends email through the Resend HTTP API.
type Mailer struct {
	apiKey   string
	from     string
	endpoint string
	client   *http.Client
}

// NewMailer creates a Mailer. Every send is bounded by timeout; a timed-out
// request surfaces as an ordinary send error.
func NewMailer(apiKey, from string, timeout time.Duration) *Mailer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Mailer{
		apiKey:   apiKey,
		from:     from,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(sendRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		HTML:    body,
	})
	if err != nil {
		return fmt.Errorf("failed to encode send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send to %s: %w", to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send to %s failed with status %d: %s", to, resp.StatusCode, detail)
	}

	return nil
}

// Disabled returns a transport that fails every send. Used when no API key
// is configured so that alert attempts are still recorded, as failed.
func Disabled() Transport {
	return disabledTransport{}
}

type disabledTransport struct{}

func (disabledTransport) Send(ctx context.Context, to, subject, body string) error {
	return ErrNotConfigured
}
