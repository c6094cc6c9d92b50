package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultResendBaseURL = "https://api.resend.com"

// ResendTransport delivers email through the Resend REST API.
type ResendTransport struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// ResendOption configures a ResendTransport.
type ResendOption func(*ResendTransport)

// WithResendBaseURL overrides the API endpoint. Used in tests.
func WithResendBaseURL(baseURL string) ResendOption {
	return func(t *ResendTransport) {
		t.baseURL = baseURL
	}
}

// WithResendHTTPClient overrides the HTTP client.
func WithResendHTTPClient(client *http.Client) ResendOption {
	return func(t *ResendTransport) {
		t.httpClient = client
	}
}

// NewResendTransport creates a transport using the given API key.
func NewResendTransport(apiKey string, opts ...ResendOption) *ResendTransport {
	t := &ResendTransport{
		apiKey:  apiKey,
		baseURL: defaultResendBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name implements Transport.
func (t *ResendTransport) Name() string {
	return "resend"
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Send implements Transport. Only 403 (unverified sender, restricted
// recipient) is reported as an authorization failure eligible for fallback;
// a 401 means the API key itself is wrong, which a different transport
// cannot paper over.
func (t *ResendTransport) Send(ctx context.Context, msg Message) error {
	payload := resendRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("resend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: resend returned status %d: %s", ErrNotAuthorized, resp.StatusCode, string(respBody))
	}
	return fmt.Errorf("resend returned status %d: %s", resp.StatusCode, string(respBody))
}
