package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
)

// mailerTimeout bounds the provider round trip; past it the dispatch
// fails rather than hangs.
const mailerTimeout = 10 * time.Second

// sendEmailRequest is the wire shape the SMTP provider expects.
type sendEmailRequest struct {
	APIKey   string   `json:"api_key"`
	To       []string `json:"to"`
	Sender   string   `json:"sender"`
	Subject  string   `json:"subject"`
	TextBody string   `json:"text_body"`
	HTMLBody string   `json:"html_body"`
}

// SMTPProviderMailer dispatches verification messages through a
// third-party HTTP email API.
type SMTPProviderMailer struct {
	apiKey  string
	sendURL string
	sender  string
	client  *http.Client
	logger  Logger
}

// NewSMTPProviderMailer fails fast on missing provider configuration;
// a half-configured mailer would fail every enclosing request anyway.
func NewSMTPProviderMailer(cfg *Config) (*SMTPProviderMailer, error) {
	if cfg.SMTPProviderAPIKey == "" || cfg.SMTPProviderBaseURL == "" || cfg.SMTPProviderSendEndpoint == "" {
		return nil, ErrMissingSecret
	}

	return &SMTPProviderMailer{
		apiKey:  cfg.SMTPProviderAPIKey,
		sendURL: cfg.SMTPProviderBaseURL + cfg.SMTPProviderSendEndpoint,
		sender:  cfg.EmailSender,
		client:  &http.Client{Timeout: mailerTimeout},
		logger:  defLogger{},
	}, nil
}

func (m *SMTPProviderMailer) WithLogger(logger Logger) *SMTPProviderMailer {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithHTTPClient overrides the transport, used by tests.
func (m *SMTPProviderMailer) WithHTTPClient(client *http.Client) *SMTPProviderMailer {
	if client != nil {
		m.client = client
	}
	return m
}

// Send posts the templated verification message. A non-2xx provider
// response is an upstream failure surfaced to the caller; there is no
// retry at this layer.
func (m *SMTPProviderMailer) Send(ctx context.Context, email, verificationURL string) error {
	payload := sendEmailRequest{
		APIKey:   m.apiKey,
		To:       []string{fmt.Sprintf("<%s>", email)},
		Sender:   m.sender,
		Subject:  "Email Authorization",
		TextBody: fmt.Sprintf("Your password reset link is: %s\n\nThis link will expire in 10 minutes.", verificationURL),
		HTMLBody: fmt.Sprintf(`<p>Your password reset link is: <a href="%s">%s</a></p><p>This link will expire in 10 minutes.</p>`, verificationURL, verificationURL),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to serialize email request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.sendURL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to build email request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Error("email dispatch transport error", "error", err)
		return errors.Wrap(err, ErrMailerFailed.Category, ErrMailerFailed.Message).
			WithTextCode(TextCodeMailerFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		m.logger.Error("email dispatch provider error", "status", resp.StatusCode)
		return ErrMailerFailed
	}

	return nil
}
