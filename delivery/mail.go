package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

var ErrEmailNotConfigured = errors.New("email service is not configured")

type EmailConfig struct {
	APIKey   string
	BaseURL  string
	From     string
	FromName string
	Timeout  time.Duration
}

type Attachment struct {
	Name    string
	Content []byte
}

type Email struct {
	To          string
	ToName      string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// BrevoMailer sends transactional mail through the Brevo v3 API.
type BrevoMailer struct {
	config EmailConfig
	client *http.Client
	logger *log.Logger
}

func NewBrevoMailer(config EmailConfig, logger *log.Logger) *BrevoMailer {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.brevo.com/v3"
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &BrevoMailer{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger.With("component", "email"),
	}
}

func (m *BrevoMailer) Configured() bool {
	return m.config.APIKey != "" && m.config.From != ""
}

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoAttachment struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type brevoMessage struct {
	Sender      brevoContact      `json:"sender"`
	To          []brevoContact    `json:"to"`
	Subject     string            `json:"subject"`
	HTMLContent string            `json:"htmlContent"`
	Attachment  []brevoAttachment `json:"attachment,omitempty"`
}

func (m *BrevoMailer) Send(ctx context.Context, email Email) error {
	if !m.Configured() {
		return ErrEmailNotConfigured
	}

	msg := brevoMessage{
		Sender:      brevoContact{Email: m.config.From, Name: m.config.FromName},
		To:          []brevoContact{{Email: email.To, Name: email.ToName}},
		Subject:     email.Subject,
		HTMLContent: email.HTML,
	}
	for _, a := range email.Attachments {
		msg.Attachment = append(msg.Attachment, brevoAttachment{
			Name:    a.Name,
			Content: base64.StdEncoding.EncodeToString(a.Content),
		})
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("error marshaling email: %w", err)
	}

	endpoint := strings.TrimRight(m.config.BaseURL, "/") + "/smtp/email"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", m.config.APIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return fmt.Errorf("email API returned %d: %s", resp.StatusCode, msg)
	}

	var ok struct {
		MessageID string `json:"messageId"`
	}
	_ = json.Unmarshal(body, &ok)
	m.logger.Info("Email sent", "to", email.To, "messageId", ok.MessageID, "attachments", len(email.Attachments))
	return nil
}
