package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Sender delivers a login code to a phone number over WhatsApp.
type Sender interface {
	SendCode(ctx context.Context, phone string, code string) error
	ProviderID() string
}

// WebhookSender forwards codes to a WhatsApp gateway webhook. The
// gateway owns session state and templating; this side only posts the
// phone and code.
type WebhookSender struct {
	url   string
	token string
	http  *http.Client
}

func NewWebhookSender(url string, token string) *WebhookSender {
	return &WebhookSender{
		url:   strings.TrimSpace(url),
		token: strings.TrimSpace(token),
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (s *WebhookSender) ProviderID() string {
	return "whatsapp-webhook"
}

func (s *WebhookSender) SendCode(ctx context.Context, phone string, code string) error {
	if s.url == "" {
		return errors.New("whatsapp webhook url not configured")
	}
	payload := map[string]string{
		"phone": phone,
		"code":  code,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("whatsapp webhook returned non-2xx")
	}
	return nil
}

// NoopSender stands in when no gateway is configured, e.g. local
// development where codes are read from the relay log.
type NoopSender struct{}

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

func (s *NoopSender) ProviderID() string {
	return "whatsapp-noop"
}

func (s *NoopSender) SendCode(_ context.Context, _ string, _ string) error {
	return nil
}
