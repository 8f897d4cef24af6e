package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/servicekit/notify/pkg/failover"
	"github.com/servicekit/notify/pkg/notify"
)

// WhatsAppAdapter delivers notifications through a failover-managed pair
// of messaging providers: a self-hosted session gateway as primary and
// the hosted Cloud API as backup.
type WhatsAppAdapter struct {
	manager *failover.Manager
}

// NewWhatsAppAdapter wraps a failover manager. The manager's health loop
// lifecycle (Start/Stop) belongs to the caller.
func NewWhatsAppAdapter(manager *failover.Manager) (*WhatsAppAdapter, error) {
	if manager == nil {
		return nil, fmt.Errorf("%w: failover manager is required", ErrInvalidConfig)
	}
	return &WhatsAppAdapter{manager: manager}, nil
}

func (a *WhatsAppAdapter) Channel() notify.Channel { return notify.ChannelWhatsApp }

func (a *WhatsAppAdapter) Send(ctx context.Context, req notify.Request, rcpt notify.Profile) (notify.Outcome, error) {
	if out, ok := declineExpired(req); ok {
		return out, nil
	}
	if rcpt.WhatsAppNumber == "" {
		return notify.Outcome{}, fmt.Errorf("%w: whatsapp", ErrNoContact)
	}

	provider, id, err := a.manager.Send(ctx, rcpt.WhatsAppNumber, formatWhatsAppBody(req))
	if err != nil {
		return notify.Outcome{}, errors.Join(ErrSendFailed, err)
	}
	return notify.Outcome{Provider: provider, MessageID: id}, nil
}

// formatWhatsAppBody renders the message with WhatsApp markup: bold
// title, urgency prefix for the top tiers, trailing action link.
func formatWhatsAppBody(req notify.Request) string {
	var b strings.Builder
	if req.Priority == notify.PriorityCritical || req.Priority == notify.PriorityUrgent {
		b.WriteString("[URGENT] ")
	}
	b.WriteString("*")
	b.WriteString(req.Title)
	b.WriteString("*\n\n")
	b.WriteString(req.Body)
	if req.ActionURL != "" {
		label := req.ActionLabel
		if label == "" {
			label = "Open"
		}
		b.WriteString("\n\n")
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(req.ActionURL)
	}
	return b.String()
}

// WPPConnectConfig holds the self-hosted session gateway configuration.
type WPPConnectConfig struct {
	BaseURL string `env:"WPPCONNECT_BASE_URL,required"`
	Session string `env:"WPPCONNECT_SESSION,required"`
	Token   string `env:"WPPCONNECT_TOKEN,required"`
}

// WPPConnectProvider is the primary messaging backend: a self-hosted
// session gateway whose session can drop and must be probed.
type WPPConnectProvider struct {
	cfg    WPPConnectConfig
	client *http.Client
}

// NewWPPConnectProvider builds the session gateway provider. A nil http
// client falls back to http.DefaultClient.
func NewWPPConnectProvider(cfg WPPConnectConfig, client *http.Client) (*WPPConnectProvider, error) {
	if cfg.BaseURL == "" || cfg.Session == "" || cfg.Token == "" {
		return nil, fmt.Errorf("%w: wppconnect base url, session and token are required", ErrInvalidConfig)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &WPPConnectProvider{cfg: cfg, client: client}, nil
}

func (p *WPPConnectProvider) Name() string { return "wppconnect" }

func (p *WPPConnectProvider) Send(ctx context.Context, to, message string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"phone":   to,
		"message": message,
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/api/%s/send-message", p.cfg.BaseURL, p.cfg.Session)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.Token)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("wppconnect returned %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// Probe checks the gateway session state; anything but CONNECTED is
// unhealthy.
func (p *WPPConnectProvider) Probe(ctx context.Context) error {
	url := fmt.Sprintf("%s/api/%s/status-session", p.cfg.BaseURL, p.cfg.Session)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.Token)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("wppconnect status returned %d", resp.StatusCode)
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if result.Status != "CONNECTED" {
		return fmt.Errorf("wppconnect session not connected: %s", result.Status)
	}
	return nil
}

// CloudAPIConfig holds the hosted Cloud API configuration.
type CloudAPIConfig struct {
	BaseURL       string `env:"WA_CLOUD_BASE_URL" envDefault:"https://graph.facebook.com/v19.0"`
	PhoneNumberID string `env:"WA_CLOUD_PHONE_NUMBER_ID,required"`
	AccessToken   string `env:"WA_CLOUD_ACCESS_TOKEN,required"`
}

// CloudAPIProvider is the backup messaging backend, the hosted Cloud API.
type CloudAPIProvider struct {
	cfg    CloudAPIConfig
	client *http.Client
}

// NewCloudAPIProvider builds the Cloud API provider. A nil http client
// falls back to http.DefaultClient.
func NewCloudAPIProvider(cfg CloudAPIConfig, client *http.Client) (*CloudAPIProvider, error) {
	if cfg.PhoneNumberID == "" || cfg.AccessToken == "" {
		return nil, fmt.Errorf("%w: cloud api phone number id and access token are required", ErrInvalidConfig)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &CloudAPIProvider{cfg: cfg, client: client}, nil
}

func (p *CloudAPIProvider) Name() string { return "cloud-api" }

func (p *CloudAPIProvider) Send(ctx context.Context, to, message string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": message},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s/messages", p.cfg.BaseURL, p.cfg.PhoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.AccessToken)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("cloud api returned %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Messages) == 0 {
		return "", errors.New("cloud api response carried no message id")
	}
	return result.Messages[0].ID, nil
}

// Probe verifies the access token by fetching the phone number resource.
func (p *CloudAPIProvider) Probe(ctx context.Context) error {
	url := fmt.Sprintf("%s/%s", p.cfg.BaseURL, p.cfg.PhoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.AccessToken)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("cloud api status returned %d", resp.StatusCode)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if result.ID == "" {
		return errors.New("cloud api returned empty phone number resource")
	}
	return nil
}
