package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/servicekit/notify/pkg/notify"
)

// smsMaxLength caps the body to a single SMS segment.
const smsMaxLength = 160

// SMSConfig holds the SMS gateway configuration.
type SMSConfig struct {
	GatewayURL string `env:"SMS_GATEWAY_URL,required"`
	APIKey     string `env:"SMS_API_KEY,required"`
	SenderID   string `env:"SMS_SENDER_ID" envDefault:"notify"`
}

// SMSAdapter delivers notifications as text messages through an
// HTTP gateway.
type SMSAdapter struct {
	cfg    SMSConfig
	client *http.Client
}

// NewSMSAdapter builds the SMS gateway adapter. A nil http client falls
// back to http.DefaultClient.
func NewSMSAdapter(cfg SMSConfig, client *http.Client) (*SMSAdapter, error) {
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("%w: SMS gateway URL is required", ErrInvalidConfig)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: SMS API key is required", ErrInvalidConfig)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &SMSAdapter{cfg: cfg, client: client}, nil
}

func (a *SMSAdapter) Channel() notify.Channel { return notify.ChannelSMS }

func (a *SMSAdapter) Send(ctx context.Context, req notify.Request, rcpt notify.Profile) (notify.Outcome, error) {
	if out, ok := declineExpired(req); ok {
		return out, nil
	}
	if rcpt.Phone == "" {
		return notify.Outcome{}, fmt.Errorf("%w: phone", ErrNoContact)
	}

	text := req.Title + ": " + req.Body
	if runes := []rune(text); len(runes) > smsMaxLength {
		text = string(runes[:smsMaxLength-3]) + "..."
	}

	payload, err := json.Marshal(map[string]string{
		"to":     rcpt.Phone,
		"from":   a.cfg.SenderID,
		"text":   text,
		"ref_id": req.ID,
	})
	if err != nil {
		return notify.Outcome{}, errors.Join(ErrSendFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.GatewayURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return notify.Outcome{}, errors.Join(ErrSendFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return notify.Outcome{}, errors.Join(ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return notify.Outcome{}, errors.Join(
			ErrSendFailed,
			fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, string(body)),
		)
	}

	var result struct {
		MessageID string `json:"message_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return notify.Outcome{}, errors.Join(ErrSendFailed, err)
	}
	return notify.Outcome{Provider: "sms-gateway", MessageID: result.MessageID}, nil
}
