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

// PushConfig holds the push gateway configuration.
type PushConfig struct {
	GatewayURL string `env:"PUSH_GATEWAY_URL,required"`
	ServerKey  string `env:"PUSH_SERVER_KEY,required"`
}

// PushAdapter delivers notifications to the recipient's registered
// devices through an FCM-style HTTP gateway. One attempt fans out to
// every endpoint; it succeeds when at least one device accepts.
type PushAdapter struct {
	cfg    PushConfig
	client *http.Client
}

// NewPushAdapter builds the push gateway adapter. A nil http client
// falls back to http.DefaultClient.
func NewPushAdapter(cfg PushConfig, client *http.Client) (*PushAdapter, error) {
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("%w: push gateway URL is required", ErrInvalidConfig)
	}
	if cfg.ServerKey == "" {
		return nil, fmt.Errorf("%w: push server key is required", ErrInvalidConfig)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &PushAdapter{cfg: cfg, client: client}, nil
}

func (a *PushAdapter) Channel() notify.Channel { return notify.ChannelPush }

func (a *PushAdapter) Send(ctx context.Context, req notify.Request, rcpt notify.Profile) (notify.Outcome, error) {
	if out, ok := declineExpired(req); ok {
		return out, nil
	}
	if len(rcpt.PushEndpoints) == 0 {
		return notify.Outcome{}, fmt.Errorf("%w: push", ErrNoContact)
	}

	var (
		lastID  string
		lastErr error
		okCount int
	)
	for _, endpoint := range rcpt.PushEndpoints {
		id, err := a.sendOne(ctx, endpoint, req)
		if err != nil {
			lastErr = err
			continue
		}
		okCount++
		lastID = id
	}
	if okCount == 0 {
		return notify.Outcome{}, errors.Join(ErrSendFailed, lastErr)
	}
	return notify.Outcome{Provider: "push-gateway", MessageID: lastID}, nil
}

func (a *PushAdapter) sendOne(ctx context.Context, endpoint string, req notify.Request) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"to": endpoint,
		"notification": map[string]string{
			"title": req.Title,
			"body":  req.Body,
		},
		"data": map[string]any{
			"notification_id": req.ID,
			"priority":        string(req.Priority),
			"category":        req.Category,
			"action_url":      req.ActionURL,
		},
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.GatewayURL+"/send", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "key="+a.cfg.ServerKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("push gateway returned %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		MessageID string `json:"message_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.MessageID, nil
}
