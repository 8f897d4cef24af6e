package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mrz1836/postmark"

	"github.com/servicekit/notify/pkg/logger"
	"github.com/servicekit/notify/pkg/notify"
	"github.com/servicekit/notify/pkg/template"
)

// EmailConfig holds the Postmark-backed email adapter configuration.
// Tokens are optional so development environments can fall back to the
// logging adapter.
type EmailConfig struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	ReplyToEmail         string `env:"REPLY_TO_EMAIL"`
}

type emailSender interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// EmailAdapter delivers notifications as transactional email through
// Postmark.
type EmailAdapter struct {
	client   emailSender
	cfg      EmailConfig
	renderer template.Renderer
}

// EmailOption configures the email adapter.
type EmailOption func(*EmailAdapter)

// WithRenderer sets a template renderer. When the notification category
// resolves to a registered template, the rendered subject and body replace
// the raw title and body; otherwise the raw values are used as-is.
func WithRenderer(r template.Renderer) EmailOption {
	return func(a *EmailAdapter) {
		a.renderer = r
	}
}

// NewEmailAdapter builds the Postmark email adapter.
func NewEmailAdapter(cfg EmailConfig, opts ...EmailOption) (*EmailAdapter, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("%w: SenderEmail is required", ErrInvalidConfig)
	}
	a := &EmailAdapter{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *EmailAdapter) Channel() notify.Channel { return notify.ChannelEmail }

func (a *EmailAdapter) Send(ctx context.Context, req notify.Request, rcpt notify.Profile) (notify.Outcome, error) {
	if out, ok := declineExpired(req); ok {
		return out, nil
	}
	if rcpt.Email == "" {
		return notify.Outcome{}, fmt.Errorf("%w: email", ErrNoContact)
	}

	subject, body := req.Title, req.Body
	if a.renderer != nil && req.Category != "" {
		if s, b, err := a.renderer.Render(req.Category, templateVars(req)); err == nil {
			subject, body = s, b
		}
	}
	if req.ActionURL != "" {
		label := req.ActionLabel
		if label == "" {
			label = req.ActionURL
		}
		body = fmt.Sprintf("%s\n\n%s: %s", body, label, req.ActionURL)
	}

	resp, err := a.client.SendEmail(ctx, postmark.Email{
		From:       a.cfg.SenderEmail,
		ReplyTo:    a.cfg.ReplyToEmail,
		To:         rcpt.Email,
		Subject:    subject,
		Tag:        req.Category,
		TextBody:   body,
		TrackOpens: true,
	})
	if err != nil {
		return notify.Outcome{}, errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return notify.Outcome{}, errors.Join(
			ErrSendFailed,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return notify.Outcome{Provider: "postmark", MessageID: resp.MessageID}, nil
}

// templateVars exposes the notification fields and string payload values
// as substitution variables.
func templateVars(req notify.Request) template.Vars {
	vars := template.Vars{
		"title": req.Title,
		"body":  req.Body,
	}
	for k, v := range req.Data {
		if s, ok := v.(string); ok {
			vars[k] = s
		}
	}
	return vars
}

// DevEmailAdapter logs emails instead of sending them. For local
// development without Postmark credentials.
type DevEmailAdapter struct {
	logger *slog.Logger
}

// NewDevEmailAdapter returns a logging email adapter.
func NewDevEmailAdapter(log *slog.Logger) *DevEmailAdapter {
	if log == nil {
		log = slog.Default()
	}
	return &DevEmailAdapter{logger: log}
}

func (a *DevEmailAdapter) Channel() notify.Channel { return notify.ChannelEmail }

func (a *DevEmailAdapter) Send(ctx context.Context, req notify.Request, rcpt notify.Profile) (notify.Outcome, error) {
	if rcpt.Email == "" {
		return notify.Outcome{}, fmt.Errorf("%w: email", ErrNoContact)
	}
	a.logger.InfoContext(ctx, "dev email",
		logger.NotificationID(req.ID),
		slog.String("to", rcpt.Email),
		slog.String("subject", req.Title))
	return notify.Outcome{Provider: "dev", MessageID: req.ID}, nil
}
