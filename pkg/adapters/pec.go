package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/servicekit/notify/pkg/notify"
)

// PECConfig holds the certified-mail SMTP relay configuration. PEC
// (posta elettronica certificata) delivery goes through a dedicated
// certified relay, not the regular transactional provider.
type PECConfig struct {
	Host     string `env:"PEC_SMTP_HOST,required"`
	Port     string `env:"PEC_SMTP_PORT" envDefault:"587"`
	Username string `env:"PEC_SMTP_USER"`
	Password string `env:"PEC_SMTP_PASS"`
	From     string `env:"PEC_FROM,required"`
	// DefaultRecipient receives certified copies when the profile has no
	// PEC address, e.g. a legal archive mailbox.
	DefaultRecipient string `env:"PEC_DEFAULT_RECIPIENT"`
}

// sendMailFunc matches smtp.SendMail, swappable in tests.
type sendMailFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// PECAdapter delivers notifications as certified mail over SMTP.
type PECAdapter struct {
	cfg      PECConfig
	sendMail sendMailFunc
}

// NewPECAdapter builds the certified-mail adapter.
func NewPECAdapter(cfg PECConfig) (*PECAdapter, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: PEC SMTP host is required", ErrInvalidConfig)
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("%w: PEC sender address is required", ErrInvalidConfig)
	}
	return &PECAdapter{cfg: cfg, sendMail: smtp.SendMail}, nil
}

func (a *PECAdapter) Channel() notify.Channel { return notify.ChannelPEC }

func (a *PECAdapter) Send(ctx context.Context, req notify.Request, rcpt notify.Profile) (notify.Outcome, error) {
	if out, ok := declineExpired(req); ok {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return notify.Outcome{}, err
	}

	to := rcpt.PECAddress
	if to == "" {
		to = a.cfg.DefaultRecipient
	}
	if to == "" {
		return notify.Outcome{}, fmt.Errorf("%w: pec", ErrNoContact)
	}

	subject := req.Title
	headers := []string{
		fmt.Sprintf("From: %s", a.cfg.From),
		fmt.Sprintf("To: %s", to),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}
	if req.Priority == notify.PriorityCritical || req.Priority == notify.PriorityUrgent {
		subject = "[PRIORITY] " + subject
		headers = append(headers,
			"X-Priority: 1",
			fmt.Sprintf("Disposition-Notification-To: %s", a.cfg.From),
		)
	}
	headers = append(headers, fmt.Sprintf("Subject: %s", subject))

	body := req.Body
	if req.ActionURL != "" {
		body = fmt.Sprintf("%s\n\n%s", body, req.ActionURL)
	}
	data := strings.Join(headers, "\r\n") + "\r\n\r\n" + body

	var auth smtp.Auth
	if a.cfg.Username != "" || a.cfg.Password != "" {
		auth = smtp.PlainAuth("", a.cfg.Username, a.cfg.Password, a.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%s", a.cfg.Host, a.cfg.Port)
	if err := a.sendMail(addr, auth, a.cfg.From, []string{to}, []byte(data)); err != nil {
		return notify.Outcome{}, errors.Join(ErrSendFailed, err)
	}
	return notify.Outcome{Provider: "pec-smtp", MessageID: req.ID}, nil
}
