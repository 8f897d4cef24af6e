package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/servicekit/notify/pkg/async"
	"github.com/servicekit/notify/pkg/audit"
	"github.com/servicekit/notify/pkg/logger"
)

// Center orchestrates notification delivery: it validates requests,
// applies the quiet-hours gate and the channel selection policy, fans
// out to adapters concurrently, and records everything in the ledger.
type Center struct {
	profiles  ProfileStore
	ledger    Ledger
	registry  *Registry
	deferrals DeferralStore
	audit     audit.Logger
	logger    *slog.Logger
	now       func() time.Time
}

// CenterOption customizes a Center.
type CenterOption func(*Center)

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) CenterOption {
	return func(c *Center) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) CenterOption {
	return func(c *Center) {
		if now != nil {
			c.now = now
		}
	}
}

// WithAuditLogger sets the audit trail sink.
func WithAuditLogger(al audit.Logger) CenterOption {
	return func(c *Center) {
		if al != nil {
			c.audit = al
		}
	}
}

// NewCenter assembles a delivery orchestrator.
func NewCenter(profiles ProfileStore, ledger Ledger, registry *Registry, deferrals DeferralStore, opts ...CenterOption) *Center {
	c := &Center{
		profiles:  profiles,
		ledger:    ledger,
		registry:  registry,
		deferrals: deferrals,
		audit:     audit.NewLogger(audit.NewMemoryStorage()),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send delivers one notification and blocks until every channel attempt
// has completed. The returned result carries one attempt per selected
// channel; StatusSent means at least one succeeded.
//
// Quiet-hours deferrals return StatusDeferred with ScheduledAt set; the
// request was persisted for a single re-submission at that time. If the
// deferral cannot be persisted, Send returns ErrDeferralNotPersisted so
// the caller knows the notification is neither sent nor scheduled.
func (c *Center) Send(ctx context.Context, req Request) (DeliveryResult, error) {
	if err := req.Validate(); err != nil {
		return DeliveryResult{}, err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = c.now()
	}

	rcpt, err := c.profiles.Profile(ctx, req.RecipientID)
	if err != nil {
		return DeliveryResult{}, errors.Join(ErrRecipientNotFound, err)
	}

	if resumeAt, deferred := NextDelivery(c.now(), rcpt, req.Priority); deferred {
		return c.deferDelivery(ctx, req, resumeAt)
	}

	channels := SelectChannels(req.Priority, rcpt, req.Channels)

	// Ledger unavailability must not block delivery.
	if err := c.ledger.RecordRequest(ctx, req); err != nil {
		c.logger.ErrorContext(ctx, "failed to record notification request",
			logger.NotificationID(req.ID), logger.Error(err))
	}

	futures := make([]*async.Future[DeliveryAttempt], len(channels))
	for i, ch := range channels {
		futures[i] = async.Run(ctx, ch, func(ctx context.Context, ch Channel) (DeliveryAttempt, error) {
			return c.attempt(ctx, ch, req, rcpt), nil
		})
	}
	attempts, _ := async.CollectAll(futures...)

	result := DeliveryResult{
		NotificationID: req.ID,
		Status:         StatusFailed,
		Attempts:       attempts,
		CreatedAt:      req.CreatedAt,
	}
	successes, failures := 0, 0
	for _, a := range attempts {
		switch a.Status {
		case AttemptSuccess:
			successes++
		case AttemptFailure:
			failures++
		}
	}
	if successes > 0 {
		result.Status = StatusSent
	}

	md := map[string]any{
		"priority":  string(req.Priority),
		"channels":  len(channels),
		"successes": successes,
		"failures":  failures,
	}
	auditOpts := []audit.EventOption{
		audit.WithUser(req.RecipientID),
		audit.WithResource("notification", req.ID),
		audit.WithMetadata(md),
	}
	if result.Status == StatusSent {
		if err := c.audit.Log(ctx, "notification.send", auditOpts...); err != nil {
			c.logger.ErrorContext(ctx, "failed to write audit event",
				logger.NotificationID(req.ID), logger.Error(err))
		}
	} else {
		if err := c.audit.LogError(ctx, "notification.send", errors.New("all channels failed"), auditOpts...); err != nil {
			c.logger.ErrorContext(ctx, "failed to write audit event",
				logger.NotificationID(req.ID), logger.Error(err))
		}
	}

	c.logger.InfoContext(ctx, "notification dispatched",
		logger.NotificationID(req.ID),
		logger.UserID(req.RecipientID),
		slog.String("status", string(result.Status)),
		slog.Int("channels", len(channels)),
		slog.Int("successes", successes))

	return result, nil
}

// attempt runs one channel delivery under its configured timeout.
func (c *Center) attempt(parentCtx context.Context, ch Channel, req Request, rcpt Profile) DeliveryAttempt {
	attempt := DeliveryAttempt{
		ID:             uuid.NewString(),
		NotificationID: req.ID,
		Channel:        ch,
		AttemptedAt:    c.now(),
	}

	adapter, ok := c.registry.Adapter(ch)
	if !ok {
		attempt.Status = AttemptSkipped
		attempt.Error = ErrChannelNotRegistered.Error()
		c.record(parentCtx, attempt)
		return attempt
	}

	ctx, cancel := context.WithTimeout(parentCtx, c.registry.Timeout(ch))
	defer cancel()

	out, err := adapter.Send(ctx, req, rcpt)
	switch {
	case err != nil:
		attempt.Status = AttemptFailure
		attempt.Error = err.Error()
		c.logger.WarnContext(parentCtx, "channel delivery failed",
			logger.NotificationID(req.ID), logger.Channel(string(ch)), logger.Error(err))
	case out.Skipped:
		attempt.Status = AttemptSkipped
		attempt.Error = out.SkipReason
	default:
		attempt.Status = AttemptSuccess
		attempt.Provider = out.Provider
		attempt.MessageID = out.MessageID
	}

	// Record with the parent context: the attempt timeout must not also
	// starve the ledger write.
	c.record(parentCtx, attempt)
	return attempt
}

func (c *Center) record(ctx context.Context, attempt DeliveryAttempt) {
	if err := c.ledger.RecordAttempt(ctx, attempt); err != nil {
		c.logger.ErrorContext(ctx, "failed to record delivery attempt",
			logger.NotificationID(attempt.NotificationID),
			logger.Channel(string(attempt.Channel)),
			logger.Error(err))
	}
}

func (c *Center) deferDelivery(ctx context.Context, req Request, resumeAt time.Time) (DeliveryResult, error) {
	sn := ScheduledNotification{Request: req, ScheduledAt: resumeAt}
	if err := c.deferrals.Persist(ctx, sn); err != nil {
		return DeliveryResult{}, errors.Join(ErrDeferralNotPersisted, err)
	}

	if err := c.audit.Log(ctx, "notification.defer",
		audit.WithUser(req.RecipientID),
		audit.WithResource("notification", req.ID),
		audit.WithMetadata(map[string]any{"scheduled_at": resumeAt}),
	); err != nil {
		c.logger.ErrorContext(ctx, "failed to write audit event",
			logger.NotificationID(req.ID), logger.Error(err))
	}

	c.logger.InfoContext(ctx, "notification deferred for quiet hours",
		logger.NotificationID(req.ID),
		logger.UserID(req.RecipientID),
		slog.Time("scheduled_at", resumeAt))

	return DeliveryResult{
		NotificationID: req.ID,
		Status:         StatusDeferred,
		ScheduledAt:    &resumeAt,
		CreatedAt:      req.CreatedAt,
	}, nil
}
