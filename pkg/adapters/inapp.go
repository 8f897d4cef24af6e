package adapters

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/servicekit/notify/pkg/broadcast"
	"github.com/servicekit/notify/pkg/logger"
	"github.com/servicekit/notify/pkg/notify"
)

// InAppAdapter lands notifications in the recipient's feed: it bumps the
// unread badge and pushes a real-time event to connected clients. The
// feed entry itself is the ledger record the orchestrator already wrote,
// so this adapter never fails on a disconnected user.
type InAppAdapter struct {
	badges BadgeStore
	hub    *broadcast.Hub[Event]
	logger *slog.Logger
}

// NewInAppAdapter builds the in-app feed adapter. The hub is optional;
// without it the adapter only maintains the badge counter.
func NewInAppAdapter(badges BadgeStore, hub *broadcast.Hub[Event], log *slog.Logger) (*InAppAdapter, error) {
	if badges == nil {
		return nil, fmt.Errorf("%w: badge store is required", ErrInvalidConfig)
	}
	if log == nil {
		log = slog.Default()
	}
	return &InAppAdapter{badges: badges, hub: hub, logger: log}, nil
}

func (a *InAppAdapter) Channel() notify.Channel { return notify.ChannelInApp }

func (a *InAppAdapter) Send(ctx context.Context, req notify.Request, rcpt notify.Profile) (notify.Outcome, error) {
	unread, err := a.badges.Incr(ctx, rcpt.UserID)
	if err != nil {
		// Badge drift is tolerable; the feed entry is already durable.
		a.logger.WarnContext(ctx, "failed to bump unread badge",
			logger.UserID(rcpt.UserID), logger.Error(err))
	}

	if a.hub != nil {
		event := eventFor(req, unread)
		if err := a.hub.Emit(ctx, rcpt.UserID, event); err != nil {
			a.logger.WarnContext(ctx, "failed to emit in-app event",
				logger.UserID(rcpt.UserID), logger.Error(err))
		}
	}

	return notify.Outcome{Provider: "inapp", MessageID: req.ID}, nil
}
