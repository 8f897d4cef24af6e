package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/servicekit/notify/pkg/broadcast"
	"github.com/servicekit/notify/pkg/notify"
)

// pendingTTL bounds how long an offline user's socket delivery is kept
// for replay on reconnect.
const pendingTTL = time.Hour

func pendingKey(userID, notificationID string) string {
	return fmt.Sprintf("ws:pending:%s:%s", userID, notificationID)
}

// SocketAdapter pushes notifications to the recipient's socket room in
// real time. When nobody is listening in the room, the event is stashed
// in Redis so the client can replay it on reconnect. Critical priority
// additionally emits a dedicated alert event.
type SocketAdapter struct {
	hub     *broadcast.Hub[Event]
	pending redis.UniversalClient
}

// NewSocketAdapter builds the socket adapter. The Redis client is
// optional; without it offline deliveries are dropped instead of stashed.
func NewSocketAdapter(hub *broadcast.Hub[Event], pending redis.UniversalClient) (*SocketAdapter, error) {
	if hub == nil {
		return nil, fmt.Errorf("%w: broadcast hub is required", ErrInvalidConfig)
	}
	return &SocketAdapter{hub: hub, pending: pending}, nil
}

func (a *SocketAdapter) Channel() notify.Channel { return notify.ChannelSocket }

func (a *SocketAdapter) Send(ctx context.Context, req notify.Request, rcpt notify.Profile) (notify.Outcome, error) {
	if rcpt.SocketRoom == "" {
		return notify.Outcome{}, fmt.Errorf("%w: socket room", ErrNoContact)
	}

	event := eventFor(req, 0)

	if a.hub.SubscriberCount(rcpt.SocketRoom) == 0 {
		if err := a.stash(ctx, rcpt.UserID, event); err != nil {
			return notify.Outcome{}, errors.Join(ErrSendFailed, err)
		}
		return notify.Outcome{Provider: "socket", MessageID: req.ID}, nil
	}

	if err := a.hub.Emit(ctx, rcpt.SocketRoom, event); err != nil {
		return notify.Outcome{}, errors.Join(ErrSendFailed, err)
	}
	if req.Priority == notify.PriorityCritical {
		alert := event
		alert.Name = EventCriticalAlert
		if err := a.hub.Emit(ctx, rcpt.SocketRoom, alert); err != nil {
			return notify.Outcome{}, errors.Join(ErrSendFailed, err)
		}
	}
	return notify.Outcome{Provider: "socket", MessageID: req.ID}, nil
}

// stash parks the event for replay on reconnect.
func (a *SocketAdapter) stash(ctx context.Context, userID string, event Event) error {
	if a.pending == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return a.pending.Set(ctx, pendingKey(userID, event.ID), payload, pendingTTL).Err()
}

// PendingEvents returns and clears the stashed events for a user,
// called by the socket layer when a client reconnects.
func (a *SocketAdapter) PendingEvents(ctx context.Context, userID string) ([]Event, error) {
	if a.pending == nil {
		return nil, nil
	}

	var (
		cursor uint64
		events []Event
	)
	pattern := pendingKey(userID, "*")
	for {
		keys, next, err := a.pending.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			raw, err := a.pending.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return nil, err
			}
			var event Event
			if err := json.Unmarshal(raw, &event); err != nil {
				continue // skip corrupt stash entries
			}
			events = append(events, event)
			_ = a.pending.Del(ctx, key).Err()
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return events, nil
}
