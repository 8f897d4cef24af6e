package adapters

import (
	"time"

	"github.com/servicekit/notify/pkg/notify"
)

// Event is the real-time payload pushed to connected clients over the
// in-app and socket channels.
type Event struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Priority    notify.Priority `json:"priority"`
	Title       string          `json:"title"`
	Body        string          `json:"body"`
	Data        map[string]any  `json:"data,omitempty"`
	UnreadCount int             `json:"unread_count,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

const (
	// EventNotification is the regular real-time delivery event.
	EventNotification = "notification"
	// EventCriticalAlert is additionally emitted for critical priority so
	// clients can force an undismissable alert.
	EventCriticalAlert = "critical-alert"
)

func eventFor(req notify.Request, unread int) Event {
	return Event{
		ID:          req.ID,
		Name:        EventNotification,
		Priority:    req.Priority,
		Title:       req.Title,
		Body:        req.Body,
		Data:        req.Data,
		UnreadCount: unread,
		Timestamp:   time.Now(),
	}
}
