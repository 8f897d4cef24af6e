package notify

import (
	"fmt"
	"time"
)

// Channel identifies a distinct communication medium.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp" // instant messaging, dual-provider backed
	ChannelPEC      Channel = "pec"      // certified registered mail
	ChannelPush     Channel = "push"
	ChannelInApp    Channel = "inapp"
	ChannelSocket   Channel = "socket" // real-time socket room delivery
)

// Priority drives both channel breadth and the quiet-hours exemption.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityUrgent   Priority = "urgent"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Valid reports whether p is one of the known priority tiers.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Request is a single notification to be delivered to one recipient.
// It is immutable once accepted by the orchestrator.
type Request struct {
	ID          string         `json:"id"`
	RecipientID string         `json:"recipient_id"`
	Priority    Priority       `json:"priority"`
	Category    string         `json:"category,omitempty"`
	Title       string         `json:"title"`
	Body        string         `json:"body"`
	Data        map[string]any `json:"data,omitempty"`
	// Channels, when non-empty, overrides the selection policy verbatim.
	Channels    []Channel  `json:"channels,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	RequiresAck bool       `json:"requires_ack,omitempty"`
	ActionURL   string     `json:"action_url,omitempty"`
	ActionLabel string     `json:"action_label,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Validate checks the fields the orchestrator refuses to proceed without.
func (r Request) Validate() error {
	if r.RecipientID == "" {
		return fmt.Errorf("%w: recipient id is required", ErrInvalidRequest)
	}
	if !r.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidRequest, r.Priority)
	}
	if r.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}
	if r.Body == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidRequest)
	}
	return nil
}

// IsExpired reports whether the request's expiry has passed at the given
// instant. Expired requests are still dispatched; adapters may decline
// them with a skip outcome.
func (r Request) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// AttemptStatus is the outcome class of one channel attempt.
type AttemptStatus string

const (
	AttemptSuccess AttemptStatus = "success"
	AttemptFailure AttemptStatus = "failure"
	AttemptSkipped AttemptStatus = "skipped"
)

// DeliveryAttempt records one channel's outcome for one notification.
// Immutable once written.
type DeliveryAttempt struct {
	ID             string        `json:"id"`
	NotificationID string        `json:"notification_id"`
	Channel        Channel       `json:"channel"`
	Status         AttemptStatus `json:"status"`
	// Provider is the backend that actually carried the message, relevant
	// for the failover-backed instant-messaging channel.
	Provider    string    `json:"provider,omitempty"`
	MessageID   string    `json:"message_id,omitempty"`
	Error       string    `json:"error,omitempty"`
	AttemptedAt time.Time `json:"attempted_at"`
}

// Status is the aggregate outcome of one orchestrated send.
type Status string

const (
	StatusSent     Status = "sent"     // at least one channel succeeded
	StatusFailed   Status = "failed"   // zero channels succeeded
	StatusDeferred Status = "deferred" // postponed by quiet hours
)

// DeliveryResult aggregates all attempts for one request. It is returned
// synchronously to the caller once every channel task has completed.
type DeliveryResult struct {
	NotificationID string            `json:"notification_id"`
	Status         Status            `json:"status"`
	Attempts       []DeliveryAttempt `json:"attempts,omitempty"`
	ScheduledAt    *time.Time        `json:"scheduled_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Succeeded reports whether any attempt delivered.
func (r DeliveryResult) Succeeded() bool {
	for _, a := range r.Attempts {
		if a.Status == AttemptSuccess {
			return true
		}
	}
	return false
}

// ScheduledNotification is a request whose immediate delivery was suppressed
// by quiet hours, to be re-submitted at or after ScheduledAt (single-shot).
type ScheduledNotification struct {
	Request     Request   `json:"request"`
	ScheduledAt time.Time `json:"scheduled_at"`
}
