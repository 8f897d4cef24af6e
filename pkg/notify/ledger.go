package notify

import (
	"context"
	"time"
)

// Entry is a ledger row: the original request plus its read state in the
// recipient's in-app feed.
type Entry struct {
	Request
	Read   bool       `json:"read"`
	ReadAt *time.Time `json:"read_at,omitempty"`
}

// ListOptions filters and pages a recipient's ledger history.
type ListOptions struct {
	Limit      int
	Offset     int
	OnlyUnread bool
	Category   string
	Since      *time.Time
	Until      *time.Time
}

// Ledger is the durable record of every accepted notification and every
// per-channel attempt. Writes are append-only except for read marks.
type Ledger interface {
	RecordRequest(ctx context.Context, req Request) error
	RecordAttempt(ctx context.Context, attempt DeliveryAttempt) error
	List(ctx context.Context, recipientID string, opts ListOptions) ([]Entry, error)
	Attempts(ctx context.Context, notificationID string) ([]DeliveryAttempt, error)
	MarkRead(ctx context.Context, recipientID string, notificationIDs ...string) error
	CountUnread(ctx context.Context, recipientID string) (int, error)
}

// ProfileStore resolves recipient profiles.
type ProfileStore interface {
	Profile(ctx context.Context, recipientID string) (Profile, error)
}

// DeferralStore durably persists quiet-hours deferrals for later
// re-submission.
type DeferralStore interface {
	Persist(ctx context.Context, sn ScheduledNotification) error
}
