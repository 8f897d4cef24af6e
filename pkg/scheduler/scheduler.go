package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status tracks a deferred job through its single-shot lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusDispatched Status = "dispatched"
	StatusFailed     Status = "failed"
)

// Job is one deferred notification awaiting re-submission. Payload holds
// the JSON-encoded original request; the job is dispatched at most once.
type Job struct {
	ID             uuid.UUID  `json:"id"`
	NotificationID string     `json:"notification_id"`
	RecipientID    string     `json:"recipient_id"`
	Payload        []byte     `json:"payload"`
	ScheduledAt    time.Time  `json:"scheduled_at"`
	Status         Status     `json:"status"`
	Error          *string    `json:"error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	DispatchedAt   *time.Time `json:"dispatched_at,omitempty"`
}

// Repository persists deferred jobs. ClaimDue must hand each due job to
// exactly one caller so concurrent dispatchers never double-deliver.
type Repository interface {
	CreateJob(ctx context.Context, job *Job) error
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*Job, error)
	MarkDispatched(ctx context.Context, jobID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, jobID uuid.UUID, jobErr error) error
}
