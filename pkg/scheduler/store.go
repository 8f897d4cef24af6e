package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/servicekit/notify/pkg/notify"
)

// Store adapts a Repository to the orchestrator's deferral contract.
type Store struct {
	repo Repository
	now  func() time.Time
}

// NewStore returns a deferral store backed by the repository.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo, now: time.Now}
}

// Persist encodes the deferred request as a pending job.
func (s *Store) Persist(ctx context.Context, sn notify.ScheduledNotification) error {
	payload, err := json.Marshal(sn.Request)
	if err != nil {
		return errors.Join(ErrInvalidJob, err)
	}
	job := &Job{
		ID:             uuid.New(),
		NotificationID: sn.Request.ID,
		RecipientID:    sn.Request.RecipientID,
		Payload:        payload,
		ScheduledAt:    sn.ScheduledAt,
		Status:         StatusPending,
		CreatedAt:      s.now(),
	}
	return s.repo.CreateJob(ctx, job)
}
