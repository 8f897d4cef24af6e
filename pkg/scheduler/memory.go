package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository for tests and
// single-process deployments.
type MemoryRepository struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*Job
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{jobs: make(map[uuid.UUID]*Job)}
}

func (r *MemoryRepository) CreateJob(_ context.Context, job *Job) error {
	if job == nil || job.ID == uuid.Nil {
		return ErrInvalidJob
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *job
	r.jobs[job.ID] = &cp
	return nil
}

func (r *MemoryRepository) ClaimDue(_ context.Context, now time.Time, limit int) ([]*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var due []*Job
	for _, job := range r.jobs {
		if job.Status == StatusPending && !job.ScheduledAt.After(now) {
			due = append(due, job)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].ScheduledAt.Before(due[j].ScheduledAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	out := make([]*Job, 0, len(due))
	for _, job := range due {
		job.Status = StatusDispatched // claimed, single-shot
		cp := *job
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryRepository) MarkDispatched(_ context.Context, jobID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = StatusDispatched
	job.DispatchedAt = &at
	return nil
}

func (r *MemoryRepository) MarkFailed(_ context.Context, jobID uuid.UUID, jobErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = StatusFailed
	if jobErr != nil {
		msg := jobErr.Error()
		job.Error = &msg
	}
	return nil
}

// Job returns a copy of the stored job, for tests.
func (r *MemoryRepository) Job(jobID uuid.UUID) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return Job{}, false
	}
	return *job, true
}
