package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/servicekit/notify/pkg/logger"
	"github.com/servicekit/notify/pkg/notify"
)

const (
	defaultPollInterval = time.Minute
	defaultBatchSize    = 50
)

// Submitter re-submits a deferred request for delivery. In production
// this is the orchestrator's Send method.
type Submitter func(ctx context.Context, req notify.Request) (notify.DeliveryResult, error)

// Dispatcher polls the repository for due deferred jobs and re-submits
// each exactly once. A job whose re-submission fails is marked failed
// and never requeued.
type Dispatcher struct {
	repo     Repository
	submit   Submitter
	interval time.Duration
	batch    int
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithPollInterval sets how often due jobs are claimed. Defaults to 1m.
func WithPollInterval(d time.Duration) DispatcherOption {
	return func(dp *Dispatcher) {
		if d > 0 {
			dp.interval = d
		}
	}
}

// WithBatchSize caps the jobs claimed per poll. Defaults to 50.
func WithBatchSize(n int) DispatcherOption {
	return func(dp *Dispatcher) {
		if n > 0 {
			dp.batch = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) DispatcherOption {
	return func(dp *Dispatcher) {
		if log != nil {
			dp.logger = log
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) DispatcherOption {
	return func(dp *Dispatcher) {
		if now != nil {
			dp.now = now
		}
	}
}

// NewDispatcher builds a dispatcher over the repository and submitter.
func NewDispatcher(repo Repository, submit Submitter, opts ...DispatcherOption) *Dispatcher {
	dp := &Dispatcher{
		repo:     repo,
		submit:   submit,
		interval: defaultPollInterval,
		batch:    defaultBatchSize,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(dp)
	}
	return dp
}

// Start launches the polling loop. It runs one pass immediately, then
// on every interval tick until the context is canceled or Stop is called.
func (dp *Dispatcher) Start(ctx context.Context) error {
	dp.mu.Lock()
	if dp.cancel != nil {
		dp.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, dp.cancel = context.WithCancel(ctx)
	done := make(chan struct{})
	dp.done = done
	dp.mu.Unlock()

	go func() {
		defer close(done)
		dp.dispatchDue(ctx)
		ticker := time.NewTicker(dp.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				dp.dispatchDue(ctx)
			}
		}
	}()
	return nil
}

// Stop halts the loop and waits for the in-flight pass to finish.
func (dp *Dispatcher) Stop() {
	dp.mu.Lock()
	cancel, done := dp.cancel, dp.done
	dp.cancel = nil
	dp.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (dp *Dispatcher) dispatchDue(ctx context.Context) {
	jobs, err := dp.repo.ClaimDue(ctx, dp.now(), dp.batch)
	if err != nil {
		dp.logger.ErrorContext(ctx, "failed to claim due deferred jobs", logger.Error(err))
		return
	}
	for _, job := range jobs {
		dp.dispatch(ctx, job)
	}
}

func (dp *Dispatcher) dispatch(ctx context.Context, job *Job) {
	var req notify.Request
	if err := json.Unmarshal(job.Payload, &req); err != nil {
		dp.logger.ErrorContext(ctx, "deferred job payload is corrupt",
			slog.String("job_id", job.ID.String()), logger.Error(err))
		if markErr := dp.repo.MarkFailed(ctx, job.ID, err); markErr != nil {
			dp.logger.ErrorContext(ctx, "failed to mark deferred job failed",
				slog.String("job_id", job.ID.String()), logger.Error(markErr))
		}
		return
	}

	// Redelivery carries the original selection context; if quiet hours
	// moved in the meantime the orchestrator defers again.
	if _, err := dp.submit(ctx, req); err != nil {
		dp.logger.ErrorContext(ctx, "deferred notification re-submission failed",
			slog.String("job_id", job.ID.String()),
			logger.NotificationID(job.NotificationID),
			logger.Error(err))
		if markErr := dp.repo.MarkFailed(ctx, job.ID, err); markErr != nil {
			dp.logger.ErrorContext(ctx, "failed to mark deferred job failed",
				slog.String("job_id", job.ID.String()), logger.Error(markErr))
		}
		return
	}

	if err := dp.repo.MarkDispatched(ctx, job.ID, dp.now()); err != nil {
		dp.logger.ErrorContext(ctx, "failed to mark deferred job dispatched",
			slog.String("job_id", job.ID.String()), logger.Error(err))
	}
}
