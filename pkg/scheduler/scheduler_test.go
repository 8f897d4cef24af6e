package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicekit/notify/pkg/notify"
)

func TestStore_Persist(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository()
	store := NewStore(repo)

	req := notify.Request{
		ID:          "ntf-1",
		RecipientID: "user-1",
		Priority:    notify.PriorityMedium,
		Title:       "Weekly digest",
		Body:        "Your week in review.",
	}
	resumeAt := time.Now().Add(8 * time.Hour)

	require.NoError(t, store.Persist(context.Background(), notify.ScheduledNotification{
		Request:     req,
		ScheduledAt: resumeAt,
	}))

	jobs, err := repo.ClaimDue(context.Background(), resumeAt.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "ntf-1", jobs[0].NotificationID)
	assert.Equal(t, "user-1", jobs[0].RecipientID)

	var decoded notify.Request
	require.NoError(t, json.Unmarshal(jobs[0].Payload, &decoded))
	assert.Equal(t, req.Title, decoded.Title)
}

func TestMemoryRepository_ClaimDue(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository()
	now := time.Now()

	mkJob := func(id string, at time.Time) *Job {
		payload, _ := json.Marshal(notify.Request{ID: id})
		return &Job{
			ID:             uuid.New(),
			NotificationID: id,
			RecipientID:    "user-1",
			Payload:        payload,
			ScheduledAt:    at,
			Status:         StatusPending,
			CreatedAt:      now,
		}
	}

	due := mkJob("due", now.Add(-time.Minute))
	future := mkJob("future", now.Add(time.Hour))
	require.NoError(t, repo.CreateJob(context.Background(), due))
	require.NoError(t, repo.CreateJob(context.Background(), future))

	jobs, err := repo.ClaimDue(context.Background(), now, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "due", jobs[0].NotificationID)

	// A claimed job is never handed out twice.
	jobs, err = repo.ClaimDue(context.Background(), now, 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestDispatcher(t *testing.T) {
	t.Parallel()

	t.Run("re-submits due jobs once", func(t *testing.T) {
		t.Parallel()

		repo := NewMemoryRepository()
		store := NewStore(repo)

		req := notify.Request{
			ID:          "ntf-1",
			RecipientID: "user-1",
			Priority:    notify.PriorityLow,
			Title:       "t",
			Body:        "b",
		}
		require.NoError(t, store.Persist(context.Background(), notify.ScheduledNotification{
			Request:     req,
			ScheduledAt: time.Now().Add(-time.Minute),
		}))

		var mu sync.Mutex
		var submitted []notify.Request
		submit := func(_ context.Context, r notify.Request) (notify.DeliveryResult, error) {
			mu.Lock()
			defer mu.Unlock()
			submitted = append(submitted, r)
			return notify.DeliveryResult{Status: notify.StatusSent}, nil
		}

		dp := NewDispatcher(repo, submit, WithPollInterval(10*time.Millisecond))
		require.NoError(t, dp.Start(context.Background()))
		defer dp.Stop()

		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(submitted) == 1
		}, time.Second, 5*time.Millisecond)

		// Stays at one re-submission across later polls.
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		assert.Len(t, submitted, 1)
		assert.Equal(t, "ntf-1", submitted[0].ID)
		mu.Unlock()
	})

	t.Run("failed re-submission is recorded, not retried", func(t *testing.T) {
		t.Parallel()

		repo := NewMemoryRepository()
		store := NewStore(repo)
		require.NoError(t, store.Persist(context.Background(), notify.ScheduledNotification{
			Request:     notify.Request{ID: "ntf-2", RecipientID: "user-1", Priority: notify.PriorityLow, Title: "t", Body: "b"},
			ScheduledAt: time.Now().Add(-time.Minute),
		}))

		submit := func(_ context.Context, _ notify.Request) (notify.DeliveryResult, error) {
			return notify.DeliveryResult{}, errors.New("orchestrator unavailable")
		}

		dp := NewDispatcher(repo, submit, WithPollInterval(10*time.Millisecond))
		require.NoError(t, dp.Start(context.Background()))
		defer dp.Stop()

		assert.Eventually(t, func() bool {
			jobs, err := repo.ClaimDue(context.Background(), time.Now(), 10)
			return err == nil && len(jobs) == 0
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("restarts after stop", func(t *testing.T) {
		t.Parallel()

		repo := NewMemoryRepository()
		submit := func(_ context.Context, _ notify.Request) (notify.DeliveryResult, error) {
			return notify.DeliveryResult{Status: notify.StatusSent}, nil
		}
		dp := NewDispatcher(repo, submit, WithPollInterval(10*time.Millisecond))

		// Each run owns its own done channel, so a restart never waits
		// on, or closes, a channel belonging to a previous run.
		for i := 0; i < 3; i++ {
			require.NoError(t, dp.Start(context.Background()))
			dp.Stop()
		}

		require.NoError(t, dp.Start(context.Background()))
		defer dp.Stop()
		assert.ErrorIs(t, dp.Start(context.Background()), ErrAlreadyStarted)
	})
}
