package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	seed := func(t *testing.T) *MemoryLedger {
		t.Helper()
		ledger := NewMemoryLedger()
		for i, req := range []Request{
			{ID: "n1", RecipientID: "user-1", Category: "billing", CreatedAt: base},
			{ID: "n2", RecipientID: "user-1", Category: "security", CreatedAt: base.Add(time.Hour)},
			{ID: "n3", RecipientID: "user-1", Category: "billing", CreatedAt: base.Add(2 * time.Hour)},
			{ID: "n4", RecipientID: "user-2", Category: "billing", CreatedAt: base},
		} {
			require.NoError(t, ledger.RecordRequest(ctx, req), i)
		}
		return ledger
	}

	t.Run("list newest first scoped to recipient", func(t *testing.T) {
		t.Parallel()

		ledger := seed(t)
		entries, err := ledger.List(ctx, "user-1", ListOptions{})
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "n3", entries[0].ID)
		assert.Equal(t, "n1", entries[2].ID)
	})

	t.Run("category and time filters", func(t *testing.T) {
		t.Parallel()

		ledger := seed(t)
		entries, err := ledger.List(ctx, "user-1", ListOptions{Category: "billing"})
		require.NoError(t, err)
		assert.Len(t, entries, 2)

		since := base.Add(30 * time.Minute)
		entries, err = ledger.List(ctx, "user-1", ListOptions{Since: &since})
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("pagination", func(t *testing.T) {
		t.Parallel()

		ledger := seed(t)
		entries, err := ledger.List(ctx, "user-1", ListOptions{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, entries, 2)

		entries, err = ledger.List(ctx, "user-1", ListOptions{Offset: 2})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "n1", entries[0].ID)

		entries, err = ledger.List(ctx, "user-1", ListOptions{Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("mark read and count unread", func(t *testing.T) {
		t.Parallel()

		ledger := seed(t)
		count, err := ledger.CountUnread(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		require.NoError(t, ledger.MarkRead(ctx, "user-1", "n1", "n3"))

		count, err = ledger.CountUnread(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		entries, err := ledger.List(ctx, "user-1", ListOptions{OnlyUnread: true})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "n2", entries[0].ID)

		// Other recipients are untouched.
		count, err = ledger.CountUnread(ctx, "user-2")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("attempts round trip", func(t *testing.T) {
		t.Parallel()

		ledger := seed(t)
		require.NoError(t, ledger.RecordAttempt(ctx, DeliveryAttempt{
			ID: "a1", NotificationID: "n1", Channel: ChannelEmail, Status: AttemptSuccess,
		}))
		require.NoError(t, ledger.RecordAttempt(ctx, DeliveryAttempt{
			ID: "a2", NotificationID: "n1", Channel: ChannelSMS, Status: AttemptFailure,
		}))

		attempts, err := ledger.Attempts(ctx, "n1")
		require.NoError(t, err)
		assert.Len(t, attempts, 2)

		attempts, err = ledger.Attempts(ctx, "unknown")
		require.NoError(t, err)
		assert.Empty(t, attempts)
	})

	t.Run("invalid writes rejected", func(t *testing.T) {
		t.Parallel()

		ledger := NewMemoryLedger()
		assert.ErrorIs(t, ledger.RecordRequest(ctx, Request{ID: "x"}), ErrInvalidRequest)
		assert.ErrorIs(t, ledger.RecordAttempt(ctx, DeliveryAttempt{ID: "a"}), ErrNotificationNotFound)
	})
}
