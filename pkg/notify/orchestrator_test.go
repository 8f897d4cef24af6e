package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProfileStore struct {
	mock.Mock
}

func (m *mockProfileStore) Profile(ctx context.Context, recipientID string) (Profile, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(Profile), args.Error(1)
}

type mockDeferralStore struct {
	mock.Mock
}

func (m *mockDeferralStore) Persist(ctx context.Context, sn ScheduledNotification) error {
	args := m.Called(ctx, sn)
	return args.Error(0)
}

type mockAdapter struct {
	mock.Mock
	channel Channel
}

func (m *mockAdapter) Channel() Channel { return m.channel }

func (m *mockAdapter) Send(ctx context.Context, req Request, rcpt Profile) (Outcome, error) {
	args := m.Called(ctx, req, rcpt)
	return args.Get(0).(Outcome), args.Error(1)
}

type failingLedger struct {
	*MemoryLedger
	requestErr error
	attemptErr error
}

func (l *failingLedger) RecordRequest(ctx context.Context, req Request) error {
	if l.requestErr != nil {
		return l.requestErr
	}
	return l.MemoryLedger.RecordRequest(ctx, req)
}

func (l *failingLedger) RecordAttempt(ctx context.Context, attempt DeliveryAttempt) error {
	if l.attemptErr != nil {
		return l.attemptErr
	}
	return l.MemoryLedger.RecordAttempt(ctx, attempt)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCenter_Send(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	daytime := time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC)

	rcpt := Profile{
		UserID:        "user-1",
		Email:         "user@example.com",
		PushEndpoints: []string{"token-1"},
	}

	newRequest := func() Request {
		return Request{
			RecipientID: "user-1",
			Priority:    PriorityHigh,
			Title:       "Invoice ready",
			Body:        "Your invoice is available.",
		}
	}

	t.Run("partial failure still counts as sent", func(t *testing.T) {
		t.Parallel()

		profiles := &mockProfileStore{}
		profiles.On("Profile", mock.Anything, "user-1").Return(rcpt, nil)

		push := &mockAdapter{channel: ChannelPush}
		push.On("Send", mock.Anything, mock.Anything, mock.Anything).
			Return(Outcome{}, errors.New("gateway timeout"))
		email := &mockAdapter{channel: ChannelEmail}
		email.On("Send", mock.Anything, mock.Anything, mock.Anything).
			Return(Outcome{Provider: "postmark", MessageID: "pm-1"}, nil)
		inapp := &mockAdapter{channel: ChannelInApp}
		inapp.On("Send", mock.Anything, mock.Anything, mock.Anything).
			Return(Outcome{Provider: "inapp", MessageID: "n"}, nil)

		registry := NewRegistry().
			Register(push, time.Second).
			Register(email, time.Second).
			Register(inapp, time.Second)

		ledger := NewMemoryLedger()
		center := NewCenter(profiles, ledger, registry, &mockDeferralStore{},
			WithClock(fixedClock(daytime)))

		result, err := center.Send(ctx, newRequest())
		require.NoError(t, err)

		assert.Equal(t, StatusSent, result.Status)
		require.Len(t, result.Attempts, 3)
		assert.True(t, result.Succeeded())

		byChannel := map[Channel]DeliveryAttempt{}
		for _, a := range result.Attempts {
			byChannel[a.Channel] = a
		}
		assert.Equal(t, AttemptFailure, byChannel[ChannelPush].Status)
		assert.Contains(t, byChannel[ChannelPush].Error, "gateway timeout")
		assert.Equal(t, AttemptSuccess, byChannel[ChannelEmail].Status)
		assert.Equal(t, "pm-1", byChannel[ChannelEmail].MessageID)

		// Every attempt landed in the ledger.
		attempts, err := ledger.Attempts(ctx, result.NotificationID)
		require.NoError(t, err)
		assert.Len(t, attempts, 3)
	})

	t.Run("all channels failing returns failed status", func(t *testing.T) {
		t.Parallel()

		profiles := &mockProfileStore{}
		profiles.On("Profile", mock.Anything, "user-1").Return(rcpt, nil)

		boom := errors.New("provider down")
		push := &mockAdapter{channel: ChannelPush}
		push.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(Outcome{}, boom)
		email := &mockAdapter{channel: ChannelEmail}
		email.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(Outcome{}, boom)
		inapp := &mockAdapter{channel: ChannelInApp}
		inapp.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(Outcome{}, boom)

		registry := NewRegistry().
			Register(push, time.Second).
			Register(email, time.Second).
			Register(inapp, time.Second)

		center := NewCenter(profiles, NewMemoryLedger(), registry, &mockDeferralStore{},
			WithClock(fixedClock(daytime)))

		result, err := center.Send(ctx, newRequest())
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, result.Status)
		assert.False(t, result.Succeeded())
	})

	t.Run("quiet hours defers without touching adapters", func(t *testing.T) {
		t.Parallel()

		night := time.Date(2026, time.March, 10, 23, 30, 0, 0, time.UTC)
		sleepy := rcpt
		sleepy.QuietHours = QuietHours{Enabled: true, Start: "22:00", End: "08:00"}

		profiles := &mockProfileStore{}
		profiles.On("Profile", mock.Anything, "user-1").Return(sleepy, nil)

		deferrals := &mockDeferralStore{}
		deferrals.On("Persist", mock.Anything, mock.MatchedBy(func(sn ScheduledNotification) bool {
			return sn.ScheduledAt.Equal(time.Date(2026, time.March, 11, 8, 0, 0, 0, time.UTC))
		})).Return(nil)

		email := &mockAdapter{channel: ChannelEmail}
		registry := NewRegistry().Register(email, time.Second)

		center := NewCenter(profiles, NewMemoryLedger(), registry, deferrals,
			WithClock(fixedClock(night)))

		result, err := center.Send(ctx, newRequest())
		require.NoError(t, err)

		assert.Equal(t, StatusDeferred, result.Status)
		require.NotNil(t, result.ScheduledAt)
		assert.Empty(t, result.Attempts)
		email.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
		deferrals.AssertExpectations(t)
	})

	t.Run("deferral persistence failure surfaces", func(t *testing.T) {
		t.Parallel()

		night := time.Date(2026, time.March, 10, 23, 30, 0, 0, time.UTC)
		sleepy := rcpt
		sleepy.QuietHours = QuietHours{Enabled: true, Start: "22:00", End: "08:00"}

		profiles := &mockProfileStore{}
		profiles.On("Profile", mock.Anything, "user-1").Return(sleepy, nil)

		deferrals := &mockDeferralStore{}
		deferrals.On("Persist", mock.Anything, mock.Anything).Return(errors.New("db down"))

		center := NewCenter(profiles, NewMemoryLedger(), NewRegistry(), deferrals,
			WithClock(fixedClock(night)))

		_, err := center.Send(ctx, newRequest())
		assert.ErrorIs(t, err, ErrDeferralNotPersisted)
	})

	t.Run("ledger write failure does not block delivery", func(t *testing.T) {
		t.Parallel()

		profiles := &mockProfileStore{}
		profiles.On("Profile", mock.Anything, "user-1").Return(rcpt, nil)

		email := &mockAdapter{channel: ChannelEmail}
		email.On("Send", mock.Anything, mock.Anything, mock.Anything).
			Return(Outcome{Provider: "postmark", MessageID: "pm-2"}, nil)
		inapp := &mockAdapter{channel: ChannelInApp}
		inapp.On("Send", mock.Anything, mock.Anything, mock.Anything).
			Return(Outcome{Provider: "inapp"}, nil)
		push := &mockAdapter{channel: ChannelPush}
		push.On("Send", mock.Anything, mock.Anything, mock.Anything).
			Return(Outcome{Provider: "push-gateway"}, nil)

		registry := NewRegistry().
			Register(email, time.Second).
			Register(inapp, time.Second).
			Register(push, time.Second)

		broken := &failingLedger{
			MemoryLedger: NewMemoryLedger(),
			requestErr:   errors.New("pg unavailable"),
			attemptErr:   errors.New("pg unavailable"),
		}

		center := NewCenter(profiles, broken, registry, &mockDeferralStore{},
			WithClock(fixedClock(daytime)))

		result, err := center.Send(ctx, newRequest())
		require.NoError(t, err)
		assert.Equal(t, StatusSent, result.Status)
	})

	t.Run("unregistered channel is skipped", func(t *testing.T) {
		t.Parallel()

		profiles := &mockProfileStore{}
		profiles.On("Profile", mock.Anything, "user-1").Return(rcpt, nil)

		email := &mockAdapter{channel: ChannelEmail}
		email.On("Send", mock.Anything, mock.Anything, mock.Anything).
			Return(Outcome{Provider: "postmark", MessageID: "pm-3"}, nil)
		registry := NewRegistry().Register(email, time.Second)

		center := NewCenter(profiles, NewMemoryLedger(), registry, &mockDeferralStore{},
			WithClock(fixedClock(daytime)))

		// Push and in-app are selected but have no adapter.
		result, err := center.Send(ctx, newRequest())
		require.NoError(t, err)

		assert.Equal(t, StatusSent, result.Status)
		skipped := 0
		for _, a := range result.Attempts {
			if a.Status == AttemptSkipped {
				skipped++
				assert.Equal(t, ErrChannelNotRegistered.Error(), a.Error)
			}
		}
		assert.Equal(t, 2, skipped)
	})

	t.Run("expired request is still dispatched to adapters", func(t *testing.T) {
		t.Parallel()

		profiles := &mockProfileStore{}
		profiles.On("Profile", mock.Anything, "user-1").Return(rcpt, nil)

		email := &mockAdapter{channel: ChannelEmail}
		email.On("Send", mock.Anything, mock.Anything, mock.Anything).
			Return(Outcome{Provider: "postmark", MessageID: "pm-1"}, nil)
		registry := NewRegistry().Register(email, time.Second)

		center := NewCenter(profiles, NewMemoryLedger(), registry, &mockDeferralStore{},
			WithClock(fixedClock(daytime)))

		req := newRequest()
		req.Channels = []Channel{ChannelEmail}
		expired := daytime.Add(-time.Minute)
		req.ExpiresAt = &expired

		// Expiry is the adapter's call, not the orchestrator's: the
		// request goes out and the adapter decides whether to decline.
		result, err := center.Send(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, StatusSent, result.Status)
		email.AssertCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("adapter decline of expired request records a skip", func(t *testing.T) {
		t.Parallel()

		profiles := &mockProfileStore{}
		profiles.On("Profile", mock.Anything, "user-1").Return(rcpt, nil)

		email := &mockAdapter{channel: ChannelEmail}
		email.On("Send", mock.Anything, mock.Anything, mock.Anything).
			Return(Outcome{Skipped: true, SkipReason: "notification expired"}, nil)
		registry := NewRegistry().Register(email, time.Second)

		ledger := NewMemoryLedger()
		center := NewCenter(profiles, ledger, registry, &mockDeferralStore{},
			WithClock(fixedClock(daytime)))

		req := newRequest()
		req.Channels = []Channel{ChannelEmail}
		expired := daytime.Add(-time.Minute)
		req.ExpiresAt = &expired

		result, err := center.Send(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, StatusFailed, result.Status)
		require.Len(t, result.Attempts, 1)
		assert.Equal(t, AttemptSkipped, result.Attempts[0].Status)
		assert.Equal(t, "notification expired", result.Attempts[0].Error)
	})

	t.Run("invalid request rejected before profile load", func(t *testing.T) {
		t.Parallel()

		profiles := &mockProfileStore{}
		center := NewCenter(profiles, NewMemoryLedger(), NewRegistry(), &mockDeferralStore{})

		_, err := center.Send(ctx, Request{RecipientID: "user-1"})
		assert.ErrorIs(t, err, ErrInvalidRequest)
		profiles.AssertNotCalled(t, "Profile", mock.Anything, mock.Anything)
	})

	t.Run("unknown recipient", func(t *testing.T) {
		t.Parallel()

		profiles := &mockProfileStore{}
		profiles.On("Profile", mock.Anything, "user-1").
			Return(Profile{}, errors.New("no such user"))

		center := NewCenter(profiles, NewMemoryLedger(), NewRegistry(), &mockDeferralStore{})

		_, err := center.Send(ctx, newRequest())
		assert.ErrorIs(t, err, ErrRecipientNotFound)
	})

	t.Run("explicit channel override", func(t *testing.T) {
		t.Parallel()

		profiles := &mockProfileStore{}
		profiles.On("Profile", mock.Anything, "user-1").Return(rcpt, nil)

		email := &mockAdapter{channel: ChannelEmail}
		email.On("Send", mock.Anything, mock.Anything, mock.Anything).
			Return(Outcome{Provider: "postmark", MessageID: "pm-4"}, nil)
		push := &mockAdapter{channel: ChannelPush}

		registry := NewRegistry().
			Register(email, time.Second).
			Register(push, time.Second)

		center := NewCenter(profiles, NewMemoryLedger(), registry, &mockDeferralStore{},
			WithClock(fixedClock(daytime)))

		req := newRequest()
		req.Channels = []Channel{ChannelEmail}

		result, err := center.Send(ctx, req)
		require.NoError(t, err)

		require.Len(t, result.Attempts, 1)
		assert.Equal(t, ChannelEmail, result.Attempts[0].Channel)
		push.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})
}
