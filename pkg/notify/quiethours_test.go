package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextDelivery(t *testing.T) {
	t.Parallel()

	nightOwl := Profile{
		UserID:     "user-1",
		QuietHours: QuietHours{Enabled: true, Start: "22:00", End: "08:00"},
	}
	at := func(hour, minute int) time.Time {
		return time.Date(2026, time.March, 10, hour, minute, 0, 0, time.UTC)
	}

	t.Run("inside wrapped window defers to next morning", func(t *testing.T) {
		t.Parallel()

		resume, deferred := NextDelivery(at(23, 30), nightOwl, PriorityMedium)
		require.True(t, deferred)
		assert.Equal(t, time.Date(2026, time.March, 11, 8, 0, 0, 0, time.UTC), resume)
	})

	t.Run("early morning inside window defers to same day", func(t *testing.T) {
		t.Parallel()

		resume, deferred := NextDelivery(at(6, 15), nightOwl, PriorityLow)
		require.True(t, deferred)
		assert.Equal(t, time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC), resume)
	})

	t.Run("outside window delivers now", func(t *testing.T) {
		t.Parallel()

		_, deferred := NextDelivery(at(9, 0), nightOwl, PriorityMedium)
		assert.False(t, deferred)
	})

	t.Run("window end boundary is exclusive", func(t *testing.T) {
		t.Parallel()

		_, deferred := NextDelivery(at(8, 0), nightOwl, PriorityMedium)
		assert.False(t, deferred)
	})

	t.Run("window start boundary is inclusive", func(t *testing.T) {
		t.Parallel()

		_, deferred := NextDelivery(at(22, 0), nightOwl, PriorityMedium)
		assert.True(t, deferred)
	})

	t.Run("critical and urgent exempt", func(t *testing.T) {
		t.Parallel()

		_, deferred := NextDelivery(at(23, 30), nightOwl, PriorityCritical)
		assert.False(t, deferred)
		_, deferred = NextDelivery(at(23, 30), nightOwl, PriorityUrgent)
		assert.False(t, deferred)
	})

	t.Run("disabled window delivers now", func(t *testing.T) {
		t.Parallel()

		rcpt := Profile{QuietHours: QuietHours{Enabled: false, Start: "22:00", End: "08:00"}}
		_, deferred := NextDelivery(at(23, 30), rcpt, PriorityMedium)
		assert.False(t, deferred)
	})

	t.Run("non-wrapping daytime window", func(t *testing.T) {
		t.Parallel()

		rcpt := Profile{QuietHours: QuietHours{Enabled: true, Start: "13:00", End: "15:00"}}
		resume, deferred := NextDelivery(at(14, 0), rcpt, PriorityHigh)
		require.True(t, deferred)
		assert.Equal(t, time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC), resume)

		_, deferred = NextDelivery(at(16, 0), rcpt, PriorityHigh)
		assert.False(t, deferred)
	})

	t.Run("malformed clock disables the window", func(t *testing.T) {
		t.Parallel()

		rcpt := Profile{QuietHours: QuietHours{Enabled: true, Start: "25:99", End: "08:00"}}
		_, deferred := NextDelivery(at(23, 30), rcpt, PriorityMedium)
		assert.False(t, deferred)
	})
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"08:30", 510, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := parseClock(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}
