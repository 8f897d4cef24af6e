package notify

import "errors"

var (
	// ErrInvalidRequest indicates the notification request failed validation.
	ErrInvalidRequest = errors.New("notify: invalid notification request")
	// ErrRecipientNotFound indicates the recipient profile could not be loaded.
	ErrRecipientNotFound = errors.New("notify: recipient profile not found")
	// ErrDeferralNotPersisted indicates a quiet-hours deferral could not be
	// durably stored; the notification was neither sent nor scheduled.
	ErrDeferralNotPersisted = errors.New("notify: deferred notification could not be persisted")
	// ErrChannelNotRegistered indicates a selected channel has no adapter.
	ErrChannelNotRegistered = errors.New("notify: no adapter registered for channel")
	// ErrNotificationNotFound indicates a ledger lookup by id found nothing.
	ErrNotificationNotFound = errors.New("notify: notification not found")
)
