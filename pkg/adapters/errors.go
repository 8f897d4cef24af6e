package adapters

import "errors"

var (
	// ErrInvalidConfig indicates an adapter was built from an incomplete config.
	ErrInvalidConfig = errors.New("adapters: invalid adapter configuration")
	// ErrNoContact indicates the profile lacks the contact point the channel needs.
	ErrNoContact = errors.New("adapters: recipient has no contact point for channel")
	// ErrSendFailed indicates the provider rejected or failed the delivery.
	ErrSendFailed = errors.New("adapters: provider failed to deliver message")
	// ErrExpired indicates the notification expired before the attempt ran.
	ErrExpired = errors.New("adapters: notification expired before delivery")
)
