package failover

import "errors"

var (
	// ErrProviderNil indicates the manager was constructed without both providers.
	ErrProviderNil = errors.New("failover: primary and backup providers are required")
	// ErrAlreadyStarted indicates Start was called on a running manager.
	ErrAlreadyStarted = errors.New("failover: health loop already started")
	// ErrProvidersUnavailable indicates both providers failed to deliver.
	ErrProvidersUnavailable = errors.New("failover: all providers unavailable")
)
