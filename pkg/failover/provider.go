package failover

import (
	"context"
	"time"
)

// Provider is one messaging backend the manager can route through.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Name uniquely identifies the provider in health reports and logs.
	Name() string
	// Send delivers a message and returns the provider-assigned id.
	Send(ctx context.Context, to, message string) (string, error)
	// Probe checks whether the provider is currently able to deliver.
	Probe(ctx context.Context) error
}

// Health is the manager's current view of one provider.
type Health struct {
	Connected           bool      `json:"connected"`
	LastCheckedAt       time.Time `json:"last_checked_at"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}
