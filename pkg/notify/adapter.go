package notify

import (
	"context"
	"time"
)

// Outcome is what an adapter reports for a completed (non-error) attempt.
type Outcome struct {
	// Provider names the backend that carried the message.
	Provider string
	// MessageID is the provider-assigned identifier, when available.
	MessageID string
	// Skipped marks an attempt the adapter declined without error, e.g.
	// an expired request or a missing contact point discovered late.
	Skipped    bool
	SkipReason string
}

// Adapter delivers notifications over a single channel. Implementations
// must be safe for concurrent use; the orchestrator invokes one adapter
// from many goroutines.
type Adapter interface {
	Channel() Channel
	Send(ctx context.Context, req Request, rcpt Profile) (Outcome, error)
}

// DefaultTimeout bounds a single channel attempt when no per-channel
// timeout is configured.
const DefaultTimeout = 10 * time.Second

// Registry maps channels to adapters and per-channel attempt timeouts.
// It is assembled once at startup and read lock-free thereafter.
type Registry struct {
	adapters map[Channel]Adapter
	timeouts map[Channel]time.Duration
}

// NewRegistry returns an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[Channel]Adapter),
		timeouts: make(map[Channel]time.Duration),
	}
}

// Register binds an adapter to its channel with an attempt timeout.
// A non-positive timeout falls back to DefaultTimeout. Registering nil
// is a no-op. Returns the registry for chaining.
func (r *Registry) Register(a Adapter, timeout time.Duration) *Registry {
	if a == nil {
		return r
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	r.adapters[a.Channel()] = a
	r.timeouts[a.Channel()] = timeout
	return r
}

// Adapter returns the adapter bound to the channel, if any.
func (r *Registry) Adapter(ch Channel) (Adapter, bool) {
	a, ok := r.adapters[ch]
	return a, ok
}

// Timeout returns the attempt timeout for the channel.
func (r *Registry) Timeout(ch Channel) time.Duration {
	if d, ok := r.timeouts[ch]; ok {
		return d
	}
	return DefaultTimeout
}

// Channels lists the channels with a registered adapter.
func (r *Registry) Channels() []Channel {
	out := make([]Channel, 0, len(r.adapters))
	for ch := range r.adapters {
		out = append(out, ch)
	}
	return out
}
