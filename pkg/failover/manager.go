package failover

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/servicekit/notify/pkg/logger"
)

const (
	defaultInterval     = 30 * time.Second
	defaultProbeTimeout = 5 * time.Second
)

// Manager routes sends through a primary provider and fails over to a
// backup. A background health loop probes both providers and switches
// the active one: the primary is restored as soon as it probes healthy,
// the backup takes over when the primary probes unhealthy.
type Manager struct {
	primary Provider
	backup  Provider

	mu     sync.RWMutex
	active Provider
	health map[string]*Health

	interval     time.Duration
	probeTimeout time.Duration
	logger       *slog.Logger
	now          func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// Option customizes a Manager.
type Option func(*Manager)

// WithInterval sets the health probe interval. Defaults to 30s.
func WithInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithProbeTimeout bounds a single health probe. Defaults to 5s.
func WithProbeTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.probeTimeout = d
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.logger = log
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New builds a Manager with the primary provider active.
func New(primary, backup Provider, opts ...Option) (*Manager, error) {
	if primary == nil || backup == nil {
		return nil, ErrProviderNil
	}
	m := &Manager{
		primary:      primary,
		backup:       backup,
		active:       primary,
		health:       make(map[string]*Health, 2),
		interval:     defaultInterval,
		probeTimeout: defaultProbeTimeout,
		logger:       slog.Default(),
		now:          time.Now,
	}
	m.health[primary.Name()] = &Health{}
	m.health[backup.Name()] = &Health{}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Start launches the health loop. It probes both providers immediately
// and then on every interval tick until the context is canceled or Stop
// is called.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, m.cancel = context.WithCancel(ctx)
	done := make(chan struct{})
	m.done = done
	m.mu.Unlock()

	go m.loop(ctx, done)
	return nil
}

// Stop halts the health loop and waits for it to exit. Safe to call on
// a manager that was never started.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// loop owns the done channel it was started with; reading m.done here
// would race with a restart.
func (m *Manager) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	m.checkOnce(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkOnce(ctx)
		}
	}
}

func (m *Manager) checkOnce(ctx context.Context) {
	primaryHealthy := m.probe(ctx, m.primary)
	backupHealthy := m.probe(ctx, m.backup)

	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case primaryHealthy && m.active == m.backup:
		m.active = m.primary
		m.logger.Info("primary provider recovered, switching back",
			logger.Provider(m.primary.Name()))
	case !primaryHealthy && backupHealthy && m.active == m.primary:
		m.active = m.backup
		m.logger.Warn("primary provider unhealthy, failing over",
			logger.Provider(m.backup.Name()))
	}
}

// probe checks one provider and updates its health entry.
func (m *Manager) probe(ctx context.Context, p Provider) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()
	err := p.Probe(probeCtx)

	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.health[p.Name()]
	h.LastCheckedAt = m.now()
	if err != nil {
		h.Connected = false
		h.ConsecutiveFailures++
		return false
	}
	h.Connected = true
	h.ConsecutiveFailures = 0
	return true
}

// Send delivers through the active provider, falling back to the other
// one in-band when the active send fails. It returns the name of the
// provider that carried the message.
func (m *Manager) Send(ctx context.Context, to, message string) (provider, messageID string, err error) {
	m.mu.RLock()
	active := m.active
	m.mu.RUnlock()

	id, err := active.Send(ctx, to, message)
	m.observe(active, err)
	if err == nil {
		return active.Name(), id, nil
	}

	other := m.primary
	if active == m.primary {
		other = m.backup
	}
	m.logger.Warn("active provider send failed, trying fallback",
		logger.Provider(active.Name()), logger.Error(err))

	id2, err2 := other.Send(ctx, to, message)
	m.observe(other, err2)
	if err2 == nil {
		return other.Name(), id2, nil
	}
	return "", "", errors.Join(ErrProvidersUnavailable, err, err2)
}

// observe folds a send outcome into the provider's health entry.
func (m *Manager) observe(p Provider, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.health[p.Name()]
	h.LastCheckedAt = m.now()
	if err != nil {
		h.Connected = false
		h.ConsecutiveFailures++
		return
	}
	h.Connected = true
	h.ConsecutiveFailures = 0
}

// Active returns the name of the currently active provider.
func (m *Manager) Active() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active.Name()
}

// HealthSnapshot returns a copy of both providers' health entries keyed
// by provider name.
func (m *Manager) HealthSnapshot() map[string]Health {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Health, len(m.health))
	for name, h := range m.health {
		out[name] = *h
	}
	return out
}
