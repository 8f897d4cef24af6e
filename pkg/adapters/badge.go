package adapters

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// BadgeStore tracks the per-user unread counter shown on app icons and
// tab badges.
type BadgeStore interface {
	// Incr bumps the user's unread counter and returns the new value.
	Incr(ctx context.Context, userID string) (int, error)
	// Reset clears the user's unread counter.
	Reset(ctx context.Context, userID string) error
	// Get returns the user's unread counter.
	Get(ctx context.Context, userID string) (int, error)
}

func badgeKey(userID string) string {
	return "badge:" + userID
}

// RedisBadgeStore keeps unread counters in Redis so every app instance
// sees the same badge value.
type RedisBadgeStore struct {
	client redis.UniversalClient
}

// NewRedisBadgeStore returns a Redis-backed badge store.
func NewRedisBadgeStore(client redis.UniversalClient) *RedisBadgeStore {
	return &RedisBadgeStore{client: client}
}

func (s *RedisBadgeStore) Incr(ctx context.Context, userID string) (int, error) {
	n, err := s.client.Incr(ctx, badgeKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("badge incr: %w", err)
	}
	return int(n), nil
}

func (s *RedisBadgeStore) Reset(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, badgeKey(userID)).Err(); err != nil {
		return fmt.Errorf("badge reset: %w", err)
	}
	return nil
}

func (s *RedisBadgeStore) Get(ctx context.Context, userID string) (int, error) {
	n, err := s.client.Get(ctx, badgeKey(userID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("badge get: %w", err)
	}
	return n, nil
}

// MemoryBadgeStore is an in-memory badge store for tests and
// single-process deployments.
type MemoryBadgeStore struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMemoryBadgeStore returns an empty in-memory badge store.
func NewMemoryBadgeStore() *MemoryBadgeStore {
	return &MemoryBadgeStore{counts: make(map[string]int)}
}

func (s *MemoryBadgeStore) Incr(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[userID]++
	return s.counts[userID], nil
}

func (s *MemoryBadgeStore) Reset(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counts, userID)
	return nil
}

func (s *MemoryBadgeStore) Get(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[userID], nil
}
