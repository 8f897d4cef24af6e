package notify

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryLedger is an in-memory Ledger for tests and single-process
// deployments without a database.
type MemoryLedger struct {
	mu       sync.RWMutex
	entries  map[string][]Entry          // recipientID -> entries
	attempts map[string][]DeliveryAttempt // notificationID -> attempts
}

// NewMemoryLedger returns an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		entries:  make(map[string][]Entry),
		attempts: make(map[string][]DeliveryAttempt),
	}
}

func (l *MemoryLedger) RecordRequest(_ context.Context, req Request) error {
	if req.ID == "" || req.RecipientID == "" {
		return ErrInvalidRequest
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[req.RecipientID] = append(l.entries[req.RecipientID], Entry{Request: req})
	return nil
}

func (l *MemoryLedger) RecordAttempt(_ context.Context, attempt DeliveryAttempt) error {
	if attempt.NotificationID == "" {
		return ErrNotificationNotFound
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts[attempt.NotificationID] = append(l.attempts[attempt.NotificationID], attempt)
	return nil
}

func (l *MemoryLedger) List(_ context.Context, recipientID string, opts ListOptions) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Entry
	for _, e := range l.entries[recipientID] {
		if opts.OnlyUnread && e.Read {
			continue
		}
		if opts.Category != "" && e.Category != opts.Category {
			continue
		}
		if opts.Since != nil && e.CreatedAt.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && e.CreatedAt.After(*opts.Until) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (l *MemoryLedger) Attempts(_ context.Context, notificationID string) ([]DeliveryAttempt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	src := l.attempts[notificationID]
	out := make([]DeliveryAttempt, len(src))
	copy(out, src)
	return out, nil
}

func (l *MemoryLedger) MarkRead(_ context.Context, recipientID string, notificationIDs ...string) error {
	ids := make(map[string]struct{}, len(notificationIDs))
	for _, id := range notificationIDs {
		ids[id] = struct{}{}
	}
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	entries := l.entries[recipientID]
	for i := range entries {
		if _, ok := ids[entries[i].ID]; ok && !entries[i].Read {
			entries[i].Read = true
			at := now
			entries[i].ReadAt = &at
		}
	}
	return nil
}

func (l *MemoryLedger) CountUnread(_ context.Context, recipientID string) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, e := range l.entries[recipientID] {
		if !e.Read {
			n++
		}
	}
	return n, nil
}
