package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Result classifies the outcome recorded by an audit event.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// Event is a single immutable audit record.
type Event struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource,omitempty"`
	ResourceID string         `json:"resource_id,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	Result     Result         `json:"result"`
	Error      string         `json:"error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Storage persists audit events.
type Storage interface {
	Store(ctx context.Context, event Event) error
}

// Logger records audit events describing actions taken by the system.
type Logger interface {
	// Log records a successful action.
	Log(ctx context.Context, action string, opts ...EventOption) error
	// LogError records a failed action with its error.
	LogError(ctx context.Context, action string, actionErr error, opts ...EventOption) error
}

// EventOption customizes an event before it is stored.
type EventOption func(*Event)

// WithUser attaches the acting or affected user id.
func WithUser(userID string) EventOption {
	return func(e *Event) { e.UserID = userID }
}

// WithResource attaches the resource type and id the action touched.
func WithResource(resource, resourceID string) EventOption {
	return func(e *Event) {
		e.Resource = resource
		e.ResourceID = resourceID
	}
}

// WithMetadata merges extra key-value context into the event.
func WithMetadata(md map[string]any) EventOption {
	return func(e *Event) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any, len(md))
		}
		for k, v := range md {
			e.Metadata[k] = v
		}
	}
}

type logger struct {
	storage Storage
}

// NewLogger returns a Logger backed by the given storage.
func NewLogger(storage Storage) Logger {
	return &logger{storage: storage}
}

func (l *logger) Log(ctx context.Context, action string, opts ...EventOption) error {
	return l.store(ctx, action, ResultSuccess, "", opts)
}

func (l *logger) LogError(ctx context.Context, action string, actionErr error, opts ...EventOption) error {
	msg := ""
	if actionErr != nil {
		msg = actionErr.Error()
	}
	return l.store(ctx, action, ResultFailure, msg, opts)
}

func (l *logger) store(ctx context.Context, action string, result Result, errMsg string, opts []EventOption) error {
	if action == "" {
		return ErrActionRequired
	}
	event := Event{
		ID:        uuid.NewString(),
		Action:    action,
		Result:    result,
		Error:     errMsg,
		CreatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(&event)
	}
	return l.storage.Store(ctx, event)
}
