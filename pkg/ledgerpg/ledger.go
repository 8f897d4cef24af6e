package ledgerpg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/servicekit/notify/pkg/notify"
)

// Ledger is the Postgres-backed delivery ledger.
type Ledger struct {
	pool *pgxpool.Pool
}

// NewLedger wraps a connection pool. Run Migrate before first use.
func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

func (l *Ledger) RecordRequest(ctx context.Context, req notify.Request) error {
	if req.ID == "" || req.RecipientID == "" {
		return notify.ErrInvalidRequest
	}

	var data []byte
	if req.Data != nil {
		encoded, err := json.Marshal(req.Data)
		if err != nil {
			return fmt.Errorf("%w: data payload not serializable", notify.ErrInvalidRequest)
		}
		data = encoded
	}

	_, err := l.pool.Exec(ctx, `
		INSERT INTO notifications (
			id, recipient_id, priority, category, title, body, data,
			expires_at, requires_ack, action_url, action_label, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		req.ID, req.RecipientID, string(req.Priority), req.Category,
		req.Title, req.Body, data, req.ExpiresAt, req.RequiresAck,
		req.ActionURL, req.ActionLabel, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (l *Ledger) RecordAttempt(ctx context.Context, attempt notify.DeliveryAttempt) error {
	if attempt.NotificationID == "" {
		return notify.ErrNotificationNotFound
	}
	_, err := l.pool.Exec(ctx, `
		INSERT INTO delivery_attempts (
			id, notification_id, channel, status, provider, message_id, error, attempted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		attempt.ID, attempt.NotificationID, string(attempt.Channel),
		string(attempt.Status), attempt.Provider, attempt.MessageID,
		attempt.Error, attempt.AttemptedAt,
	)
	if err != nil {
		return fmt.Errorf("insert delivery attempt: %w", err)
	}
	return nil
}

func (l *Ledger) List(ctx context.Context, recipientID string, opts notify.ListOptions) ([]notify.Entry, error) {
	var (
		where = []string{"recipient_id = $1"}
		args  = []any{recipientID}
	)
	if opts.OnlyUnread {
		where = append(where, "NOT read")
	}
	if opts.Category != "" {
		args = append(args, opts.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if opts.Since != nil {
		args = append(args, *opts.Since)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if opts.Until != nil {
		args = append(args, *opts.Until)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT id, recipient_id, priority, category, title, body, data,
		       expires_at, requires_ack, action_url, action_label,
		       read, read_at, created_at
		FROM notifications
		WHERE %s
		ORDER BY created_at DESC`, strings.Join(where, " AND "))
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var entries []notify.Entry
	for rows.Next() {
		var (
			e        notify.Entry
			priority string
			data     []byte
		)
		if err := rows.Scan(
			&e.ID, &e.RecipientID, &priority, &e.Category, &e.Title, &e.Body,
			&data, &e.ExpiresAt, &e.RequiresAck, &e.ActionURL, &e.ActionLabel,
			&e.Read, &e.ReadAt, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		e.Priority = notify.Priority(priority)
		if len(data) > 0 {
			if err := json.Unmarshal(data, &e.Data); err != nil {
				return nil, fmt.Errorf("decode notification data: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return entries, nil
}

func (l *Ledger) Attempts(ctx context.Context, notificationID string) ([]notify.DeliveryAttempt, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, notification_id, channel, status, provider, message_id, error, attempted_at
		FROM delivery_attempts
		WHERE notification_id = $1
		ORDER BY attempted_at`, notificationID)
	if err != nil {
		return nil, fmt.Errorf("list delivery attempts: %w", err)
	}
	defer rows.Close()

	var attempts []notify.DeliveryAttempt
	for rows.Next() {
		var (
			a       notify.DeliveryAttempt
			channel string
			status  string
		)
		if err := rows.Scan(&a.ID, &a.NotificationID, &channel, &status,
			&a.Provider, &a.MessageID, &a.Error, &a.AttemptedAt); err != nil {
			return nil, fmt.Errorf("scan delivery attempt: %w", err)
		}
		a.Channel = notify.Channel(channel)
		a.Status = notify.AttemptStatus(status)
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list delivery attempts: %w", err)
	}
	return attempts, nil
}

func (l *Ledger) MarkRead(ctx context.Context, recipientID string, notificationIDs ...string) error {
	if len(notificationIDs) == 0 {
		return nil
	}
	_, err := l.pool.Exec(ctx, `
		UPDATE notifications
		SET read = TRUE, read_at = $1
		WHERE recipient_id = $2 AND id = ANY($3) AND NOT read`,
		time.Now(), recipientID, notificationIDs,
	)
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

func (l *Ledger) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := l.pool.QueryRow(ctx, `
		SELECT count(*) FROM notifications
		WHERE recipient_id = $1 AND NOT read`, recipientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// IsNotFoundError detects pgx.ErrNoRows for consistent lookup handling.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, pgx.ErrNoRows)
}
