package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("notification not found")

const notificationColumns = `id, employee_id, type, title, message, recipient_email, recipient_name, status, email_sent, attempts, last_error, next_attempt_at, read_at, created_at`

const (
	insertSQL = `
    INSERT INTO notifications (employee_id, type, title, message, html_message, recipient_email, recipient_name)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING id
  `

	// claimDueSQL leases due rows by pushing next_attempt_at forward so a
	// crashed sender's rows become due again once the lease lapses.
	claimDueSQL = `
    UPDATE notifications
    SET next_attempt_at = now() + ($2 * interval '1 second'), updated_at = now()
    WHERE id IN (
      SELECT id FROM notifications
      WHERE status = 'pending' AND next_attempt_at <= now()
      ORDER BY next_attempt_at, created_at
      LIMIT $1
      FOR UPDATE SKIP LOCKED
    )
    RETURNING id, title, message, html_message, recipient_email, recipient_name, attempts
  `

	markSentSQL = `
    UPDATE notifications
    SET status = 'sent', email_sent = true, attempts = attempts + 1, last_error = '', updated_at = now()
    WHERE id = $1
  `

	markAttemptFailedSQL = `
    UPDATE notifications
    SET attempts = attempts + 1, last_error = $2, next_attempt_at = $3,
        status = CASE WHEN $4 THEN 'failed' ELSE 'pending' END,
        updated_at = now()
    WHERE id = $1
  `

	deferSQL = `
    UPDATE notifications
    SET last_error = $2, next_attempt_at = $3, updated_at = now()
    WHERE id = $1
  `

	listForEmployeeSQL = `SELECT ` + notificationColumns + `
    FROM notifications
    WHERE employee_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `

	countForEmployeeSQL = `SELECT COUNT(1) FROM notifications WHERE employee_id = $1`

	listByStatusSQL = `SELECT ` + notificationColumns + `
    FROM notifications
    WHERE status = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `

	markReadSQL = `
    UPDATE notifications SET read_at = COALESCE(read_at, now())
    WHERE employee_id = $1 AND id = $2
  `

	retrySQL = `
    UPDATE notifications
    SET status = 'pending', attempts = 0, last_error = '', next_attempt_at = now(), updated_at = now()
    WHERE id = $1 AND status = 'failed'
  `

	countPendingSQL = `SELECT COUNT(1) FROM notifications WHERE status = 'pending'`
)

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func (s *Store) Insert(ctx context.Context, d Draft) (string, error) {
	var id string
	if err := s.DB.QueryRow(ctx, insertSQL,
		nullIfEmpty(d.EmployeeID), d.Type, d.Title, d.Message, d.HTML, d.RecipientEmail, d.RecipientName,
	).Scan(&id); err != nil {
		return "", fmt.Errorf("insert notification: %w", err)
	}
	return id, nil
}

func (s *Store) ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]outboxItem, error) {
	rows, err := s.DB.Query(ctx, claimDueSQL, limit, int(lease.Seconds()))
	if err != nil {
		return nil, fmt.Errorf("claim notifications: %w", err)
	}
	defer rows.Close()

	var out []outboxItem
	for rows.Next() {
		var it outboxItem
		if err := rows.Scan(&it.ID, &it.Title, &it.Message, &it.HTML, &it.RecipientEmail, &it.RecipientName, &it.Attempts); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, markSentSQL, id)
	return err
}

func (s *Store) MarkAttemptFailed(ctx context.Context, id, lastError string, nextAttempt time.Time, final bool) error {
	_, err := s.DB.Exec(ctx, markAttemptFailedSQL, id, lastError, nextAttempt, final)
	return err
}

func (s *Store) Defer(ctx context.Context, id, lastError string, nextAttempt time.Time) error {
	_, err := s.DB.Exec(ctx, deferSQL, id, lastError, nextAttempt)
	return err
}

func (s *Store) scanList(ctx context.Context, query string, args ...any) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Notification, 0)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.EmployeeID, &n.Type, &n.Title, &n.Message, &n.RecipientEmail, &n.RecipientName,
			&n.Status, &n.EmailSent, &n.Attempts, &n.LastError, &n.NextAttemptAt, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) ListForEmployee(ctx context.Context, employeeID string, limit, offset int) ([]Notification, error) {
	return s.scanList(ctx, listForEmployeeSQL, employeeID, limit, offset)
}

func (s *Store) CountForEmployee(ctx context.Context, employeeID string) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, countForEmployeeSQL, employeeID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ListByStatus(ctx context.Context, status string, limit, offset int) ([]Notification, error) {
	return s.scanList(ctx, listByStatusSQL, status, limit, offset)
}

func (s *Store) MarkRead(ctx context.Context, employeeID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	cmd, err := s.DB.Exec(ctx, markReadSQL, employeeID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Retry(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	cmd, err := s.DB.Exec(ctx, retrySQL, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CountPending(ctx context.Context) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, countPendingSQL).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
