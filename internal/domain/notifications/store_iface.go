package notifications

import (
	"context"
	"time"
)

type StoreAPI interface {
	Insert(ctx context.Context, d Draft) (string, error)
	ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]outboxItem, error)
	MarkSent(ctx context.Context, id string) error
	MarkAttemptFailed(ctx context.Context, id, lastError string, nextAttempt time.Time, final bool) error
	Defer(ctx context.Context, id, lastError string, nextAttempt time.Time) error
	ListForEmployee(ctx context.Context, employeeID string, limit, offset int) ([]Notification, error)
	CountForEmployee(ctx context.Context, employeeID string) (int, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]Notification, error)
	MarkRead(ctx context.Context, employeeID, id string) error
	Retry(ctx context.Context, id string) error
	CountPending(ctx context.Context) (int, error)
}
