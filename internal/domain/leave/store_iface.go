package leave

import (
	"context"
	"time"
)

type StoreAPI interface {
	Create(ctx context.Context, employeeID, leaveType, reason string, start, end time.Time) (Request, error)
	Get(ctx context.Context, id string) (Request, error)
	UpdateStatus(ctx context.Context, id, status string) (Request, error)
	DeletePending(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]Request, int, error)
	ListForEmployee(ctx context.Context, employeeID string, limit int) ([]Request, error)
	Stats(ctx context.Context) (Stats, error)
	ApprovedDays(ctx context.Context, employeeID string, start, end time.Time) (int, error)
	YearSummary(ctx context.Context, employeeID string, start, end time.Time) (yearSummary, error)
}
