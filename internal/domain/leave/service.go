package leave

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ems/internal/domain/calendar"
	"ems/internal/domain/employees"
	"ems/internal/domain/notifications"
	"ems/internal/domain/validation"
)

const (
	historyLimit = 100
	recentLimit  = 5
)

type EmployeeDirectory interface {
	Get(ctx context.Context, id string) (*employees.Employee, error)
}

type Notifier interface {
	Notify(ctx context.Context, d notifications.Draft) (string, error)
}

type Service struct {
	store     StoreAPI
	Employees EmployeeDirectory
	Notifier  Notifier
	now       func() time.Time
}

func NewService(store StoreAPI, directory EmployeeDirectory, notifier Notifier) *Service {
	return &Service{store: store, Employees: directory, Notifier: notifier, now: time.Now}
}

func (s *Service) today() time.Time {
	return calendar.Day(s.now())
}

// validateCreate applies the creation checks in their fixed order and
// returns the parsed range.
func (s *Service) validateCreate(in CreateInput) (time.Time, time.Time, error) {
	required := []struct{ field, value string }{
		{"employee_id", in.EmployeeID},
		{"leave_type", in.LeaveType},
		{"start_date", in.StartDate},
		{"end_date", in.EndDate},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return time.Time{}, time.Time{}, validation.New(r.field, r.field+" is required")
		}
	}
	if strings.TrimSpace(in.Reason) == "" {
		return time.Time{}, time.Time{}, validation.New("reason", "reason is required")
	}
	if !ValidType(in.LeaveType) {
		return time.Time{}, time.Time{}, validation.New("leave_type", "invalid leave type")
	}
	start, err := calendar.ParseDay(in.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, validation.New("start_date", "invalid date format, expected YYYY-MM-DD")
	}
	end, err := calendar.ParseDay(in.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, validation.New("end_date", "invalid date format, expected YYYY-MM-DD")
	}
	if start.Before(s.today()) {
		return time.Time{}, time.Time{}, validation.New("start_date", "start date cannot be in the past")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, validation.New("end_date", "end date must not be before start date")
	}
	return start, end, nil
}

// Create files a pending request for an existing employee.
func (s *Service) Create(ctx context.Context, in CreateInput) (Request, error) {
	start, end, err := s.validateCreate(in)
	if err != nil {
		return Request{}, err
	}
	if _, err := s.Employees.Get(ctx, in.EmployeeID); err != nil {
		return Request{}, err
	}

	req, err := s.store.Create(ctx, in.EmployeeID, in.LeaveType, strings.TrimSpace(in.Reason), start, end)
	if err != nil {
		return Request{}, err
	}
	s.notify(ctx, req)
	return req, nil
}

// UpdateStatus sets the status of a request and notifies its employee.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (Request, error) {
	if id == "" {
		return Request{}, validation.New("request_id", "request_id is required")
	}
	if status == "" {
		return Request{}, validation.New("status", "status is required")
	}
	if !ValidStatus(status) {
		return Request{}, validation.New("status", "status must be one of pending, approved, rejected")
	}
	if _, err := s.store.Get(ctx, id); err != nil {
		return Request{}, err
	}
	req, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return Request{}, err
	}
	s.notify(ctx, req)
	return req, nil
}

// Cancel deletes one of the employee's own requests while it is pending.
// Requests owned by someone else are reported as not found.
func (s *Service) Cancel(ctx context.Context, employeeID, id string) error {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if req.EmployeeID != employeeID {
		return ErrNotFound
	}
	if req.Status != StatusPending {
		return ErrInvalidState
	}
	return s.store.DeletePending(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (Request, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Request, int, error) {
	if filter.Status != "" && !ValidStatus(filter.Status) {
		return nil, 0, validation.New("status", "status must be one of pending, approved, rejected")
	}
	return s.store.List(ctx, filter)
}

func (s *Service) History(ctx context.Context, employeeID string) ([]Request, error) {
	return s.store.ListForEmployee(ctx, employeeID, historyLimit)
}

func (s *Service) Recent(ctx context.Context, employeeID string) ([]Request, error) {
	return s.store.ListForEmployee(ctx, employeeID, recentLimit)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.store.Stats(ctx)
}

// Balance is the allocation left for year after approved requests that
// start in that year.
func (s *Service) Balance(ctx context.Context, employeeID string, year int) (Balance, error) {
	start, end := calendar.YearBounds(year)
	used, err := s.store.ApprovedDays(ctx, employeeID, start, end)
	if err != nil {
		return Balance{}, err
	}
	return Balance{Year: year, Allocation: AnnualAllocation, Used: used, Remaining: Remaining(used)}, nil
}

// EmployeeStats summarises the current year for one employee.
func (s *Service) EmployeeStats(ctx context.Context, employeeID string) (EmployeeStats, error) {
	start, end := calendar.YearBounds(s.today().Year())
	sum, err := s.store.YearSummary(ctx, employeeID, start, end)
	if err != nil {
		return EmployeeStats{}, err
	}
	return EmployeeStats{
		TotalRequested:   sum.RequestedDays,
		ApprovedDays:     sum.ApprovedDays,
		PendingRequests:  sum.Pending,
		RemainingBalance: Remaining(sum.ApprovedDays),
	}, nil
}

// notify queues the status email. Failures are logged and never surface.
func (s *Service) notify(ctx context.Context, req Request) {
	if s.Notifier == nil {
		return
	}
	draft, err := notifications.LeaveStatusDraft(notifications.LeaveEmail{
		EmployeeID:    req.EmployeeID,
		EmployeeName:  req.EmployeeName,
		EmployeeEmail: req.EmployeeEmail,
		LeaveType:     req.LeaveType,
		Status:        req.Status,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Reason:        req.Reason,
	})
	if err == nil {
		_, err = s.Notifier.Notify(ctx, draft)
	}
	if err != nil {
		slog.Warn("leave notification failed", "requestId", req.ID, "status", req.Status, "err", err)
	}
}

// IsNotFound reports whether err means the request or its employee is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, employees.ErrNotFound)
}
