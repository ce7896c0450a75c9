package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ems/internal/domain/calendar"
	"ems/internal/domain/employees"
	"ems/internal/domain/notifications"
	"ems/internal/domain/validation"
)

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 100

	// maxClockSkew bounds how far a client timestamp may drift from the
	// server clock.
	maxClockSkew = 5 * time.Minute
)

// EmployeeDirectory resolves employees for attendance writes and reports.
type EmployeeDirectory interface {
	Get(ctx context.Context, id string) (*employees.Employee, error)
	ListActive(ctx context.Context) ([]employees.Employee, error)
}

type Notifier interface {
	Notify(ctx context.Context, d notifications.Draft) (string, error)
}

type Service struct {
	Store     *Store
	Employees EmployeeDirectory
	Notifier  Notifier
	now       func() time.Time
}

func NewService(store *Store, directory EmployeeDirectory, notifier Notifier) *Service {
	return &Service{Store: store, Employees: directory, Notifier: notifier, now: time.Now}
}

func (s *Service) today() time.Time {
	return calendar.Day(s.now())
}

// parseMarkDate validates a manual mark date: YYYY-MM-DD and not after today.
func (s *Service) parseMarkDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, validation.New("date", "date is required")
	}
	day, err := calendar.ParseDay(value)
	if err != nil {
		return time.Time{}, validation.New("date", "invalid date format, expected YYYY-MM-DD")
	}
	if day.After(s.today()) {
		return time.Time{}, validation.New("date", "cannot mark attendance for future dates")
	}
	return day, nil
}

func validateMarkStatus(status string) error {
	if status == "" {
		return validation.New("status", "status is required")
	}
	if !MarkableStatus(status) {
		return validation.New("status", "status must be one of present, absent, late")
	}
	return nil
}

// activeEmployee returns the employee when it exists, is active and holds
// the employee role.
func (s *Service) activeEmployee(ctx context.Context, id string) (*employees.Employee, error) {
	emp, err := s.Employees.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !emp.IsActive() || emp.Role != "employee" {
		return nil, employees.ErrNotFound
	}
	return emp, nil
}

// Mark upserts the attendance status of one employee for one date.
func (s *Service) Mark(ctx context.Context, employeeID, date, status string) (MarkResult, error) {
	if employeeID == "" {
		return MarkResult{}, validation.New("employee_id", "employee_id is required")
	}
	if err := validateMarkStatus(status); err != nil {
		return MarkResult{}, err
	}
	day, err := s.parseMarkDate(date)
	if err != nil {
		return MarkResult{}, err
	}
	if _, err := s.activeEmployee(ctx, employeeID); err != nil {
		return MarkResult{}, err
	}

	rec, created, err := s.Store.Upsert(ctx, employeeID, day, status)
	if err != nil {
		return MarkResult{}, err
	}
	return MarkResult{Record: rec, Created: created}, nil
}

// BulkMark marks every id independently and tallies the outcome.
func (s *Service) BulkMark(ctx context.Context, employeeIDs []string, date, status string) (BulkResult, error) {
	if len(employeeIDs) == 0 {
		return BulkResult{}, validation.New("employee_ids", "employee_ids is required")
	}
	if err := validateMarkStatus(status); err != nil {
		return BulkResult{}, err
	}
	day, err := s.parseMarkDate(date)
	if err != nil {
		return BulkResult{}, err
	}

	res := BulkResult{FailedEmployees: []string{}}
	for _, id := range employeeIDs {
		if _, err := s.activeEmployee(ctx, id); err != nil {
			if !errors.Is(err, employees.ErrNotFound) {
				return BulkResult{}, err
			}
			res.FailedEmployees = append(res.FailedEmployees, fmt.Sprintf("employee %s not found", id))
			continue
		}
		if _, _, err := s.Store.Upsert(ctx, id, day, status); err != nil {
			slog.Warn("bulk attendance mark failed", "employeeId", id, "err", err)
			res.FailedEmployees = append(res.FailedEmployees, fmt.Sprintf("failed for employee %s", id))
			continue
		}
		res.SuccessCount++
	}
	res.FailedCount = len(res.FailedEmployees)
	return res, nil
}

// MarkToday records the caller's own attendance for today once.
func (s *Service) MarkToday(ctx context.Context, employeeID, status string) (Record, error) {
	if status == "" {
		status = StatusPresent
	}
	if err := validateMarkStatus(status); err != nil {
		return Record{}, err
	}
	return s.Store.InsertIfAbsent(ctx, employeeID, s.today(), status)
}

// Stats computes the attendance rate over [start, end]. A malformed
// employee id is reported as an unknown employee.
func (s *Service) Stats(ctx context.Context, employeeID string, start, end time.Time) (Stats, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return Stats{}, employees.ErrNotFound
	}
	start, end = calendar.Day(start), calendar.Day(end)
	present, err := s.Store.CountPresent(ctx, employeeID, start, end)
	if err != nil {
		return Stats{}, err
	}
	working := calendar.WorkingDays(start, end)
	return Stats{
		StartDate:      start.Format(calendar.DateLayout),
		EndDate:        end.Format(calendar.DateLayout),
		PresentDays:    present,
		WorkingDays:    working,
		AttendanceRate: Rate(present, working),
	}, nil
}

// MonthStats is Stats over the current month up to today.
func (s *Service) MonthStats(ctx context.Context, employeeID string) (Stats, error) {
	today := s.today()
	return s.Stats(ctx, employeeID, calendar.MonthStart(today), today)
}

func (s *Service) History(ctx context.Context, employeeID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.Store.History(ctx, employeeID, limit)
}

func (s *Service) Filter(ctx context.Context, p FilterParams) ([]FilterRow, error) {
	if p.EmployeeID != "" {
		if _, err := uuid.Parse(p.EmployeeID); err != nil {
			return nil, validation.New("employee_id", "employee_id is invalid")
		}
	}
	if p.Status != "" && !MarkableStatus(p.Status) && p.Status != StatusCompleted {
		return nil, validation.New("status", "status is invalid")
	}
	if p.Start != nil && p.End != nil && p.End.Before(*p.Start) {
		return nil, validation.New("end_date", "end_date must not be before start_date")
	}
	return s.Store.Filter(ctx, p)
}

// Report summarises attendance for every active employee, or only
// employeeID when set, over the inclusive date range.
func (s *Service) Report(ctx context.Context, startDate, endDate, employeeID string) (Report, error) {
	if startDate == "" || endDate == "" {
		return Report{}, validation.New("start_date", "start date and end date are required")
	}
	start, err := calendar.ParseDay(startDate)
	if err != nil {
		return Report{}, validation.New("start_date", "invalid date format, expected YYYY-MM-DD")
	}
	end, err := calendar.ParseDay(endDate)
	if err != nil {
		return Report{}, validation.New("end_date", "invalid date format, expected YYYY-MM-DD")
	}
	if end.Before(start) {
		return Report{}, validation.New("end_date", "end_date must not be before start_date")
	}

	emps, err := s.Employees.ListActive(ctx)
	if err != nil {
		return Report{}, err
	}
	counts, err := s.Store.RangeCounts(ctx, start, end)
	if err != nil {
		return Report{}, err
	}

	working := calendar.WorkingDays(start, end)
	rows := make([]ReportRow, 0, len(emps))
	for _, emp := range emps {
		if employeeID != "" && emp.ID != employeeID {
			continue
		}
		c := counts[emp.ID]
		rows = append(rows, ReportRow{
			EmployeeID:           emp.ID,
			Name:                 emp.Name,
			Department:           emp.Department,
			Position:             emp.Position,
			PresentDays:          c.Present,
			AbsentDays:           c.Absent,
			LateDays:             c.Late,
			TotalMarkedDays:      c.Total,
			WorkingDays:          working,
			AttendancePercentage: calendar.Percent(c.Present, working, 2),
		})
	}
	return Report{
		Rows: rows,
		Summary: ReportSummary{
			StartDate:      start.Format(calendar.DateLayout),
			EndDate:        end.Format(calendar.DateLayout),
			WorkingDays:    working,
			TotalEmployees: len(rows),
		},
	}, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Store.Delete(ctx, id)
}

// TodaySummary counts today's marks across active employees.
func (s *Service) TodaySummary(ctx context.Context) (TodaySummary, error) {
	today := s.today()
	emps, err := s.Employees.ListActive(ctx)
	if err != nil {
		return TodaySummary{}, err
	}
	counts, err := s.Store.TodayCounts(ctx, today)
	if err != nil {
		return TodaySummary{}, err
	}
	sum := TodaySummary{
		Date:    today.Format(calendar.DateLayout),
		Total:   len(emps),
		Present: counts[StatusPresent] + counts[StatusCompleted],
		Absent:  counts[StatusAbsent],
		Late:    counts[StatusLate],
	}
	sum.NotMarked = max(0, sum.Total-sum.Present-sum.Absent-sum.Late)
	return sum, nil
}

// ClockStatus reports the caller's clock state for today.
func (s *Service) ClockStatus(ctx context.Context, employeeID string) (ClockStatus, error) {
	today := s.today()
	rec, err := s.Store.GetByDate(ctx, employeeID, today)
	if err != nil {
		return ClockStatus{}, err
	}
	return ClockStatus{Date: today.Format(calendar.DateLayout), State: ClockState(rec), Record: rec}, nil
}

// Clock advances the clock state machine for the date of at, or of the
// server clock when at is nil. A supplied at must lie within maxClockSkew
// of the server clock.
func (s *Service) Clock(ctx context.Context, employeeID string, at *time.Time) (ClockResult, error) {
	emp, err := s.Employees.Get(ctx, employeeID)
	if err != nil {
		return ClockResult{}, err
	}
	if !emp.IsActive() {
		return ClockResult{}, employees.ErrNotFound
	}

	when := s.now()
	if at != nil {
		if drift := at.Sub(when); drift > maxClockSkew || drift < -maxClockSkew {
			return ClockResult{}, validation.New("timestamp", "timestamp must be within 5 minutes of the current time")
		}
		when = *at
	}
	day := calendar.Day(when)

	rec, err := s.Store.GetByDate(ctx, employeeID, day)
	if err != nil {
		return ClockResult{}, err
	}
	if rec == nil {
		created, err := s.Store.ClockIn(ctx, employeeID, day, when)
		if err == nil {
			res := ClockResult{
				Action:  "clock_in",
				Record:  created,
				Time:    clockTime(when),
				Message: "Successfully clocked in at " + clockTime(when),
			}
			s.notify(ctx, emp, "Clock In Successful", "You clocked in at "+clockTime(when))
			return res, nil
		}
		if !errors.Is(err, errClockInRace) {
			return ClockResult{}, err
		}
		if rec, err = s.Store.GetByDate(ctx, employeeID, day); err != nil {
			return ClockResult{}, err
		}
		if rec == nil {
			return ClockResult{}, fmt.Errorf("attendance record vanished after clock in conflict")
		}
	}

	if ClockState(rec) != ClockedIn {
		return ClockResult{}, ErrAlreadyCompleted
	}
	if when.Before(*rec.ClockIn) {
		return ClockResult{}, validation.New("timestamp", "clock out time is before clock in time")
	}
	hours := TotalHours(*rec.ClockIn, when)
	closed, err := s.Store.ClockOut(ctx, rec.ID, when, hours)
	if err != nil {
		return ClockResult{}, err
	}
	s.notify(ctx, emp, "Clock Out Successful", fmt.Sprintf("You clocked out at %s. Total hours: %v", clockTime(when), hours))
	return ClockResult{
		Action:     "clock_out",
		Record:     closed,
		Time:       clockTime(when),
		TotalHours: &hours,
		Message:    "Successfully clocked out at " + clockTime(when),
	}, nil
}

func (s *Service) notify(ctx context.Context, emp *employees.Employee, title, message string) {
	if s.Notifier == nil {
		return
	}
	if _, err := s.Notifier.Notify(ctx, notifications.Draft{
		EmployeeID:     emp.ID,
		Type:           notifications.TypeClock,
		Title:          title,
		Message:        message,
		RecipientEmail: emp.Email,
		RecipientName:  emp.Name,
	}); err != nil {
		slog.Warn("clock notification failed", "employeeId", emp.ID, "err", err)
	}
}
