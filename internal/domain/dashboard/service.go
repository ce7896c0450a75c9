package dashboard

import (
	"context"
	"time"

	"ems/internal/domain/attendance"
	"ems/internal/domain/calendar"
	"ems/internal/domain/employees"
	"ems/internal/domain/leave"
)

const defaultJobRunLimit = 50

type AttendanceSource interface {
	TodaySummary(ctx context.Context) (attendance.TodaySummary, error)
	Stats(ctx context.Context, employeeID string, start, end time.Time) (attendance.Stats, error)
	ClockStatus(ctx context.Context, employeeID string) (attendance.ClockStatus, error)
}

type LeaveSource interface {
	EmployeeStats(ctx context.Context, employeeID string) (leave.EmployeeStats, error)
	Recent(ctx context.Context, employeeID string) ([]leave.Request, error)
}

type EmployeeSource interface {
	Get(ctx context.Context, id string) (*employees.Employee, error)
	DepartmentSize(ctx context.Context, department string) (int, error)
}

// Service assembles dashboards on every call; nothing is cached.
type Service struct {
	Store      *Store
	Attendance AttendanceSource
	Leave      LeaveSource
	Employees  EmployeeSource
	now        func() time.Time
}

func NewService(store *Store, att AttendanceSource, lv LeaveSource, emps EmployeeSource) *Service {
	return &Service{Store: store, Attendance: att, Leave: lv, Employees: emps, now: time.Now}
}

// today is the current UTC date, the same clock the leave buckets use.
func (s *Service) today() time.Time {
	return calendar.Day(s.now().UTC())
}

func (s *Service) Admin(ctx context.Context) (Admin, error) {
	today := s.today()
	monthStart := calendar.MonthStart(today)

	total, active, err := s.Store.EmployeeCounts(ctx)
	if err != nil {
		return Admin{}, err
	}
	summary, err := s.Attendance.TodaySummary(ctx)
	if err != nil {
		return Admin{}, err
	}
	pending, err := s.Store.PendingLeave(ctx)
	if err != nil {
		return Admin{}, err
	}
	presentRows, err := s.Store.PresentRows(ctx, monthStart, today)
	if err != nil {
		return Admin{}, err
	}
	tallies, err := s.Store.PresentByEmployee(ctx, monthStart, today)
	if err != nil {
		return Admin{}, err
	}
	leaveDays, err := s.Store.LeaveByDay(ctx, monthStart, today.AddDate(0, 0, 1))
	if err != nil {
		return Admin{}, err
	}
	presentDays, err := s.Store.PresentByDay(ctx, monthStart, today)
	if err != nil {
		return Admin{}, err
	}

	return Admin{
		TotalEmployees:        total,
		ActiveEmployees:       active,
		Today:                 summary,
		PendingLeaveRequests:  pending,
		OverallAttendanceRate: calendar.Percent(presentRows, active*calendar.WorkingDays(monthStart, today), 1),
		EmployeeOfMonth:       PickEmployeeOfMonth(tallies),
		MonthlyLeaveTrends:    LeaveTrend(today, leaveDays),
		AttendanceTrends:      AttendanceTrend(today, presentDays, active),
		CurrentMonth:          today.Format("January 2006"),
	}, nil
}

// AdminData is Admin stamped with the generation time for polling clients.
func (s *Service) AdminData(ctx context.Context) (Admin, error) {
	data, err := s.Admin(ctx)
	if err != nil {
		return Admin{}, err
	}
	ts := s.now()
	data.Timestamp = &ts
	return data, nil
}

func (s *Service) Employee(ctx context.Context, employeeID string) (Employee, error) {
	today := s.today()
	monthStart := calendar.MonthStart(today)
	prevMonth := monthStart.AddDate(0, -1, 0)

	emp, err := s.Employees.Get(ctx, employeeID)
	if err != nil {
		return Employee{}, err
	}
	current, err := s.Attendance.Stats(ctx, employeeID, monthStart, today)
	if err != nil {
		return Employee{}, err
	}
	previous, err := s.Attendance.Stats(ctx, employeeID, prevMonth, calendar.MonthEnd(prevMonth))
	if err != nil {
		return Employee{}, err
	}
	leaveStats, err := s.Leave.EmployeeStats(ctx, employeeID)
	if err != nil {
		return Employee{}, err
	}
	teamSize := 1
	if emp.Department != "" {
		size, err := s.Employees.DepartmentSize(ctx, emp.Department)
		if err != nil {
			return Employee{}, err
		}
		teamSize = max(1, size)
	}
	clock, err := s.Attendance.ClockStatus(ctx, employeeID)
	if err != nil {
		return Employee{}, err
	}
	recent, err := s.Leave.Recent(ctx, employeeID)
	if err != nil {
		return Employee{}, err
	}

	ts := s.now()
	return Employee{
		Attendance:          current,
		AttendanceTrend:     calendar.Round(current.AttendanceRate-previous.AttendanceRate, 1),
		LeaveBalance:        leaveStats.RemainingBalance,
		PendingRequests:     leaveStats.PendingRequests,
		TeamSize:            teamSize,
		Today:               clock,
		RecentLeaveRequests: recent,
		CurrentMonth:        today.Format("January 2006"),
		Timestamp:           &ts,
	}, nil
}

func (s *Service) JobRuns(ctx context.Context, filter JobRunFilter) ([]JobRun, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultJobRunLimit
	}
	return s.Store.ListJobRuns(ctx, filter)
}
