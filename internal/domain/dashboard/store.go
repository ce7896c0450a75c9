package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ems/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const employeeCountsSQL = `
    SELECT COUNT(*)::int, (COUNT(*) FILTER (WHERE status = 'active'))::int
    FROM employees
    WHERE role = 'employee'`

const pendingLeaveSQL = `
    SELECT COUNT(*)::int
    FROM leave_requests lr JOIN employees e ON e.id = lr.employee_id
    WHERE lr.status = 'pending' AND e.role = 'employee'`

const presentRowsSQL = `
    SELECT COUNT(*)::int
    FROM attendance a JOIN employees e ON e.id = a.employee_id
    WHERE e.role = 'employee' AND e.status = 'active'
      AND a.date BETWEEN $1 AND $2
      AND a.status IN ('present', 'completed')`

const presentByEmployeeSQL = `
    SELECT e.id::text, e.name, COUNT(*)::int
    FROM attendance a JOIN employees e ON e.id = a.employee_id
    WHERE e.role = 'employee' AND e.status = 'active'
      AND a.date BETWEEN $1 AND $2
      AND a.status IN ('present', 'completed')
    GROUP BY e.id, e.name`

const presentByDaySQL = `
    SELECT to_char(a.date, 'YYYY-MM-DD'), COUNT(*)::int
    FROM attendance a JOIN employees e ON e.id = a.employee_id
    WHERE e.role = 'employee' AND e.status = 'active'
      AND a.date BETWEEN $1 AND $2
      AND a.status IN ('present', 'completed')
    GROUP BY a.date`

const leaveByDaySQL = `
    SELECT to_char(lr.created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD'), COUNT(*)::int
    FROM leave_requests lr JOIN employees e ON e.id = lr.employee_id
    WHERE e.role = 'employee' AND lr.created_at >= $1 AND lr.created_at < $2
    GROUP BY 1`

func (s *Store) EmployeeCounts(ctx context.Context) (total, active int, err error) {
	if err := s.DB.QueryRow(ctx, employeeCountsSQL).Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("employee counts: %w", err)
	}
	return total, active, nil
}

func (s *Store) PendingLeave(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.QueryRow(ctx, pendingLeaveSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("pending leave count: %w", err)
	}
	return count, nil
}

func (s *Store) PresentRows(ctx context.Context, start, end time.Time) (int, error) {
	var count int
	if err := s.DB.QueryRow(ctx, presentRowsSQL, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("present rows: %w", err)
	}
	return count, nil
}

func (s *Store) PresentByEmployee(ctx context.Context, start, end time.Time) ([]presentTally, error) {
	rows, err := s.DB.Query(ctx, presentByEmployeeSQL, start, end)
	if err != nil {
		return nil, fmt.Errorf("present by employee: %w", err)
	}
	defer rows.Close()

	var out []presentTally
	for rows.Next() {
		var t presentTally
		if err := rows.Scan(&t.ID, &t.Name, &t.Count); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) PresentByDay(ctx context.Context, start, end time.Time) (map[string]int, error) {
	return s.countByKey(ctx, "present by day", presentByDaySQL, start, end)
}

// LeaveByDay counts submissions per UTC day in [start, end).
func (s *Store) LeaveByDay(ctx context.Context, start, end time.Time) (map[string]int, error) {
	return s.countByKey(ctx, "leave by day", leaveByDaySQL, start, end)
}

func (s *Store) countByKey(ctx context.Context, op, query string, args ...any) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		out[key] = count
	}
	return out, rows.Err()
}

func buildJobRunsBaseQuery(filter JobRunFilter) (string, []any) {
	query := "SELECT id::text, job_type, status, details_json, started_at, completed_at FROM job_runs"
	var clauses []string
	var args []any
	if filter.JobType != "" {
		args = append(args, filter.JobType)
		clauses = append(clauses, fmt.Sprintf("job_type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	return query, args
}

// ListJobRuns returns background job runs newest first with the total.
func (s *Store) ListJobRuns(ctx context.Context, filter JobRunFilter) ([]JobRun, int, error) {
	base, args := buildJobRunsBaseQuery(filter)

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM ("+base+") job_runs", args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count job runs: %w", err)
	}

	query := base + fmt.Sprintf(" ORDER BY started_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list job runs: %w", err)
	}
	defer rows.Close()

	runs := []JobRun{}
	for rows.Next() {
		var run JobRun
		var details []byte
		if err := rows.Scan(&run.ID, &run.JobType, &run.Status, &details, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, 0, err
		}
		if len(details) == 0 {
			details = []byte("{}")
		}
		run.Details = details
		runs = append(runs, run)
	}
	return runs, total, rows.Err()
}
