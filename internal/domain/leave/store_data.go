package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"ems/internal/platform/querier"
)

var (
	ErrNotFound     = errors.New("leave request not found")
	ErrOverlap      = errors.New("leave request overlaps with an existing request")
	ErrInvalidState = errors.New("can only cancel pending requests")
)

// createRetries bounds the retries of a serialization failure on create.
const createRetries = 3

const requestColumns = `
    lr.id::text, lr.employee_id::text, lr.leave_type,
    to_char(lr.start_date, 'YYYY-MM-DD'), to_char(lr.end_date, 'YYYY-MM-DD'),
    (lr.end_date - lr.start_date + 1), lr.reason, lr.status, lr.created_at, lr.updated_at,
    e.name, e.email, COALESCE(e.department, ''), COALESCE(e.position, '')`

const overlapExistsSQL = `
    SELECT EXISTS (
      SELECT 1 FROM leave_requests
      WHERE employee_id = $1 AND status <> 'rejected'
        AND start_date <= $3 AND end_date >= $2
    )`

const insertRequestSQL = `
    WITH lr AS (
      INSERT INTO leave_requests (employee_id, leave_type, start_date, end_date, reason, status)
      VALUES ($1, $2, $3, $4, $5, 'pending')
      RETURNING *
    )
    SELECT` + requestColumns + `
    FROM lr JOIN employees e ON e.id = lr.employee_id`

const getRequestSQL = `
    SELECT` + requestColumns + `
    FROM leave_requests lr JOIN employees e ON e.id = lr.employee_id
    WHERE lr.id = $1`

const updateStatusSQL = `
    WITH lr AS (
      UPDATE leave_requests SET status = $2, updated_at = now()
      WHERE id = $1
      RETURNING *
    )
    SELECT` + requestColumns + `
    FROM lr JOIN employees e ON e.id = lr.employee_id`

const (
	deletePendingSQL = `DELETE FROM leave_requests WHERE id = $1 AND status = 'pending'`
	deleteRequestSQL = `DELETE FROM leave_requests WHERE id = $1`
)

const listForEmployeeSQL = `
    SELECT` + requestColumns + `
    FROM leave_requests lr JOIN employees e ON e.id = lr.employee_id
    WHERE lr.employee_id = $1
    ORDER BY lr.created_at DESC, lr.id
    LIMIT $2`

const statsSQL = `
    SELECT status, leave_type, COUNT(*)::int
    FROM leave_requests
    GROUP BY status, leave_type`

const approvedDaysSQL = `
    SELECT COALESCE(SUM(end_date - start_date + 1), 0)::int
    FROM leave_requests
    WHERE employee_id = $1 AND status = 'approved' AND start_date BETWEEN $2 AND $3`

const yearSummarySQL = `
    SELECT
      COALESCE(SUM(end_date - start_date + 1), 0)::int,
      COALESCE(SUM(end_date - start_date + 1) FILTER (WHERE status = 'approved'), 0)::int,
      (COUNT(*) FILTER (WHERE status = 'pending'))::int
    FROM leave_requests
    WHERE employee_id = $1 AND start_date BETWEEN $2 AND $3`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(
		&r.ID, &r.EmployeeID, &r.LeaveType,
		&r.StartDate, &r.EndDate,
		&r.Days, &r.Reason, &r.Status, &r.CreatedAt, &r.UpdatedAt,
		&r.EmployeeName, &r.EmployeeEmail, &r.Department, &r.Position,
	)
	r.TypeLabel = TypeLabel(r.LeaveType)
	return r, err
}

// Create inserts a pending request under SERIALIZABLE isolation after an
// overlap check, retrying serialization failures.
func (s *Store) Create(ctx context.Context, employeeID, leaveType, reason string, start, end time.Time) (Request, error) {
	for attempt := 0; ; attempt++ {
		req, err := s.createOnce(ctx, employeeID, leaveType, reason, start, end)
		switch {
		case err == nil:
			return req, nil
		case errors.Is(err, ErrOverlap), querier.HasCode(err, querier.CodeExclusionViolation):
			return Request{}, ErrOverlap
		case querier.HasCode(err, querier.CodeSerializationFailure) && attempt < createRetries:
			continue
		default:
			return Request{}, fmt.Errorf("create leave request: %w", err)
		}
	}
}

func (s *Store) createOnce(ctx context.Context, employeeID, leaveType, reason string, start, end time.Time) (Request, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return Request{}, err
	}

	var overlapping bool
	if err := tx.QueryRow(ctx, overlapExistsSQL, employeeID, start, end).Scan(&overlapping); err != nil {
		_ = tx.Rollback(ctx)
		return Request{}, err
	}
	if overlapping {
		_ = tx.Rollback(ctx)
		return Request{}, ErrOverlap
	}

	req, err := scanRequest(tx.QueryRow(ctx, insertRequestSQL, employeeID, leaveType, start, end, reason))
	if err != nil {
		_ = tx.Rollback(ctx)
		return Request{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (s *Store) Get(ctx context.Context, id string) (Request, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Request{}, ErrNotFound
	}
	req, err := scanRequest(s.DB.QueryRow(ctx, getRequestSQL, id))
	if querier.IsNoRows(err) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, fmt.Errorf("get leave request: %w", err)
	}
	return req, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id, status string) (Request, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Request{}, ErrNotFound
	}
	req, err := scanRequest(s.DB.QueryRow(ctx, updateStatusSQL, id, status))
	switch {
	case querier.IsNoRows(err):
		return Request{}, ErrNotFound
	case querier.HasCode(err, querier.CodeExclusionViolation):
		return Request{}, ErrOverlap
	case err != nil:
		return Request{}, fmt.Errorf("update leave status: %w", err)
	}
	return req, nil
}

// DeletePending removes a request only while it is still pending.
func (s *Store) DeletePending(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, deletePendingSQL, id)
	if err != nil {
		return fmt.Errorf("cancel leave request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := s.DB.Exec(ctx, deleteRequestSQL, id)
	if err != nil {
		return fmt.Errorf("delete leave request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func listWhere(filter ListFilter) (string, []any) {
	var clauses []string
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("lr.status = $%d", len(args)))
	}
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		clauses = append(clauses, fmt.Sprintf("lr.employee_id = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// List returns requests newest first with the unpaginated total.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Request, int, error) {
	if filter.EmployeeID != "" {
		if _, err := uuid.Parse(filter.EmployeeID); err != nil {
			return []Request{}, 0, nil
		}
	}
	where, args := listWhere(filter)

	var total int
	countSQL := "SELECT COUNT(*) FROM leave_requests lr" + where
	if err := s.DB.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leave requests: %w", err)
	}

	query := "SELECT" + requestColumns + " FROM leave_requests lr JOIN employees e ON e.id = lr.employee_id" +
		where + " ORDER BY lr.created_at DESC, lr.id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leave requests: %w", err)
	}
	defer rows.Close()

	out := []Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	return out, total, rows.Err()
}

func (s *Store) ListForEmployee(ctx context.Context, employeeID string, limit int) ([]Request, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return []Request{}, nil
	}
	rows, err := s.DB.Query(ctx, listForEmployeeSQL, employeeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list employee leave: %w", err)
	}
	defer rows.Close()

	out := []Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.DB.Query(ctx, statsSQL)
	if err != nil {
		return Stats{}, fmt.Errorf("leave stats: %w", err)
	}
	defer rows.Close()

	stats := Stats{ByType: map[string]int{}}
	for rows.Next() {
		var status, leaveType string
		var count int
		if err := rows.Scan(&status, &leaveType, &count); err != nil {
			return Stats{}, err
		}
		stats.Total += count
		stats.ByType[leaveType] += count
		switch status {
		case StatusPending:
			stats.Pending += count
		case StatusApproved:
			stats.Approved += count
		case StatusRejected:
			stats.Rejected += count
		}
	}
	return stats, rows.Err()
}

func (s *Store) ApprovedDays(ctx context.Context, employeeID string, start, end time.Time) (int, error) {
	var days int
	if err := s.DB.QueryRow(ctx, approvedDaysSQL, employeeID, start, end).Scan(&days); err != nil {
		return 0, fmt.Errorf("approved leave days: %w", err)
	}
	return days, nil
}

func (s *Store) YearSummary(ctx context.Context, employeeID string, start, end time.Time) (yearSummary, error) {
	var sum yearSummary
	if err := s.DB.QueryRow(ctx, yearSummarySQL, employeeID, start, end).Scan(&sum.RequestedDays, &sum.ApprovedDays, &sum.Pending); err != nil {
		return yearSummary{}, fmt.Errorf("leave year summary: %w", err)
	}
	return sum, nil
}
