package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ems/internal/domain/calendar"
	"ems/internal/platform/querier"
)

var (
	ErrNotFound         = errors.New("attendance record not found")
	ErrAlreadyMarked    = errors.New("attendance already marked for today")
	ErrAlreadyCompleted = errors.New("attendance already completed for today")
	errClockInRace      = errors.New("clock in raced with another request")
)

const recordColumns = `id, employee_id, date, status, clock_in_time, clock_out_time, total_hours, created_at`

const (
	upsertSQL = `
    INSERT INTO attendance (employee_id, date, status)
    VALUES ($1, $2, $3)
    ON CONFLICT (employee_id, date) DO UPDATE SET status = EXCLUDED.status, created_at = now()
    RETURNING ` + recordColumns + `, (xmax = 0) AS inserted`

	insertIfAbsentSQL = `
    INSERT INTO attendance (employee_id, date, status)
    VALUES ($1, $2, $3)
    ON CONFLICT (employee_id, date) DO NOTHING
    RETURNING ` + recordColumns

	getByDateSQL = `SELECT ` + recordColumns + ` FROM attendance WHERE employee_id = $1 AND date = $2`

	clockInSQL = `
    INSERT INTO attendance (employee_id, date, status, clock_in_time)
    VALUES ($1, $2, 'present', $3)
    RETURNING ` + recordColumns

	clockOutSQL = `
    UPDATE attendance
    SET clock_out_time = $1, total_hours = $2, status = 'completed'
    WHERE id = $3 AND clock_in_time IS NOT NULL AND clock_out_time IS NULL
    RETURNING ` + recordColumns

	countPresentSQL = `
    SELECT COUNT(1)
    FROM attendance
    WHERE employee_id = $1 AND date BETWEEN $2 AND $3 AND status IN ('present', 'completed')
  `

	historySQL = `SELECT ` + recordColumns + `
    FROM attendance
    WHERE employee_id = $1
    ORDER BY date DESC
    LIMIT $2
  `

	deleteSQL = `DELETE FROM attendance WHERE id = $1`

	rangeCountsSQL = `
    SELECT employee_id,
           COUNT(1) FILTER (WHERE status IN ('present', 'completed')),
           COUNT(1) FILTER (WHERE status = 'absent'),
           COUNT(1) FILTER (WHERE status = 'late'),
           COUNT(1)
    FROM attendance
    WHERE date BETWEEN $1 AND $2
    GROUP BY employee_id
  `

	todayCountsSQL = `
    SELECT a.status, COUNT(1)
    FROM attendance a
    JOIN employees e ON e.id = a.employee_id
    WHERE a.date = $1 AND e.role = 'employee' AND e.status = 'active'
    GROUP BY a.status
  `

	filterBaseSQL = `
    SELECT a.id, a.employee_id, a.date, e.name, e.department, e.position, a.status, a.created_at
    FROM attendance a
    JOIN employees e ON e.id = a.employee_id`

	filterLimit = 100
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, extra ...any) (Record, error) {
	var rec Record
	var day time.Time
	dest := append([]any{&rec.ID, &rec.EmployeeID, &day, &rec.Status, &rec.ClockIn, &rec.ClockOut, &rec.TotalHours, &rec.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return Record{}, err
	}
	rec.Date = day.Format(calendar.DateLayout)
	return rec, nil
}

// Upsert writes status for the employee and date, creating the row if it
// does not exist. created reports whether a new row was inserted.
func (s *Store) Upsert(ctx context.Context, employeeID string, day time.Time, status string) (Record, bool, error) {
	var inserted bool
	rec, err := scanRecord(s.DB.QueryRow(ctx, upsertSQL, employeeID, day, status), &inserted)
	if err != nil {
		return Record{}, false, fmt.Errorf("upsert attendance: %w", err)
	}
	return rec, inserted, nil
}

// InsertIfAbsent creates the row only when none exists for the date.
func (s *Store) InsertIfAbsent(ctx context.Context, employeeID string, day time.Time, status string) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, insertIfAbsentSQL, employeeID, day, status))
	if err != nil {
		if querier.IsNoRows(err) {
			return Record{}, ErrAlreadyMarked
		}
		return Record{}, fmt.Errorf("insert attendance: %w", err)
	}
	return rec, nil
}

func (s *Store) GetByDate(ctx context.Context, employeeID string, day time.Time) (*Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, getByDateSQL, employeeID, day))
	if err != nil {
		if querier.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return &rec, nil
}

func (s *Store) ClockIn(ctx context.Context, employeeID string, day, at time.Time) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, clockInSQL, employeeID, day, at))
	if err != nil {
		if querier.HasCode(err, querier.CodeUniqueViolation) {
			return Record{}, errClockInRace
		}
		return Record{}, fmt.Errorf("clock in: %w", err)
	}
	return rec, nil
}

// ClockOut closes an open record. A record that is no longer open yields
// ErrAlreadyCompleted.
func (s *Store) ClockOut(ctx context.Context, recordID string, at time.Time, hours float64) (Record, error) {
	rec, err := scanRecord(s.DB.QueryRow(ctx, clockOutSQL, at, hours, recordID))
	if err != nil {
		if querier.IsNoRows(err) {
			return Record{}, ErrAlreadyCompleted
		}
		return Record{}, fmt.Errorf("clock out: %w", err)
	}
	return rec, nil
}

func (s *Store) CountPresent(ctx context.Context, employeeID string, start, end time.Time) (int, error) {
	var count int
	if err := s.DB.QueryRow(ctx, countPresentSQL, employeeID, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("count present days: %w", err)
	}
	return count, nil
}

func (s *Store) History(ctx context.Context, employeeID string, limit int) ([]Record, error) {
	rows, err := s.DB.Query(ctx, historySQL, employeeID, limit)
	if err != nil {
		return nil, fmt.Errorf("attendance history: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	cmd, err := s.DB.Exec(ctx, deleteSQL, id)
	if err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RangeCounts tallies statuses per employee over [start, end].
func (s *Store) RangeCounts(ctx context.Context, start, end time.Time) (map[string]statusCounts, error) {
	rows, err := s.DB.Query(ctx, rangeCountsSQL, start, end)
	if err != nil {
		return nil, fmt.Errorf("attendance range counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]statusCounts)
	for rows.Next() {
		var id string
		var c statusCounts
		if err := rows.Scan(&id, &c.Present, &c.Absent, &c.Late, &c.Total); err != nil {
			return nil, err
		}
		out[id] = c
	}
	return out, rows.Err()
}

// TodayCounts returns record counts by status for active employees on day.
func (s *Store) TodayCounts(ctx context.Context, day time.Time) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, todayCountsSQL, day)
	if err != nil {
		return nil, fmt.Errorf("attendance day counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[status] = count
	}
	return out, rows.Err()
}

func filterQuery(p FilterParams) (string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if p.EmployeeID != "" {
		add("a.employee_id = $%d", p.EmployeeID)
	}
	if p.Start != nil {
		add("a.date >= $%d", *p.Start)
	}
	if p.End != nil {
		add("a.date <= $%d", *p.End)
	}
	if p.Status != "" {
		add("a.status = $%d", p.Status)
	}
	query := filterBaseSQL
	if len(clauses) > 0 {
		query += "\n    WHERE " + strings.Join(clauses, " AND ")
	}
	query += fmt.Sprintf("\n    ORDER BY a.date DESC, e.name\n    LIMIT %d", filterLimit)
	return query, args
}

func (s *Store) Filter(ctx context.Context, p FilterParams) ([]FilterRow, error) {
	query, args := filterQuery(p)
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filter attendance: %w", err)
	}
	defer rows.Close()

	out := make([]FilterRow, 0)
	for rows.Next() {
		var r FilterRow
		var day time.Time
		if err := rows.Scan(&r.ID, &r.EmployeeID, &day, &r.Name, &r.Department, &r.Position, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Date = day.Format(calendar.DateLayout)
		out = append(out, r)
	}
	return out, rows.Err()
}
