package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ems/internal/platform/querier"
)

var (
	ErrNotFound   = errors.New("employee not found")
	ErrEmailTaken = errors.New("email already exists")
)

const employeeColumns = `id, name, email, role, department, position, phone, image, status, created_at, updated_at`

const (
	getEmployeeSQL = `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	emailOwnerSQL = `SELECT id FROM employees WHERE lower(email) = $1`

	insertEmployeeSQL = `
    INSERT INTO employees (name, email, password_hash, role, department, position, phone, image, status)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'active')
    RETURNING ` + employeeColumns

	updateEmployeeSQL = `
    UPDATE employees
    SET name = $1,
        email = $2,
        role = $3,
        department = $4,
        position = $5,
        phone = $6,
        image = $7,
        status = $8,
        password_hash = COALESCE($9, password_hash),
        updated_at = now()
    WHERE id = $10
    RETURNING ` + employeeColumns

	setStatusSQL      = `UPDATE employees SET status = $1, updated_at = now() WHERE id = $2`
	setImageSQL       = `UPDATE employees SET image = $1, updated_at = now() WHERE id = $2`
	deleteEmployeeSQL = `DELETE FROM employees WHERE id = $1`

	departmentSizeSQL = `
    SELECT COUNT(1)
    FROM employees
    WHERE department = $1 AND role = 'employee' AND status = 'active'
  `

	listActiveSQL = `SELECT ` + employeeColumns + `
    FROM employees
    WHERE role = 'employee' AND status = 'active'
    ORDER BY name, id
  `
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

func scanEmployee(row rowScanner) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Role, &e.Department, &e.Position, &e.Phone, &e.Image, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// validID reports whether id can be sent to a uuid column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *Store) Get(ctx context.Context, id string) (*Employee, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	emp, err := scanEmployee(s.DB.QueryRow(ctx, getEmployeeSQL, id))
	if err != nil {
		if querier.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return &emp, nil
}

// EmailOwner returns the id of the employee holding email, or "" when free.
func (s *Store) EmailOwner(ctx context.Context, email string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, emailOwnerSQL, strings.ToLower(strings.TrimSpace(email))).Scan(&id)
	if err != nil {
		if querier.IsNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("lookup email: %w", err)
	}
	return id, nil
}

func (s *Store) Insert(ctx context.Context, emp Employee, passwordHash string) (*Employee, error) {
	created, err := scanEmployee(s.DB.QueryRow(ctx, insertEmployeeSQL,
		emp.Name, emp.Email, passwordHash, emp.Role, emp.Department, emp.Position, emp.Phone, emp.Image,
	))
	if err != nil {
		if querier.HasCode(err, querier.CodeUniqueViolation) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert employee: %w", err)
	}
	return &created, nil
}

// Update writes every column of emp. A nil passwordHash keeps the stored hash.
func (s *Store) Update(ctx context.Context, emp Employee, passwordHash *string) (*Employee, error) {
	if !validID(emp.ID) {
		return nil, ErrNotFound
	}
	updated, err := scanEmployee(s.DB.QueryRow(ctx, updateEmployeeSQL,
		emp.Name, emp.Email, emp.Role, emp.Department, emp.Position, emp.Phone, emp.Image, emp.Status,
		passwordHash, emp.ID,
	))
	if err != nil {
		switch {
		case querier.IsNoRows(err):
			return nil, ErrNotFound
		case querier.HasCode(err, querier.CodeUniqueViolation):
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("update employee: %w", err)
	}
	return &updated, nil
}

func (s *Store) exec(ctx context.Context, op, sql string, args ...any) error {
	cmd, err := s.DB.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetStatus(ctx context.Context, id, status string) error {
	if !validID(id) {
		return ErrNotFound
	}
	return s.exec(ctx, "set employee status", setStatusSQL, status, id)
}

func (s *Store) SetImage(ctx context.Context, id, image string) error {
	if !validID(id) {
		return ErrNotFound
	}
	return s.exec(ctx, "set employee image", setImageSQL, image, id)
}

// Delete removes the employee row; attendance, leave and notifications
// cascade.
func (s *Store) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	return s.exec(ctx, "delete employee", deleteEmployeeSQL, id)
}

func (s *Store) DepartmentSize(ctx context.Context, department string) (int, error) {
	var count int
	if err := s.DB.QueryRow(ctx, departmentSizeSQL, department).Scan(&count); err != nil {
		return 0, fmt.Errorf("count department: %w", err)
	}
	return count, nil
}

// ListActive returns active employees with the employee role.
func (s *Store) ListActive(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, listActiveSQL)
	if err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func listWhere(filter ListFilter) (string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		args = append(args, "%"+strings.ToLower(q)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(lower(name) LIKE $%d OR lower(email) LIKE $%d OR lower(position) LIKE $%d OR lower(department) LIKE $%d)", n, n, n, n))
	}
	if filter.Department != "" {
		add("department = $%d", filter.Department)
	}
	if filter.Role != "" {
		add("role = $%d", filter.Role)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// List returns one page of employees matching filter and the total number
// of matches.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Employee, int, error) {
	where, args := listWhere(filter)

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	query := "SELECT " + employeeColumns + " FROM employees" + where + " ORDER BY name, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	out := make([]Employee, 0)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, emp)
	}
	return out, total, rows.Err()
}
