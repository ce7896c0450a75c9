package auth

import (
	"context"
	"time"

	"ems/internal/platform/querier"
)

const (
	findActiveEmployeeSQL = `
    SELECT id, name, email, role, password_hash
    FROM employees
    WHERE lower(email) = $1 AND status = 'active'
  `
	findActiveEmployeeByIDSQL = `
    SELECT id, name, email, role, password_hash
    FROM employees
    WHERE id::text = $1 AND status = 'active'
  `
	createSessionSQL = `
    INSERT INTO sessions (employee_id, token_hash, expires_at)
    VALUES ($1, $2, $3)
  `
	sessionValidSQL = `
    SELECT COUNT(1)
    FROM sessions s
    JOIN employees e ON e.id = s.employee_id
    WHERE s.token_hash = $1 AND s.expires_at > now() AND s.revoked_at IS NULL AND e.status = 'active'
  `
	revokeSessionSQL = `UPDATE sessions SET revoked_at = now() WHERE token_hash = $1 AND revoked_at IS NULL`
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

type Account struct {
	ID           string
	Name         string
	Email        string
	Role         string
	PasswordHash string
}

func (s *Store) FindActiveByEmail(ctx context.Context, email string) (Account, error) {
	var out Account
	err := s.DB.QueryRow(ctx, findActiveEmployeeSQL, email).Scan(&out.ID, &out.Name, &out.Email, &out.Role, &out.PasswordHash)
	return out, err
}

func (s *Store) FindActiveByID(ctx context.Context, id string) (Account, error) {
	var out Account
	err := s.DB.QueryRow(ctx, findActiveEmployeeByIDSQL, id).Scan(&out.ID, &out.Name, &out.Email, &out.Role, &out.PasswordHash)
	return out, err
}

// PostgresSessions keeps sessions in the sessions table.
type PostgresSessions struct {
	DB querier.Querier
}

func NewPostgresSessions(db querier.Querier) *PostgresSessions {
	return &PostgresSessions{DB: db}
}

func (p *PostgresSessions) Create(ctx context.Context, employeeID, tokenHash string, expires time.Time) error {
	_, err := p.DB.Exec(ctx, createSessionSQL, employeeID, tokenHash, expires)
	return err
}

func (p *PostgresSessions) Valid(ctx context.Context, tokenHash string) (bool, error) {
	var count int
	if err := p.DB.QueryRow(ctx, sessionValidSQL, tokenHash).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (p *PostgresSessions) Revoke(ctx context.Context, tokenHash string) error {
	_, err := p.DB.Exec(ctx, revokeSessionSQL, tokenHash)
	return err
}
