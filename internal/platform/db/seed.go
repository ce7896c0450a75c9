package db

import (
	"context"
	"log/slog"
	"strings"

	"ems/internal/domain/auth"
	"ems/internal/platform/config"
	"ems/internal/platform/querier"
)

const (
	seedAdminLookupSQL = `SELECT id FROM employees WHERE lower(email) = $1`
	seedAdminInsertSQL = `
    INSERT INTO employees (name, email, password_hash, role, department, position, status)
    VALUES ($1, $2, $3, $4, 'Administration', 'Administrator', 'active')
    RETURNING id
  `
)

// Seed makes sure the bootstrap administrator exists.
func Seed(ctx context.Context, db querier.Querier, cfg config.Config) error {
	return ensureAdmin(ctx, db, cfg.SeedAdminName, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensureAdmin(ctx context.Context, db querier.Querier, name, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := db.QueryRow(ctx, seedAdminLookupSQL, email).Scan(&id)
	if err == nil {
		return nil
	}
	if !querier.IsNoRows(err) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	if strings.TrimSpace(name) == "" {
		name = "System Administrator"
	}
	if err := db.QueryRow(ctx, seedAdminInsertSQL, name, email, hash, auth.RoleAdmin).Scan(&id); err != nil {
		return err
	}
	slog.Info("seeded admin account", "employeeId", id, "email", email)
	return nil
}
