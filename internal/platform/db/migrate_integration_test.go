package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"ems/internal/platform/config"
	"ems/internal/platform/db"
	"ems/internal/platform/querier"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := t.Context()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("ems"),
		postgres.WithUsername("ems"),
		postgres.WithPassword("ems"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := db.Connect(ctx, config.Config{DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestMigrateEnforcesLedgerConstraints(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := t.Context()
	pool := startPostgres(t)

	require.NoError(t, db.Migrate(ctx, pool, db.Migrations()))
	require.NoError(t, db.Migrate(ctx, pool, db.Migrations()), "second run must be a no-op")

	var employeeID string
	require.NoError(t, pool.QueryRow(ctx, `
    INSERT INTO employees (name, email, password_hash)
    VALUES ('Jane Doe', 'jane@example.com', 'x')
    RETURNING id
  `).Scan(&employeeID))

	t.Run("email is unique case-insensitively", func(t *testing.T) {
		_, err := pool.Exec(ctx, `INSERT INTO employees (name, email, password_hash) VALUES ('J', 'JANE@example.com', 'x')`)
		require.Error(t, err)
		assert.True(t, querier.HasCode(err, querier.CodeUniqueViolation))
	})

	t.Run("one attendance row per day", func(t *testing.T) {
		_, err := pool.Exec(ctx, `INSERT INTO attendance (employee_id, date, status) VALUES ($1, '2025-03-10', 'present')`, employeeID)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `INSERT INTO attendance (employee_id, date, status) VALUES ($1, '2025-03-10', 'late')`, employeeID)
		require.Error(t, err)
		assert.True(t, querier.HasCode(err, querier.CodeUniqueViolation))
	})

	t.Run("overlapping leave is excluded unless rejected", func(t *testing.T) {
		_, err := pool.Exec(ctx, `
      INSERT INTO leave_requests (employee_id, leave_type, start_date, end_date, reason, status)
      VALUES ($1, 'vacation', '2025-03-15', '2025-03-17', 'trip', 'rejected')
    `, employeeID)
		require.NoError(t, err)

		_, err = pool.Exec(ctx, `
      INSERT INTO leave_requests (employee_id, leave_type, start_date, end_date, reason)
      VALUES ($1, 'vacation', '2025-03-15', '2025-03-17', 'trip')
    `, employeeID)
		require.NoError(t, err)

		_, err = pool.Exec(ctx, `
      INSERT INTO leave_requests (employee_id, leave_type, start_date, end_date, reason)
      VALUES ($1, 'sick', '2025-03-17', '2025-03-18', 'flu')
    `, employeeID)
		require.Error(t, err)
		assert.True(t, querier.HasCode(err, querier.CodeExclusionViolation))
	})

	t.Run("leave end before start is rejected", func(t *testing.T) {
		_, err := pool.Exec(ctx, `
      INSERT INTO leave_requests (employee_id, leave_type, start_date, end_date, reason)
      VALUES ($1, 'sick', '2025-04-10', '2025-04-09', 'flu')
    `, employeeID)
		require.Error(t, err)
		assert.True(t, querier.HasCode(err, querier.CodeCheckViolation))
	})
}
