package db

import (
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ems/internal/domain/auth"
)

func TestEnsureAdmin(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("skips without credentials", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		require.NoError(t, ensureAdmin(ctx, mock, "Admin", "", "secret"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing admin is left alone", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(regexp.QuoteMeta(seedAdminLookupSQL)).
			WithArgs("admin@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("a1"))

		require.NoError(t, ensureAdmin(ctx, mock, "Admin", " Admin@Example.com ", "secret"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing admin is inserted", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(regexp.QuoteMeta(seedAdminLookupSQL)).
			WithArgs("admin@example.com").
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery(regexp.QuoteMeta(seedAdminInsertSQL)).
			WithArgs("Admin", "admin@example.com", pgxmock.AnyArg(), auth.RoleAdmin).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("a2"))

		require.NoError(t, ensureAdmin(ctx, mock, "Admin", "admin@example.com", "secret"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lookup error is returned", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(regexp.QuoteMeta(seedAdminLookupSQL)).
			WithArgs("admin@example.com").
			WillReturnError(assert.AnError)

		err = ensureAdmin(ctx, mock, "Admin", "admin@example.com", "secret")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
