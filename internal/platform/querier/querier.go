package querier

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the data-access surface shared by every store. *pgxpool.Pool
// satisfies it in production and pgxmock pools satisfy it in tests.
type Querier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	CodeUniqueViolation      = "23505"
	CodeExclusionViolation   = "23P01"
	CodeCheckViolation       = "23514"
	CodeSerializationFailure = "40001"
	CodeInvalidText          = "22P02"
)

// HasCode reports whether err wraps a postgres error with the given SQLSTATE.
func HasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
