package auth

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]string
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[string]string{}}
}

func (m *memorySessions) Create(_ context.Context, employeeID, tokenHash string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[tokenHash] = employeeID
	return nil
}

func (m *memorySessions) Valid(_ context.Context, tokenHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[tokenHash]
	return ok, nil
}

func (m *memorySessions) Revoke(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, tokenHash)
	return nil
}

func TestLoginAuthenticateLogout(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	hash, err := HashPassword("ChangeMe123!")
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(findActiveEmployeeSQL)).
		WithArgs("jane@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "role", "password_hash"}).
			AddRow("e1", "Jane Doe", "jane@example.com", RoleEmployee, hash))

	sessions := newMemorySessions()
	svc := NewService(NewStore(mock), sessions, "secret", time.Hour)

	result, err := svc.Login(context.Background(), " Jane@Example.com ", "ChangeMe123!")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "e1", result.User.EmployeeID)

	mock.ExpectQuery(regexp.QuoteMeta(findActiveEmployeeByIDSQL)).
		WithArgs("e1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "role", "password_hash"}).
			AddRow("e1", "Jane Doe", "jane@example.com", RoleEmployee, hash))

	user, err := svc.Authenticate(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, RoleEmployee, user.Role)
	assert.Equal(t, "Jane Doe", user.Name)

	require.NoError(t, svc.Logout(context.Background(), user.SessionID))
	_, err = svc.Authenticate(context.Background(), result.Token)
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	hash, err := HashPassword("right")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		setup    func(mock pgxmock.PgxPoolIface)
		wantErr  error
	}{
		{
			name:     "unknown email",
			password: "right",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(findActiveEmployeeSQL)).
					WithArgs("jane@example.com").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			password: "wrong",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(findActiveEmployeeSQL)).
					WithArgs("jane@example.com").
					WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "role", "password_hash"}).
						AddRow("e1", "Jane", "jane@example.com", RoleEmployee, hash))
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "store failure",
			password: "right",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(findActiveEmployeeSQL)).
					WithArgs("jane@example.com").
					WillReturnError(assert.AnError)
			},
			wantErr: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			tt.setup(mock)

			svc := NewService(NewStore(mock), newMemorySessions(), "secret", time.Hour)
			_, err = svc.Login(context.Background(), "jane@example.com", tt.password)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAuthenticateReflectsCurrentAccount(t *testing.T) {
	accountCols := []string{"id", "name", "email", "role", "password_hash"}
	tests := []struct {
		name     string
		setup    func(mock pgxmock.PgxPoolIface)
		wantRole string
		wantErr  error
	}{
		{
			name: "demoted admin",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(findActiveEmployeeByIDSQL)).
					WithArgs("a1").
					WillReturnRows(pgxmock.NewRows(accountCols).
						AddRow("a1", "Ada Admin", "ada@example.com", RoleEmployee, "x"))
			},
			wantRole: RoleEmployee,
		},
		{
			name: "deactivated employee",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(findActiveEmployeeByIDSQL)).
					WithArgs("a1").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: ErrSessionExpired,
		},
		{
			name: "lookup failure",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(findActiveEmployeeByIDSQL)).
					WithArgs("a1").
					WillReturnError(assert.AnError)
			},
			wantErr: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			tt.setup(mock)

			sessions := newMemorySessions()
			svc := NewService(NewStore(mock), sessions, "secret", time.Hour)
			require.NoError(t, sessions.Create(context.Background(), "a1", HashToken("sid-1"), time.Now().Add(time.Hour)))
			token, err := GenerateToken("secret", Claims{
				EmployeeID: "a1",
				Role:       RoleAdmin,
				Name:       "Ada Admin",
				Email:      "ada@example.com",
				SessionID:  "sid-1",
			}, time.Hour)
			require.NoError(t, err)

			user, err := svc.Authenticate(context.Background(), token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantRole, user.Role)
				assert.Equal(t, "sid-1", user.SessionID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresSessions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expires := time.Now().Add(time.Hour)
	mock.ExpectExec(regexp.QuoteMeta(createSessionSQL)).
		WithArgs("e1", "h1", expires).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(regexp.QuoteMeta(sessionValidSQL)).
		WithArgs("h1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(revokeSessionSQL)).
		WithArgs("h1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	store := NewPostgresSessions(mock)
	require.NoError(t, store.Create(context.Background(), "e1", "h1", expires))
	ok, err := store.Valid(context.Background(), "h1")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, store.Revoke(context.Background(), "h1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
