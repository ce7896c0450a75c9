package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"ems/internal/domain/auth"
)

type memorySessions struct {
	live map[string]bool
}

func (m *memorySessions) Create(ctx context.Context, employeeID, tokenHash string, expires time.Time) error {
	m.live[tokenHash] = true
	return nil
}

func (m *memorySessions) Valid(ctx context.Context, tokenHash string) (bool, error) {
	return m.live[tokenHash], nil
}

func (m *memorySessions) Revoke(ctx context.Context, tokenHash string) error {
	delete(m.live, tokenHash)
	return nil
}

type staticAccounts map[string]auth.Account

func (a staticAccounts) FindActiveByEmail(ctx context.Context, email string) (auth.Account, error) {
	return auth.Account{}, pgx.ErrNoRows
}

func (a staticAccounts) FindActiveByID(ctx context.Context, id string) (auth.Account, error) {
	account, ok := a[id]
	if !ok {
		return auth.Account{}, pgx.ErrNoRows
	}
	return account, nil
}

var adminAccount = staticAccounts{"e1": {ID: "e1", Name: "Admin", Email: "admin@example.com", Role: auth.RoleAdmin}}

func issueToken(t *testing.T, svc *auth.Service, sessions *memorySessions, sessionID string) string {
	t.Helper()
	sessions.live[auth.HashToken(sessionID)] = true
	token, err := auth.GenerateToken(svc.Secret, auth.Claims{
		EmployeeID: "e1",
		Role:       auth.RoleAdmin,
		Name:       "Admin",
		Email:      "admin@example.com",
		SessionID:  sessionID,
	}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	return token
}

func TestAuthMiddlewareSetsUser(t *testing.T) {
	sessions := &memorySessions{live: map[string]bool{}}
	svc := auth.NewService(adminAccount, sessions, "test-secret", time.Hour)
	token := issueToken(t, svc, sessions, "sid-1")

	called := false
	handler := Auth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		user, ok := GetUser(r.Context())
		if !ok {
			t.Fatal("expected user in context")
		}
		if user.EmployeeID != "e1" || user.Role != auth.RoleAdmin {
			t.Fatalf("unexpected user: %+v", user)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if !called {
		t.Fatal("expected handler to run")
	}
}

func TestAuthMiddlewareRevokedSession(t *testing.T) {
	sessions := &memorySessions{live: map[string]bool{}}
	svc := auth.NewService(adminAccount, sessions, "test-secret", time.Hour)
	token := issueToken(t, svc, sessions, "sid-2")
	if err := svc.Logout(context.Background(), "sid-2"); err != nil {
		t.Fatalf("logout: %v", err)
	}

	handler := Auth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); ok {
			t.Fatal("did not expect user for a revoked session")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	handler := Auth(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); ok {
			t.Fatal("did not expect user in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
}

func TestAuthMiddlewareUsesCurrentRole(t *testing.T) {
	sessions := &memorySessions{live: map[string]bool{}}
	demoted := staticAccounts{"e1": {ID: "e1", Name: "Admin", Email: "admin@example.com", Role: auth.RoleEmployee}}
	svc := auth.NewService(demoted, sessions, "test-secret", time.Hour)
	token := issueToken(t, svc, sessions, "sid-3")

	handler := Auth(svc)(RequireRole(auth.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("demoted admin must not reach admin handler")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
