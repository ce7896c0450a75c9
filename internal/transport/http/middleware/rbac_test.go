package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ems/internal/domain/auth"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		user *auth.UserContext
		want int
	}{
		{name: "anonymous", want: http.StatusUnauthorized},
		{name: "wrong role", user: &auth.UserContext{EmployeeID: "e1", Role: auth.RoleEmployee}, want: http.StatusForbidden},
		{name: "admin", user: &auth.UserContext{EmployeeID: "a1", Role: auth.RoleAdmin}, want: http.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.user != nil {
				req = req.WithContext(WithUser(req.Context(), *tc.user))
			}
			rec := httptest.NewRecorder()
			RequireRole(auth.RoleAdmin)(okHandler()).ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestRequirePermissionUsesRoleMap(t *testing.T) {
	perms := auth.NewStaticPermissions()
	handler := RequirePermission(auth.PermLeaveManage, perms)(okHandler())

	ctx := WithUser(context.Background(), auth.UserContext{EmployeeID: "e1", Role: auth.RoleEmployee})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil).WithContext(ctx))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for employee, got %d", rec.Code)
	}

	ctx = WithUser(context.Background(), auth.UserContext{EmployeeID: "a1", Role: auth.RoleAdmin})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil).WithContext(ctx))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected admin to pass, got %d", rec.Code)
	}
}
