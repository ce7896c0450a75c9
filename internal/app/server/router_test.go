package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ems/internal/domain/auth"
	"ems/internal/platform/config"
	"ems/internal/platform/metrics"
	attendancehandler "ems/internal/transport/http/handlers/attendance"
	audithandler "ems/internal/transport/http/handlers/audit"
	authhandler "ems/internal/transport/http/handlers/auth"
	dashboardhandler "ems/internal/transport/http/handlers/dashboard"
	employeeshandler "ems/internal/transport/http/handlers/employees"
	leavehandler "ems/internal/transport/http/handlers/leave"
	notificationshandler "ems/internal/transport/http/handlers/notifications"
	profilehandler "ems/internal/transport/http/handlers/profile"
)

type tokenAuthn map[string]auth.UserContext

func (t tokenAuthn) Authenticate(ctx context.Context, token string) (auth.UserContext, error) {
	user, ok := t[token]
	if !ok {
		return auth.UserContext{}, auth.ErrSessionExpired
	}
	return user, nil
}

func testRouter(ready map[string]ReadinessCheck) (http.Handler, *metrics.Collector) {
	collector := metrics.New()
	return NewRouter(RouterDeps{
		Config: config.Config{
			Environment:        "test",
			MaxBodyBytes:       1 << 20,
			RateLimitPerMinute: 1000,
			MetricsEnabled:     true,
		},
		Authn: tokenAuthn{
			"admin-token": {EmployeeID: "a1", Role: auth.RoleAdmin},
			"emp-token":   {EmployeeID: "e1", Role: auth.RoleEmployee},
		},
		Perms:   auth.NewStaticPermissions(),
		Metrics: collector,
		Ready:   ready,
		Handlers: Handlers{
			Auth:          authhandler.NewHandler(nil),
			Employees:     employeeshandler.NewHandler(nil, nil),
			Attendance:    attendancehandler.NewHandler(nil, nil),
			Leave:         leavehandler.NewHandler(nil, nil, nil),
			Dashboard:     dashboardhandler.NewHandler(nil),
			Notifications: notificationshandler.NewHandler(nil, nil),
			Profile:       profilehandler.NewHandler(nil),
			Audit:         audithandler.NewHandler(nil),
		},
	}), collector
}

func get(h http.Handler, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReadiness(t *testing.T) {
	ok := map[string]ReadinessCheck{"database": func(context.Context) error { return nil }}
	h, _ := testRouter(ok)
	assert.Equal(t, http.StatusOK, get(h, "/healthz", "").Code)

	rec := get(h, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"ok"`)

	down := map[string]ReadinessCheck{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	}
	h, _ = testRouter(down)
	rec = get(h, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"connection refused"`)
}

func TestRoleGates(t *testing.T) {
	h, _ := testRouter(nil)

	tests := []struct {
		name   string
		target string
		token  string
		want   int
	}{
		{"anonymous admin route", "/api/v1/employees", "", http.StatusUnauthorized},
		{"employee on admin route", "/api/v1/employees", "emp-token", http.StatusForbidden},
		{"expired token", "/api/v1/employees", "revoked", http.StatusUnauthorized},
		{"admin on employee route", "/api/v1/attendance/clock", "admin-token", http.StatusForbidden},
		{"employee on job runs", "/api/v1/jobs/runs", "emp-token", http.StatusForbidden},
		{"anonymous profile", "/api/v1/profile", "", http.StatusUnauthorized},
		{"employee on audit log", "/api/v1/admin/audit/events", "emp-token", http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, get(h, tc.target, tc.token).Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := testRouter(nil)
	get(h, "/healthz", "")

	rec := get(h, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ems_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestSecurityHeaders(t *testing.T) {
	h, _ := testRouter(nil)
	rec := get(h, "/healthz", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestSetupLoggerAcceptsUnknownLevel(t *testing.T) {
	setupLogger("production", "chatty")
	setupLogger("development", "debug")
}
