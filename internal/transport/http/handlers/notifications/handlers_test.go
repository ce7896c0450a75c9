package notificationshandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ems/internal/domain/auth"
	"ems/internal/domain/notifications"
	"ems/internal/transport/http/middleware"
)

type fakeService struct {
	listedFor string
	status    string
	readBy    string
	retried   string
}

func (f *fakeService) List(ctx context.Context, employeeID string, limit, offset int) ([]notifications.Notification, error) {
	f.listedFor = employeeID
	return []notifications.Notification{{ID: "n1", Title: "Clock In Successful"}}, nil
}

func (f *fakeService) Count(ctx context.Context, employeeID string) (int, error) {
	return 4, nil
}

func (f *fakeService) ListByStatus(ctx context.Context, status string, limit, offset int) ([]notifications.Notification, error) {
	f.status = status
	return []notifications.Notification{}, nil
}

func (f *fakeService) MarkRead(ctx context.Context, employeeID, id string) error {
	if id != "n1" {
		return notifications.ErrNotFound
	}
	f.readBy = employeeID
	return nil
}

func (f *fakeService) Retry(ctx context.Context, id string) error {
	if id != "n1" {
		return notifications.ErrNotFound
	}
	f.retried = id
	return nil
}

func do(svc *fakeService, method, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h := NewHandler(svc, nil)
	h.RegisterRoutes(r)
	h.RegisterAdminRoutes(r)
	req := httptest.NewRequest(method, target, nil)
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{EmployeeID: "e1", Role: auth.RoleEmployee}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListScopesToCaller(t *testing.T) {
	svc := &fakeService{}
	rec := do(svc, http.MethodGet, "/notifications")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "4", rec.Header().Get("X-Total-Count"))
	assert.Equal(t, "e1", svc.listedFor)
}

func TestMarkRead(t *testing.T) {
	svc := &fakeService{}
	assert.Equal(t, http.StatusOK, do(svc, http.MethodPost, "/notifications/n1/read").Code)
	assert.Equal(t, "e1", svc.readBy)
	assert.Equal(t, http.StatusNotFound, do(svc, http.MethodPost, "/notifications/n2/read").Code)
}

func TestListByStatus(t *testing.T) {
	svc := &fakeService{}
	require.Equal(t, http.StatusOK, do(svc, http.MethodGet, "/admin/notifications").Code)
	assert.Equal(t, notifications.StatusFailed, svc.status)

	require.Equal(t, http.StatusOK, do(svc, http.MethodGet, "/admin/notifications?status=pending").Code)
	assert.Equal(t, notifications.StatusPending, svc.status)

	assert.Equal(t, http.StatusBadRequest, do(svc, http.MethodGet, "/admin/notifications?status=bounced").Code)
}

func TestRetry(t *testing.T) {
	svc := &fakeService{}
	assert.Equal(t, http.StatusOK, do(svc, http.MethodPost, "/notifications/n1/retry").Code)
	assert.Equal(t, "n1", svc.retried)
	assert.Equal(t, http.StatusNotFound, do(svc, http.MethodPost, "/notifications/n9/retry").Code)
}
