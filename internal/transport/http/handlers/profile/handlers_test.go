package profilehandler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"ems/internal/domain/auth"
	"ems/internal/domain/employees"
	"ems/internal/transport/http/middleware"
)

type fakeService struct {
	err error
}

func (f fakeService) Profile(ctx context.Context, employeeID string) (employees.Profile, error) {
	if f.err != nil {
		return employees.Profile{}, f.err
	}
	return employees.BuildProfile(employees.Employee{ID: employeeID, Name: "Jane Doe", Status: "active"}), nil
}

func TestProfile(t *testing.T) {
	tests := []struct {
		name       string
		svc        fakeService
		user       *auth.UserContext
		wantStatus int
		wantBody   string
	}{
		{"ok", fakeService{}, &auth.UserContext{EmployeeID: "e1"}, http.StatusOK, `"first_name":"Jane"`},
		{"no session", fakeService{}, nil, http.StatusUnauthorized, `"code":"UNAUTHORIZED"`},
		{"missing employee", fakeService{err: employees.ErrNotFound}, &auth.UserContext{EmployeeID: "e1"}, http.StatusNotFound, `"code":"NOT_FOUND"`},
		{"store failure", fakeService{err: errors.New("boom")}, &auth.UserContext{EmployeeID: "e1"}, http.StatusInternalServerError, `"code":"SERVER_ERROR"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			NewHandler(tc.svc).RegisterRoutes(r)
			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			if tc.user != nil {
				req = req.WithContext(middleware.WithUser(req.Context(), *tc.user))
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantBody)
		})
	}
}
