package dashboardhandler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ems/internal/domain/dashboard"
	"ems/internal/transport/http/api"
	"ems/internal/transport/http/middleware"
	"ems/internal/transport/http/shared"
)

type Service interface {
	Admin(ctx context.Context) (dashboard.Admin, error)
	AdminData(ctx context.Context) (dashboard.Admin, error)
	Employee(ctx context.Context, employeeID string) (dashboard.Employee, error)
	JobRuns(ctx context.Context, filter dashboard.JobRunFilter) ([]dashboard.JobRun, int, error)
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/dashboard/admin", h.handleAdmin)
	r.Get("/dashboard/admin/data", h.handleAdminData)
	r.Get("/jobs/runs", h.handleJobRuns)
}

func (h *Handler) RegisterSelfRoutes(r chi.Router) {
	r.Get("/dashboard/employee", h.handleEmployee)
}

func (h *Handler) handleAdmin(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.Admin(r.Context())
	if err != nil {
		shared.WriteError(w, r, err, "dashboard")
		return
	}
	api.Success(w, data, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAdminData(w http.ResponseWriter, r *http.Request) {
	data, err := h.Service.AdminData(r.Context())
	if err != nil {
		shared.WriteError(w, r, err, "dashboard")
		return
	}
	api.Success(w, data, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEmployee(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.CurrentUser(w, r)
	if !ok {
		return
	}
	data, err := h.Service.Employee(r.Context(), user.EmployeeID)
	if err != nil {
		shared.WriteError(w, r, err, "dashboard")
		return
	}
	api.Success(w, data, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleJobRuns(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	runs, total, err := h.Service.JobRuns(r.Context(), dashboard.JobRunFilter{
		JobType: r.URL.Query().Get("job_type"),
		Status:  r.URL.Query().Get("status"),
		Limit:   page.Limit,
		Offset:  page.Offset,
	})
	if err != nil {
		shared.WriteError(w, r, err, "job_runs")
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, runs, middleware.GetRequestID(r.Context()))
}
