package leavehandler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ems/internal/domain/leave"
	"ems/internal/transport/http/api"
	"ems/internal/transport/http/middleware"
	"ems/internal/transport/http/shared"
)

type Service interface {
	Create(ctx context.Context, in leave.CreateInput) (leave.Request, error)
	UpdateStatus(ctx context.Context, id, status string) (leave.Request, error)
	Cancel(ctx context.Context, employeeID, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter leave.ListFilter) ([]leave.Request, int, error)
	History(ctx context.Context, employeeID string) ([]leave.Request, error)
	Stats(ctx context.Context) (leave.Stats, error)
	Balance(ctx context.Context, employeeID string, year int) (leave.Balance, error)
	EmployeeStats(ctx context.Context, employeeID string) (leave.EmployeeStats, error)
}

type Handler struct {
	Service     Service
	Idempotency *middleware.IdempotencyStore
	Audit       shared.AuditRecorder
}

func NewHandler(service Service, idem *middleware.IdempotencyStore, auditor shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Idempotency: idem, Audit: auditor}
}

type selfCreateRequest struct {
	LeaveType string `json:"leave_type" validate:"max=40"`
	StartDate string `json:"start_date" validate:"max=10"`
	EndDate   string `json:"end_date" validate:"max=10"`
	Reason    string `json:"reason" validate:"max=2000"`
}

type adminCreateRequest struct {
	EmployeeID string `json:"employee_id" validate:"max=64"`
	selfCreateRequest
}

type statusRequest struct {
	Status string `json:"status"`
}

// RegisterSelfRoutes mounts the endpoints an employee uses for their own
// leave.
func (h *Handler) RegisterSelfRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.Get("/types", h.handleTypes)
		r.Get("/balance", h.handleBalance)
		r.Get("/stats", h.handleSelfStats)
		r.Get("/requests", h.handleHistory)
		r.With(middleware.Idempotent(h.Idempotency, "leave.create")).Post("/requests", h.handleSelfCreate)
		r.Delete("/requests/{requestID}", h.handleCancel)
	})
}

// RegisterAdminRoutes mounts leave administration under /admin/leave.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/admin/leave", func(r chi.Router) {
		r.Get("/requests", h.handleList)
		r.With(middleware.Idempotent(h.Idempotency, "admin.leave.create")).Post("/requests", h.handleAdminCreate)
		r.Put("/requests/{requestID}/status", h.handleStatus)
		r.Delete("/requests/{requestID}", h.handleDelete)
		r.Get("/stats", h.handleStats)
	})
}

func (h *Handler) handleTypes(w http.ResponseWriter, r *http.Request) {
	api.Success(w, leave.Types, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSelfCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.CurrentUser(w, r)
	if !ok {
		return
	}
	var payload selfCreateRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	h.create(w, r, user.EmployeeID, payload)
}

func (h *Handler) handleAdminCreate(w http.ResponseWriter, r *http.Request) {
	var payload adminCreateRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	req, ok := h.create(w, r, payload.EmployeeID, payload.selfCreateRequest)
	if ok {
		shared.RecordAudit(r, h.Audit, "leave.create", "leave_request", req.ID, nil, req)
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, employeeID string, payload selfCreateRequest) (leave.Request, bool) {
	req, err := h.Service.Create(r.Context(), leave.CreateInput{
		EmployeeID: employeeID,
		LeaveType:  payload.LeaveType,
		StartDate:  payload.StartDate,
		EndDate:    payload.EndDate,
		Reason:     payload.Reason,
	})
	if err != nil {
		shared.WriteError(w, r, err, "leave_create")
		return leave.Request{}, false
	}
	api.Created(w, req, middleware.GetRequestID(r.Context()))
	return req, true
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.CurrentUser(w, r)
	if !ok {
		return
	}
	items, err := h.Service.History(r.Context(), user.EmployeeID)
	if err != nil {
		shared.WriteError(w, r, err, "leave_history")
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.CurrentUser(w, r)
	if !ok {
		return
	}
	if err := h.Service.Cancel(r.Context(), user.EmployeeID, chi.URLParam(r, "requestID")); err != nil {
		shared.WriteError(w, r, err, "leave_cancel")
		return
	}
	api.Success(w, map[string]string{"status": "cancelled"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.CurrentUser(w, r)
	if !ok {
		return
	}
	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1900 || parsed > 9999 {
			shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "year", Reason: "must be a valid year"}})
			return
		}
		year = parsed
	}
	balance, err := h.Service.Balance(r.Context(), user.EmployeeID, year)
	if err != nil {
		shared.WriteError(w, r, err, "leave_balance")
		return
	}
	api.Success(w, balance, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSelfStats(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.CurrentUser(w, r)
	if !ok {
		return
	}
	stats, err := h.Service.EmployeeStats(r.Context(), user.EmployeeID)
	if err != nil {
		shared.WriteError(w, r, err, "leave_stats")
		return
	}
	api.Success(w, stats, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 50, 200)
	items, total, err := h.Service.List(r.Context(), leave.ListFilter{
		Status:     r.URL.Query().Get("status"),
		EmployeeID: r.URL.Query().Get("employee_id"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		shared.WriteError(w, r, err, "leave_list")
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	var payload statusRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	req, err := h.Service.UpdateStatus(r.Context(), chi.URLParam(r, "requestID"), payload.Status)
	if err != nil {
		shared.WriteError(w, r, err, "leave_status")
		return
	}
	shared.RecordAudit(r, h.Audit, "leave.status", "leave_request", req.ID, nil, map[string]string{"status": req.Status})
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")
	if err := h.Service.Delete(r.Context(), requestID); err != nil {
		shared.WriteError(w, r, err, "leave_delete")
		return
	}
	shared.RecordAudit(r, h.Audit, "leave.delete", "leave_request", requestID, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		shared.WriteError(w, r, err, "leave_stats")
		return
	}
	api.Success(w, stats, middleware.GetRequestID(r.Context()))
}
