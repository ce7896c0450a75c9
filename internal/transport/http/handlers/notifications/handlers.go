package notificationshandler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ems/internal/domain/notifications"
	"ems/internal/transport/http/api"
	"ems/internal/transport/http/middleware"
	"ems/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, employeeID string, limit, offset int) ([]notifications.Notification, error)
	Count(ctx context.Context, employeeID string) (int, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]notifications.Notification, error)
	MarkRead(ctx context.Context, employeeID, notificationID string) error
	Retry(ctx context.Context, notificationID string) error
}

type Handler struct {
	Service Service
	Audit   shared.AuditRecorder
}

func NewHandler(service Service, auditor shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications", h.handleList)
	r.Post("/notifications/{notificationID}/read", h.handleMarkRead)
}

// RegisterAdminRoutes mounts the outbox inspection endpoints.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/admin/notifications", h.handleListByStatus)
	r.Post("/notifications/{notificationID}/retry", h.handleRetry)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.CurrentUser(w, r)
	if !ok {
		return
	}

	page := shared.ParsePagination(r, 100, 500)
	total, err := h.Service.Count(r.Context(), user.EmployeeID)
	if err != nil {
		slog.Warn("notification count failed", "err", err)
	}

	items, err := h.Service.List(r.Context(), user.EmployeeID, page.Limit, page.Offset)
	if err != nil {
		shared.WriteError(w, r, err, "notification_list")
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := shared.CurrentUser(w, r)
	if !ok {
		return
	}
	if err := h.Service.MarkRead(r.Context(), user.EmployeeID, chi.URLParam(r, "notificationID")); err != nil {
		shared.WriteError(w, r, err, "notification_update")
		return
	}
	api.Success(w, map[string]string{"status": "read"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListByStatus(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = notifications.StatusFailed
	}
	switch status {
	case notifications.StatusPending, notifications.StatusSent, notifications.StatusFailed:
	default:
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "status", Reason: "must be one of pending sent failed"}})
		return
	}
	page := shared.ParsePagination(r, 100, 500)
	items, err := h.Service.ListByStatus(r.Context(), status, page.Limit, page.Offset)
	if err != nil {
		shared.WriteError(w, r, err, "notification_list")
		return
	}
	api.Success(w, items, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "notificationID")
	if err := h.Service.Retry(r.Context(), notificationID); err != nil {
		shared.WriteError(w, r, err, "notification_retry")
		return
	}
	shared.RecordAudit(r, h.Audit, "notification.retry", "notification", notificationID, nil, nil)
	api.Success(w, map[string]string{"status": notifications.StatusPending}, middleware.GetRequestID(r.Context()))
}
