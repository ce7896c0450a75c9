package profilehandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ems/internal/domain/employees"
	"ems/internal/transport/http/api"
	"ems/internal/transport/http/middleware"
)

// Profile errors use upper-case codes shared with the profile page client.
const (
	codeUnauthorized = "UNAUTHORIZED"
	codeNotFound     = "NOT_FOUND"
	codeServerError  = "SERVER_ERROR"
)

type Service interface {
	Profile(ctx context.Context, employeeID string) (employees.Profile, error)
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/profile", h.handleProfile)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.EmployeeID == "" {
		api.Fail(w, http.StatusUnauthorized, codeUnauthorized, "Authentication required", reqID)
		return
	}
	profile, err := h.Service.Profile(r.Context(), user.EmployeeID)
	if errors.Is(err, employees.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, codeNotFound, "Employee profile not found", reqID)
		return
	}
	if err != nil {
		slog.Error("profile lookup failed", "requestId", reqID, "employeeId", user.EmployeeID, "err", err)
		api.Fail(w, http.StatusInternalServerError, codeServerError, "Failed to fetch profile", reqID)
		return
	}
	api.Success(w, profile, reqID)
}
