package shared

import (
	"errors"
	"log/slog"
	"net/http"

	"ems/internal/domain/attendance"
	"ems/internal/domain/auth"
	"ems/internal/domain/employees"
	"ems/internal/domain/leave"
	"ems/internal/domain/notifications"
	"ems/internal/domain/validation"
	"ems/internal/transport/http/api"
	"ems/internal/transport/http/middleware"
)

// WriteError maps a domain error onto the response envelope. Unknown
// errors are logged and reported as "<area>_failed".
func WriteError(w http.ResponseWriter, r *http.Request, err error, area string) {
	reqID := middleware.GetRequestID(r.Context())

	if verr, ok := validation.As(err); ok {
		api.FailWithDetails(w, http.StatusBadRequest, "validation_error", verr.Message,
			map[string]any{"fields": []ValidationIssue{{Field: verr.Field, Reason: verr.Message}}}, reqID)
		return
	}

	switch {
	case errors.Is(err, leave.ErrOverlap):
		api.Fail(w, http.StatusBadRequest, "leave_overlap", err.Error(), reqID)
	case errors.Is(err, leave.ErrInvalidState):
		api.Fail(w, http.StatusBadRequest, "invalid_state", err.Error(), reqID)
	case errors.Is(err, employees.ErrEmailTaken):
		api.Fail(w, http.StatusBadRequest, "email_taken", err.Error(), reqID)
	case errors.Is(err, attendance.ErrAlreadyMarked):
		api.Fail(w, http.StatusConflict, "attendance_marked", err.Error(), reqID)
	case errors.Is(err, attendance.ErrAlreadyCompleted):
		api.Fail(w, http.StatusConflict, "attendance_completed", err.Error(), reqID)
	case errors.Is(err, employees.ErrNotFound),
		errors.Is(err, leave.ErrNotFound),
		errors.Is(err, attendance.ErrNotFound),
		errors.Is(err, notifications.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), reqID)
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
	case errors.Is(err, auth.ErrSessionExpired):
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
	default:
		slog.Error(area+" failed", "requestId", reqID, "err", err)
		api.Fail(w, http.StatusInternalServerError, area+"_failed", "internal server error", reqID)
	}
}

// CurrentUser returns the authenticated user or writes a 401.
func CurrentUser(w http.ResponseWriter, r *http.Request) (auth.UserContext, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
	}
	return user, ok
}
