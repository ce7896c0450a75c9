package shared

import (
	"context"
	"log/slog"
	"net/http"

	"ems/internal/domain/audit"
	"ems/internal/transport/http/middleware"
)

type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

// RecordAudit stores an audit event for the calling admin. Failures are
// logged and never change the response.
func RecordAudit(r *http.Request, rec AuditRecorder, action, entityType, entityID string, before, after any) {
	if rec == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	err := rec.Record(r.Context(), audit.Entry{
		ActorID:    user.EmployeeID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         middleware.ClientIP(r),
		Before:     before,
		After:      after,
	})
	if err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
}
