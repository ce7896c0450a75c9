package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ems/internal/domain/auth"
	"ems/internal/platform/config"
	"ems/internal/platform/metrics"
	"ems/internal/transport/http/api"
	attendancehandler "ems/internal/transport/http/handlers/attendance"
	audithandler "ems/internal/transport/http/handlers/audit"
	authhandler "ems/internal/transport/http/handlers/auth"
	dashboardhandler "ems/internal/transport/http/handlers/dashboard"
	employeeshandler "ems/internal/transport/http/handlers/employees"
	leavehandler "ems/internal/transport/http/handlers/leave"
	notificationshandler "ems/internal/transport/http/handlers/notifications"
	profilehandler "ems/internal/transport/http/handlers/profile"
	"ems/internal/transport/http/middleware"
)

type Handlers struct {
	Auth          *authhandler.Handler
	Employees     *employeeshandler.Handler
	Attendance    *attendancehandler.Handler
	Leave         *leavehandler.Handler
	Dashboard     *dashboardhandler.Handler
	Notifications *notificationshandler.Handler
	Profile       *profilehandler.Handler
	Audit         *audithandler.Handler
}

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type RouterDeps struct {
	Config      config.Config
	Authn       middleware.Authenticator
	Perms       middleware.PermissionStore
	Metrics     *metrics.Collector
	Ready       map[string]ReadinessCheck
	RateCounter middleware.Counter // nil uses an in-process counter
	Handlers    Handlers
}

func NewRouter(deps RouterDeps) http.Handler {
	cfg := deps.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(deps.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(deps.Authn))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, middleware.WithCounter(deps.RateCounter)))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute, middleware.WithCounter(deps.RateCounter)))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", readyHandler(deps.Ready))
	if cfg.MetricsEnabled && deps.Metrics != nil {
		router.Handle("/metrics", promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	h := deps.Handlers
	router.Route("/api/v1", func(r chi.Router) {
		h.Auth.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(auth.PermProfileRead, deps.Perms))
			h.Profile.RegisterRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(auth.PermNotificationsSelf, deps.Perms))
			h.Notifications.RegisterRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleEmployee))
			h.Attendance.RegisterSelfRoutes(r)
			h.Leave.RegisterSelfRoutes(r)
			h.Dashboard.RegisterSelfRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleAdmin))
			r.With(middleware.RequirePermission(auth.PermEmployeesWrite, deps.Perms)).Group(h.Employees.RegisterRoutes)
			r.With(middleware.RequirePermission(auth.PermAttendanceManage, deps.Perms)).Group(h.Attendance.RegisterAdminRoutes)
			r.With(middleware.RequirePermission(auth.PermLeaveManage, deps.Perms)).Group(h.Leave.RegisterAdminRoutes)
			r.With(middleware.RequirePermission(auth.PermDashboardAdmin, deps.Perms)).Group(h.Dashboard.RegisterAdminRoutes)
			r.With(middleware.RequirePermission(auth.PermNotificationsOps, deps.Perms)).Group(h.Notifications.RegisterAdminRoutes)
			r.With(middleware.RequirePermission(auth.PermAuditRead, deps.Perms)).Group(h.Audit.RegisterRoutes)
		})
	})

	return router
}

func readyHandler(checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := make(map[string]string, len(checks))
		ready := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status[name] = err.Error()
				ready = false
				continue
			}
			status[name] = "ok"
		}
		reqID := middleware.GetRequestID(r.Context())
		if !ready {
			api.FailWithDetails(w, http.StatusServiceUnavailable, "not_ready", "dependencies not ready", status, reqID)
			return
		}
		api.Success(w, status, reqID)
	}
}
