package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"ems/internal/domain/attendance"
	"ems/internal/domain/audit"
	"ems/internal/domain/auth"
	"ems/internal/domain/dashboard"
	"ems/internal/domain/employees"
	"ems/internal/domain/leave"
	"ems/internal/domain/notifications"
	"ems/internal/platform/config"
	"ems/internal/platform/db"
	"ems/internal/platform/email"
	"ems/internal/platform/jobs"
	"ems/internal/platform/metrics"
	"ems/internal/platform/redisclient"
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

type App struct {
	Config  config.Config
	DB      *db.Pool
	Redis   *redis.Client
	Metrics *metrics.Collector
	Jobs    *jobs.Service
	Router  http.Handler
}

func setupLogger(env, level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	switch env {
	case "development", "local", "test":
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func Run() {
	cfg := config.Load()
	setupLogger(cfg.Environment, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("EMS server listening", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			slog.Error("server failed", "err", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "err", err)
	}
}

// New connects the stores, starts the background worker on ctx and builds
// the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, DB: pool}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, db.Migrations()); err != nil {
			app.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			app.Close()
			return nil, err
		}
	}

	var sessions auth.SessionStore = auth.NewPostgresSessions(pool)
	if cfg.RedisAddr != "" {
		client, err := redisclient.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			slog.Warn("redis unavailable, using postgres sessions", "err", err)
		} else {
			app.Redis = client
			sessions = auth.NewRedisSessions(client)
		}
	}

	app.Metrics = metrics.New()
	app.Jobs = jobs.New(pool, app.Metrics)

	notifySvc := notifications.New(notifications.NewStore(pool), email.New(cfg))
	notifySvc.Metrics = app.Metrics
	notifySvc.MaxAttempts = cfg.NotificationMaxAttempts
	notifySvc.BatchSize = cfg.NotificationBatchSize
	if cfg.EmailFrom != "" {
		notifySvc.DefaultFrom = cfg.EmailFrom
	}
	notifySvc.Wake = func() {
		app.Jobs.Enqueue(jobs.JobNotificationDispatch, notifySvc.Dispatch)
	}

	employeeSvc := employees.NewService(employees.NewStore(pool))
	attendanceSvc := attendance.NewService(attendance.NewStore(pool), employeeSvc, notifySvc)
	leaveSvc := leave.NewService(leave.NewStore(pool), employeeSvc, notifySvc)
	dashboardSvc := dashboard.NewService(dashboard.NewStore(pool), attendanceSvc, leaveSvc, employeeSvc)
	authSvc := auth.NewService(auth.NewStore(pool), sessions, cfg.JWTSecret, cfg.TokenTTL)
	auditSvc := audit.New(pool)

	app.Jobs.Start(ctx)
	app.Jobs.Schedule(ctx, jobs.JobNotificationDispatch, cfg.NotificationPollInterval, notifySvc.Dispatch)

	ready := map[string]ReadinessCheck{"database": pool.Ping}
	if app.Redis != nil {
		ready["redis"] = func(ctx context.Context) error { return app.Redis.Ping(ctx).Err() }
	}

	var rateCounter middleware.Counter
	if app.Redis != nil {
		rateCounter = middleware.NewRedisCounter(app.Redis)
	}

	app.Router = NewRouter(RouterDeps{
		Config:      cfg,
		Authn:       authSvc,
		Perms:       auth.NewStaticPermissions(),
		Metrics:     app.Metrics,
		Ready:       ready,
		RateCounter: rateCounter,
		Handlers: Handlers{
			Auth:          authhandler.NewHandler(authSvc),
			Employees:     employeeshandler.NewHandler(employeeSvc, auditSvc),
			Attendance:    attendancehandler.NewHandler(attendanceSvc, auditSvc),
			Leave:         leavehandler.NewHandler(leaveSvc, middleware.NewIdempotencyStore(pool), auditSvc),
			Dashboard:     dashboardhandler.NewHandler(dashboardSvc),
			Notifications: notificationshandler.NewHandler(notifySvc, auditSvc),
			Profile:       profilehandler.NewHandler(employeeSvc),
			Audit:         audithandler.NewHandler(auditSvc),
		},
	})
	return app, nil
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			slog.Warn("redis close failed", "err", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
