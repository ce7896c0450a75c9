package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"ems/internal/platform/metrics"
	"ems/internal/platform/querier"
)

const JobNotificationDispatch = "notification_dispatch"

const insertJobRunSQL = `
    INSERT INTO job_runs (job_type, status, details_json, started_at, completed_at)
    VALUES ($1, $2, $3, $4, now())
  `

// RunFunc performs one job. A nil result with a nil error means there was
// nothing to do and no run is recorded.
type RunFunc func(ctx context.Context) (any, error)

type Service struct {
	DB      querier.Querier
	Metrics *metrics.Collector
	queue   chan job
}

type job struct {
	Type string
	Run  RunFunc
}

func New(db querier.Querier, collector *metrics.Collector) *Service {
	return &Service{
		DB:      db,
		Metrics: collector,
		queue:   make(chan job, 128),
	}
}

// Start runs the single worker goroutine until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
}

// Schedule enqueues run every interval until ctx is cancelled.
func (s *Service) Schedule(ctx context.Context, jobType string, interval time.Duration, run RunFunc) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Enqueue(jobType, run)
			}
		}
	}()
}

// Enqueue never blocks; a full queue drops the job since the next tick
// will pick up the same work.
func (s *Service) Enqueue(jobType string, run RunFunc) bool {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	started := time.Now()
	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	s.Metrics.RecordJob(j.Type, status, time.Since(started))

	if details == nil && err == nil {
		return nil, nil
	}
	if err != nil && details == nil {
		details = map[string]string{"error": err.Error()}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if s.DB != nil {
		if _, insErr := s.DB.Exec(ctx, insertJobRunSQL, j.Type, status, detailsJSON, started); insErr != nil {
			slog.Warn("job run insert failed", "jobType", j.Type, "err", insErr)
		}
	}
	return details, err
}
