package notifications

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ems/internal/platform/metrics"
)

const (
	baseBackoff     = 30 * time.Second
	maxBackoff      = time.Hour
	disabledBackoff = time.Hour
	claimLease      = 5 * time.Minute
	sendTimeout     = 30 * time.Second
)

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	DefaultFrom string
	MaxAttempts int
	BatchSize   int
	Metrics     *metrics.Collector
	// Wake is called after a row is queued; it must not block.
	Wake func()
	now  func() time.Time
}

func New(store StoreAPI, mailer Mailer) *Service {
	return &Service{
		store:       store,
		Mailer:      mailer,
		DefaultFrom: "EMS System <no-reply@example.com>",
		MaxAttempts: 5,
		BatchSize:   25,
		now:         time.Now,
	}
}

// Backoff returns the delay before the next attempt after attempts failures.
func Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := baseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// Notify queues d for delivery. The outbox row is the only delivery path;
// callers treat a returned error as non-fatal.
func (s *Service) Notify(ctx context.Context, d Draft) (string, error) {
	if strings.TrimSpace(d.Type) == "" {
		d.Type = TypeClock
	}
	id, err := s.store.Insert(ctx, d)
	if err != nil {
		return "", err
	}
	if s.Wake != nil {
		s.Wake()
	}
	return id, nil
}

// Dispatch sends one batch of due notifications. It returns nil when
// nothing was due.
func (s *Service) Dispatch(ctx context.Context) (any, error) {
	items, err := s.store.ClaimDue(ctx, s.BatchSize, claimLease)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	res := DispatchResult{Claimed: len(items)}
	for _, it := range items {
		outcome := s.deliver(ctx, it)
		s.Metrics.RecordNotification(outcome)
		switch outcome {
		case OutcomeSent:
			res.Sent++
		case OutcomeRetry:
			res.Retrying++
		case OutcomeFailed:
			res.Failed++
		case OutcomeDeferred:
			res.Deferred++
		}
	}
	if pending, err := s.store.CountPending(ctx); err == nil {
		s.Metrics.SetNotificationsPending(pending)
	}
	return res, nil
}

func (s *Service) deliver(ctx context.Context, it outboxItem) string {
	if strings.TrimSpace(it.RecipientEmail) == "" {
		if err := s.store.MarkAttemptFailed(ctx, it.ID, "recipient email missing", s.now(), true); err != nil {
			slog.Warn("notification update failed", "notificationId", it.ID, "err", err)
		}
		return OutcomeFailed
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	err := s.Mailer.Send(sendCtx, Message{
		From:    s.DefaultFrom,
		To:      it.RecipientEmail,
		ToName:  it.RecipientName,
		Subject: it.Title,
		Text:    it.Message,
		HTML:    it.HTML,
	})
	cancel()

	switch {
	case err == nil:
		if err := s.store.MarkSent(ctx, it.ID); err != nil {
			slog.Warn("notification update failed", "notificationId", it.ID, "err", err)
		}
		return OutcomeSent
	case errors.Is(err, ErrMailerDisabled):
		if err := s.store.Defer(ctx, it.ID, err.Error(), s.now().Add(disabledBackoff)); err != nil {
			slog.Warn("notification update failed", "notificationId", it.ID, "err", err)
		}
		return OutcomeDeferred
	}

	attempts := it.Attempts + 1
	final := attempts >= s.MaxAttempts
	slog.Warn("notification send failed", "notificationId", it.ID, "attempt", attempts, "final", final, "err", err)
	if uerr := s.store.MarkAttemptFailed(ctx, it.ID, err.Error(), s.now().Add(Backoff(attempts)), final); uerr != nil {
		slog.Warn("notification update failed", "notificationId", it.ID, "err", uerr)
	}
	if final {
		return OutcomeFailed
	}
	return OutcomeRetry
}

func (s *Service) List(ctx context.Context, employeeID string, limit, offset int) ([]Notification, error) {
	return s.store.ListForEmployee(ctx, employeeID, limit, offset)
}

func (s *Service) Count(ctx context.Context, employeeID string) (int, error) {
	return s.store.CountForEmployee(ctx, employeeID)
}

func (s *Service) ListByStatus(ctx context.Context, status string, limit, offset int) ([]Notification, error) {
	return s.store.ListByStatus(ctx, status, limit, offset)
}

func (s *Service) MarkRead(ctx context.Context, employeeID, notificationID string) error {
	return s.store.MarkRead(ctx, employeeID, notificationID)
}

// Retry requeues a failed notification with a fresh attempt budget.
func (s *Service) Retry(ctx context.Context, notificationID string) error {
	if err := s.store.Retry(ctx, notificationID); err != nil {
		return err
	}
	if s.Wake != nil {
		s.Wake()
	}
	return nil
}
