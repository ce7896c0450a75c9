package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type attemptUpdate struct {
	id      string
	lastErr string
	next    time.Time
	final   bool
}

type fakeStore struct {
	StoreAPI
	inserted []Draft
	due      []outboxItem
	sent     []string
	failed   []attemptUpdate
	deferred []attemptUpdate
}

func (f *fakeStore) Insert(ctx context.Context, d Draft) (string, error) {
	f.inserted = append(f.inserted, d)
	return "n-1", nil
}

func (f *fakeStore) ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]outboxItem, error) {
	items := f.due
	f.due = nil
	return items, nil
}

func (f *fakeStore) MarkSent(ctx context.Context, id string) error {
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeStore) MarkAttemptFailed(ctx context.Context, id, lastError string, next time.Time, final bool) error {
	f.failed = append(f.failed, attemptUpdate{id: id, lastErr: lastError, next: next, final: final})
	return nil
}

func (f *fakeStore) Defer(ctx context.Context, id, lastError string, next time.Time) error {
	f.deferred = append(f.deferred, attemptUpdate{id: id, lastErr: lastError, next: next})
	return nil
}

func (f *fakeStore) CountPending(ctx context.Context) (int, error) {
	return 0, nil
}

type fakeMailer struct {
	err  error
	sent []Message
}

func (m *fakeMailer) Send(ctx context.Context, msg Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, 30 * time.Second},
		{1, 30 * time.Second},
		{2, time.Minute},
		{3, 2 * time.Minute},
		{7, 32 * time.Minute},
		{8, time.Hour},
		{20, time.Hour},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(tt.attempts), "attempts=%d", tt.attempts)
	}
}

func TestNotifyQueuesAndWakes(t *testing.T) {
	store := &fakeStore{}
	svc := New(store, &fakeMailer{})
	woken := 0
	svc.Wake = func() { woken++ }

	id, err := svc.Notify(context.Background(), Draft{Title: "Clock In Successful", RecipientEmail: "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, "n-1", id)
	assert.Equal(t, 1, woken)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, TypeClock, store.inserted[0].Type)
}

func TestDispatchNothingDue(t *testing.T) {
	svc := New(&fakeStore{}, &fakeMailer{})
	details, err := svc.Dispatch(context.Background())
	require.NoError(t, err)
	assert.Nil(t, details)
}

func TestDispatchOutcomes(t *testing.T) {
	store := &fakeStore{due: []outboxItem{{ID: "a", RecipientEmail: "a@example.com", Title: "Hi"}}}
	mailer := &fakeMailer{}
	svc := New(store, mailer)
	svc.now = fixedNow

	details, err := svc.Dispatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Claimed: 1, Sent: 1}, details)
	assert.Equal(t, []string{"a"}, store.sent)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Hi", mailer.sent[0].Subject)
}

func TestDispatchRetriesWithBackoff(t *testing.T) {
	store := &fakeStore{due: []outboxItem{{ID: "a", RecipientEmail: "a@example.com", Attempts: 1}}}
	svc := New(store, &fakeMailer{err: errors.New("connection refused")})
	svc.now = fixedNow

	details, err := svc.Dispatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Claimed: 1, Retrying: 1}, details)
	require.Len(t, store.failed, 1)
	assert.False(t, store.failed[0].final)
	assert.Equal(t, fixedNow().Add(time.Minute), store.failed[0].next)
	assert.Equal(t, "connection refused", store.failed[0].lastErr)
}

func TestDispatchMarksFailedAfterMaxAttempts(t *testing.T) {
	store := &fakeStore{due: []outboxItem{{ID: "a", RecipientEmail: "a@example.com", Attempts: 4}}}
	svc := New(store, &fakeMailer{err: errors.New("mailbox unavailable")})
	svc.now = fixedNow

	details, err := svc.Dispatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Claimed: 1, Failed: 1}, details)
	require.Len(t, store.failed, 1)
	assert.True(t, store.failed[0].final)
}

func TestDispatchDefersWhenMailerDisabled(t *testing.T) {
	store := &fakeStore{due: []outboxItem{{ID: "a", RecipientEmail: "a@example.com", Attempts: 2}}}
	svc := New(store, &fakeMailer{err: ErrMailerDisabled})
	svc.now = fixedNow

	details, err := svc.Dispatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Claimed: 1, Deferred: 1}, details)
	assert.Empty(t, store.failed)
	require.Len(t, store.deferred, 1)
	assert.Equal(t, "smtp not configured", store.deferred[0].lastErr)
	assert.Equal(t, fixedNow().Add(time.Hour), store.deferred[0].next)
}

func TestDispatchFailsRowsWithoutRecipient(t *testing.T) {
	store := &fakeStore{due: []outboxItem{{ID: "a"}}}
	mailer := &fakeMailer{}
	svc := New(store, mailer)
	svc.now = fixedNow

	_, err := svc.Dispatch(context.Background())
	require.NoError(t, err)
	require.Len(t, store.failed, 1)
	assert.True(t, store.failed[0].final)
	assert.Empty(t, mailer.sent)
}
