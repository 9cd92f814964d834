package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
	"github.com/alanyoungcy/cryptopredict/internal/notify"
)

type fakeBlobArchiver struct {
	mu      sync.Mutex
	cutoffs []time.Time
	n       int64
	err     error
}

func (f *fakeBlobArchiver) ArchivePredictions(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, before)
	return f.n, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestArchiverRunUsesRetention(t *testing.T) {
	fake := &fakeBlobArchiver{n: 7}
	a := NewArchiver(fake, 90, nil, testLogger())
	a.now = func() time.Time { return time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC) }

	n, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	require.Len(t, fake.cutoffs, 1)
	assert.Equal(t, time.Date(2024, 3, 3, 3, 0, 0, 0, time.UTC), fake.cutoffs[0])
}

func TestArchiverScheduledFailureAlerts(t *testing.T) {
	fake := &fakeBlobArchiver{err: errors.New("bucket missing")}
	var events []string
	alert := func(_ context.Context, event, _, _ string) error {
		events = append(events, event)
		return nil
	}
	a := NewArchiver(fake, 30, alert, testLogger())

	a.runScheduled(context.Background())
	assert.Equal(t, []string{notify.EventArchiveFailed}, events)
}

type fakeLocks struct {
	held     bool
	acquired int
	released int
}

func (f *fakeLocks) Acquire(context.Context, string, time.Duration) (func(), error) {
	if f.held {
		return nil, domain.ErrLockHeld
	}
	f.acquired++
	return func() { f.released++ }, nil
}

func TestArchiverScheduledRunTakesLock(t *testing.T) {
	fake := &fakeBlobArchiver{n: 1}
	locks := &fakeLocks{}
	a := NewArchiver(fake, 30, nil, testLogger()).WithLocks(locks)

	a.runScheduled(context.Background())
	assert.Equal(t, 1, locks.acquired)
	assert.Equal(t, 1, locks.released)
	assert.Len(t, fake.cutoffs, 1)
}

func TestArchiverScheduledRunSkipsWhenLockHeld(t *testing.T) {
	fake := &fakeBlobArchiver{}
	a := NewArchiver(fake, 30, nil, testLogger()).WithLocks(&fakeLocks{held: true})

	a.runScheduled(context.Background())
	assert.Empty(t, fake.cutoffs)
}

func TestArchiverRunCronRejectsBadExpression(t *testing.T) {
	a := NewArchiver(&fakeBlobArchiver{}, 30, nil, testLogger())
	err := a.RunCron(context.Background(), "not a cron")
	assert.Error(t, err)
}

func TestArchiverRunCronStopsOnCancel(t *testing.T) {
	a := NewArchiver(&fakeBlobArchiver{}, 30, nil, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.RunCron(ctx, "0 3 1 * *") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("RunCron did not return after cancel")
	}
}
