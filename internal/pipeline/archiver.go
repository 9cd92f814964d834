// Package pipeline runs background maintenance jobs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
	"github.com/alanyoungcy/cryptopredict/internal/metrics"
	"github.com/alanyoungcy/cryptopredict/internal/notify"
)

// AlertFunc is called when a scheduled run fails.
type AlertFunc func(ctx context.Context, event, title, message string) error

const (
	lockKey = "archive:predictions"
	lockTTL = 30 * time.Minute
)

// Archiver copies prediction records older than the retention window to
// cold storage.
type Archiver struct {
	blobArchiver  domain.Archiver
	retentionDays int
	alert         AlertFunc
	locks         domain.LockManager
	now           func() time.Time
	logger        *slog.Logger
}

// NewArchiver returns an Archiver. alert may be nil.
func NewArchiver(blobArchiver domain.Archiver, retentionDays int, alert AlertFunc, logger *slog.Logger) *Archiver {
	return &Archiver{
		blobArchiver:  blobArchiver,
		retentionDays: retentionDays,
		alert:         alert,
		now:           time.Now,
		logger:        logger.With(slog.String("component", "archiver")),
	}
}

// WithLocks makes scheduled runs take a shared lock so only one instance
// archives per firing.
func (a *Archiver) WithLocks(locks domain.LockManager) *Archiver {
	a.locks = locks
	return a
}

// Cutoff returns the instant before which records are archived.
func (a *Archiver) Cutoff() time.Time {
	return a.now().UTC().Add(-time.Duration(a.retentionDays) * 24 * time.Hour)
}

// Run performs one archive pass.
func (a *Archiver) Run(ctx context.Context) (int64, error) {
	cutoff := a.Cutoff()
	a.logger.InfoContext(ctx, "starting archive run",
		slog.Time("cutoff", cutoff),
		slog.Int("retention_days", a.retentionDays),
	)

	n, err := a.blobArchiver.ArchivePredictions(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pipeline: archive predictions before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	metrics.AddArchived(n)
	a.logger.InfoContext(ctx, "archive run complete", slog.Int64("archived", n))
	return n, nil
}

// RunCron runs the archiver on a standard five-field cron schedule until ctx
// is cancelled, e.g. "0 3 1 * *" for 03:00 UTC on the first of each month.
func (a *Archiver) RunCron(ctx context.Context, expr string) error {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(expr, func() { a.runScheduled(ctx) }); err != nil {
		return fmt.Errorf("pipeline: parse cron %q: %w", expr, err)
	}

	a.logger.InfoContext(ctx, "archiver cron started", slog.String("cron", expr))
	c.Start()
	<-ctx.Done()
	// Wait for an in-flight run to return.
	<-c.Stop().Done()
	a.logger.Info("archiver cron stopped")
	return nil
}

func (a *Archiver) runScheduled(ctx context.Context) {
	if a.locks != nil {
		unlock, err := a.locks.Acquire(ctx, lockKey, lockTTL)
		if errors.Is(err, domain.ErrLockHeld) {
			a.logger.InfoContext(ctx, "archive run skipped, another instance holds the lock")
			return
		}
		if err != nil {
			a.logger.WarnContext(ctx, "archive lock unavailable, running unlocked", slog.String("error", err.Error()))
		} else {
			defer unlock()
		}
	}

	if _, err := a.Run(ctx); err != nil {
		a.logger.ErrorContext(ctx, "archive run failed", slog.String("error", err.Error()))
		if a.alert != nil {
			_ = a.alert(ctx, notify.EventArchiveFailed, "Archive failed", err.Error())
		}
	}
}
