// Package jobs runs the scheduled maintenance work: expiring yesterday's
// meal validations and closing out past validator assignments.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Expirer is the nightly maintenance surface of the scan engine.
type Expirer interface {
	ExpireStale(ctx context.Context) error
}

// Scheduler owns the cron runner. Jobs are idempotent; a missed or doubled
// run changes nothing beyond log noise.
type Scheduler struct {
	cron    *cron.Cron
	expirer Expirer
	logger  *slog.Logger
	timeout time.Duration
}

func New(expirer Expirer, logger *slog.Logger, loc *time.Location) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		expirer: expirer,
		logger:  logger,
		timeout: 2 * time.Minute,
	}
}

// Start registers the nightly job and launches the runner. Midnight in the
// conference timezone is the day boundary the meal uniqueness key uses, so
// the expiry runs shortly after it.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("5 0 * * *", s.runExpiry)
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runExpiry() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.expirer.ExpireStale(ctx); err != nil {
		s.logger.ErrorContext(ctx, "nightly expiry failed", "error", err)
	}
}
