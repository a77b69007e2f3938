// Package job runs background maintenance on a cron schedule.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/simp-lee/shopbase/internal/resource"
)

// PurgeObserver receives the number of rows removed per resource.
type PurgeObserver interface {
	ObservePurge(resource string, n int64)
}

// TrashPurger permanently removes rows that have been in the trash for
// longer than the retention period. It only ever touches trashed rows.
type TrashPurger struct {
	targets   []resource.Purger
	retention time.Duration
	timeout   time.Duration
	observer  PurgeObserver
	log       *slog.Logger
	now       func() time.Time
}

// NewTrashPurger creates a purger for targets. Panics if retention is not positive.
func NewTrashPurger(targets []resource.Purger, retention time.Duration, observer PurgeObserver, log *slog.Logger) *TrashPurger {
	if retention <= 0 {
		panic("job.NewTrashPurger: retention must be positive")
	}
	if log == nil {
		log = slog.Default()
	}
	return &TrashPurger{
		targets:   targets,
		retention: retention,
		timeout:   5 * time.Minute,
		observer:  observer,
		log:       log,
		now:       time.Now,
	}
}

// Run purges every target once. A failing target does not stop the others;
// all failures are joined into the returned error.
func (p *TrashPurger) Run(ctx context.Context) (int64, error) {
	cutoff := p.now().UTC().Add(-p.retention)

	var (
		total int64
		errs  []error
	)
	for _, t := range p.targets {
		n, err := t.PurgeTrashedBefore(ctx, cutoff)
		if err != nil {
			p.log.ErrorContext(ctx, "trash purge failed",
				slog.String("resource", t.Name()),
				slog.Any("error", err),
			)
			errs = append(errs, fmt.Errorf("purge %s: %w", t.Name(), err))
			continue
		}
		if p.observer != nil {
			p.observer.ObservePurge(t.Name(), n)
		}
		if n > 0 {
			p.log.InfoContext(ctx, "trash purged",
				slog.String("resource", t.Name()),
				slog.Int64("rows", n),
				slog.Time("cutoff", cutoff),
			)
		}
		total += n
	}
	return total, errors.Join(errs...)
}

// Scheduler wraps a cron runner for the purge job.
type Scheduler struct {
	cron *cron.Cron
}

// Schedule registers p on spec (standard 5-field cron syntax or descriptors
// like "@daily"). Overlapping runs are skipped.
func Schedule(spec string, p *TrashPurger) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{p.log}), cron.SkipIfStillRunning(cronLogger{p.log})))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		_, _ = p.Run(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule trash purge %q: %w", spec, err)
	}
	return &Scheduler{cron: c}, nil
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, slog.Any("error", err))...)
}
