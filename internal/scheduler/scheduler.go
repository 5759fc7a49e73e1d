// Package scheduler runs the planning pipeline on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/aristath/fundflow/internal/modules/runner"
)

// runTimeout bounds a scheduled run so a hung solve cannot pile up
// behind the next trigger.
const runTimeout = 10 * time.Minute

// Scheduler triggers runs from cron expressions (with a seconds field).
type Scheduler struct {
	cron   *cron.Cron
	runner *runner.Service
	paths  runner.Paths
	log    zerolog.Logger
}

// New creates a stopped scheduler.
func New(svc *runner.Service, paths runner.Paths, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		runner: svc,
		paths:  paths,
		log:    log.With().Str("component", "scheduler").Logger(),
	}
}

// Schedule registers a planning run at the given cron spec.
func (s *Scheduler) Schedule(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		res, err := s.runner.Run(ctx, s.paths)
		if err != nil {
			s.log.Error().Err(err).Msg("Scheduled run failed")
			return
		}
		s.log.Info().
			Str("run_id", res.RunID).
			Str("status", string(res.Plan.Status)).
			Msg("Scheduled run finished")
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.log.Info().Str("spec", spec).Msg("Planning run scheduled")
	return nil
}

// Start begins firing scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}
