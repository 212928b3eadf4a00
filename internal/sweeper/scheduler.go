package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/GoSim-25-26J-441/nft-studio-backend/pkg/logger"
)

// StaleProjectStore removes projects that never left initialisation.
type StaleProjectStore interface {
	DeleteStaleInitializing(ctx context.Context, maxAge time.Duration) (int64, error)
}

type Scheduler struct {
	store  StaleProjectStore
	maxAge time.Duration
	spec   string
	cron   *cron.Cron
}

// NewScheduler runs the sweep on spec, a six-field cron expression with
// seconds. An empty spec sweeps hourly.
func NewScheduler(store StaleProjectStore, maxAge time.Duration, spec string) *Scheduler {
	if spec == "" {
		spec = "0 0 * * * *"
	}
	return &Scheduler{store: store, maxAge: maxAge, spec: spec}
}

// Start initializes cron tasks
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New(cron.WithSeconds())

	if _, err := c.AddFunc(s.spec, func() { s.Sweep(ctx) }); err != nil {
		return err
	}

	logger.Info().Str("spec", s.spec).Dur("max_age", s.maxAge).Msg("project sweeper started")
	c.Start()
	s.cron = c
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *Scheduler) Sweep(ctx context.Context) {
	sctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	n, err := s.store.DeleteStaleInitializing(sctx, s.maxAge)
	if err != nil {
		logger.Error().Err(err).Msg("stale project sweep failed")
		return
	}
	if n > 0 {
		logger.Info().Int64("deleted", n).Msg("removed stale initializing projects")
	}
}
