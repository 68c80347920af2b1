package scheduler

import (
	"context"
	"fmt"
	"glowmart-backend/pkg/logger"
	"time"

	"github.com/robfig/cron/v3"
)

// AutoCompleter is the order operation the scheduler drives.
type AutoCompleter interface {
	AutoCompleteDelivered(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	orders  AutoCompleter
	timeout time.Duration
}

// New registers the auto-complete job on schedule (standard cron syntax or
// descriptors such as "@every 1h"). Overlapping runs are skipped.
func New(schedule string, orders AutoCompleter, timeout time.Duration) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		orders:  orders,
		timeout: timeout,
	}
	if _, err := s.cron.AddFunc(schedule, s.runAutoComplete); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) runAutoComplete() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.orders.AutoCompleteDelivered(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Auto-complete run failed")
		return
	}
	if n > 0 {
		logger.Info().Int("completed", n).Msg("Delivered orders auto-completed")
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info().Msg("Scheduler started")
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	logger.Info().Msg("Scheduler stopped")
}
