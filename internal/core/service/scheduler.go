package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Scheduler runs the automation check on a fixed interval until stopped.
// Run errors are surfaced to the operator log; the loop keeps going.
type Scheduler struct {
	replenish *ReplenishmentService
	interval  time.Duration
	log       *logrus.Logger
	stopCh    chan struct{}
}

func NewScheduler(replenish *ReplenishmentService, interval time.Duration, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		replenish: replenish,
		interval:  interval,
		log:       log,
		stopCh:    make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.log.WithField("interval", s.interval.String()).Info("starting replenishment scheduler")
	go s.run(ctx)
}

func (s *Scheduler) Stop() {
	s.log.Info("stopping replenishment scheduler")
	close(s.stopCh)
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.replenish.RunAutomationCheck(ctx); err != nil {
				s.log.WithError(err).Error("automation check failed")
			}
		case <-s.stopCh:
			s.log.Info("replenishment scheduler stopped")
			return
		case <-ctx.Done():
			s.log.Info("replenishment scheduler cancelled")
			return
		}
	}
}
