package scheduler

import (
	"context"
	"fmt"
	"time"

	"homework_status_bot/internal/app"
	"homework_status_bot/internal/infra/metrics"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Poller is the per-iteration work driven by the scheduler.
type Poller interface {
	RunIteration(ctx context.Context) error
	ReportError(err error)
}

// PollScheduler runs the poll loop: one iteration, then wait for the next
// schedule tick on success or for the retry interval on failure. It retries
// forever at a flat interval and stops only when ctx is cancelled.
type PollScheduler struct {
	poller        Poller
	schedule      cron.Schedule
	retryInterval time.Duration
	logger        *logrus.Entry
	now           func() time.Time
	sleep         func(ctx context.Context, d time.Duration) error
}

func NewPollScheduler(poller Poller, spec string, retryInterval time.Duration, logger *logrus.Entry) (*PollScheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse poll schedule %q: %w", spec, err)
	}
	return &PollScheduler{
		poller:        poller,
		schedule:      schedule,
		retryInterval: retryInterval,
		logger:        logger,
		now:           time.Now,
		sleep:         sleepContext,
	}, nil
}

// Run blocks until ctx is cancelled.
func (s *PollScheduler) Run(ctx context.Context) {
	s.logger.Info("Starting poll loop")
	for {
		err := s.poller.RunIteration(ctx)
		if ctx.Err() != nil {
			break
		}

		var wait time.Duration
		if err != nil {
			metrics.IncPoll("error")
			metrics.IncIterationError(string(app.KindOf(err)))
			s.poller.ReportError(err)
			wait = s.retryInterval
		} else {
			metrics.IncPoll("ok")
			wait = s.untilNext()
		}

		s.logger.WithField("wait", wait.String()).Debug("Waiting for next poll")
		if err := s.sleep(ctx, wait); err != nil {
			break
		}
	}
	s.logger.Info("Poll loop stopped")
}

func (s *PollScheduler) untilNext() time.Duration {
	now := s.now()
	d := s.schedule.Next(now).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
