package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/abhisek/sprachiz/internal/logging"
)

// Scheduler runs the sweep on a cron schedule.
type Scheduler struct {
	sweeper *Sweeper
	spec    string
	log     logrus.FieldLogger
	now     func() time.Time

	mu     sync.Mutex
	cron   *rcron.Cron
	cancel context.CancelFunc
}

// NewScheduler validates spec, a standard five-field cron expression or
// descriptor such as "@hourly".
func NewScheduler(spec string, sweeper *Sweeper, log logrus.FieldLogger) (*Scheduler, error) {
	if _, err := rcron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Scheduler{sweeper: sweeper, spec: spec, log: log, now: time.Now}, nil
}

// Start begins scheduling sweeps until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("reminder scheduler already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	logger := rcron.PrintfLogger(s.log)
	c := rcron.New(
		rcron.WithLogger(logger),
		rcron.WithChain(rcron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(s.spec, func() { s.run(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("register reminder job: %w", err)
	}
	c.Start()

	s.cron = c
	s.cancel = cancel
	s.log.WithField("schedule", s.spec).Info("reminder scheduler started")
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
	s.log.Info("reminder scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	if _, err := s.sweeper.Sweep(ctx, s.now()); err != nil {
		s.log.WithError(err).Error("reminder sweep failed")
	}
}
