package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/sprachiz/internal/logging"
	"github.com/abhisek/sprachiz/internal/profile"
	"github.com/abhisek/sprachiz/internal/spacedrep"
)

// LearnerLister lists every learner profile.
type LearnerLister interface {
	Learners(ctx context.Context) ([]profile.Profile, error)
}

// DueLister returns a learner's due items.
type DueLister interface {
	Due(ctx context.Context, learnerID string, now time.Time) ([]spacedrep.Item, error)
}

// Summary reports the outcome of one sweep.
type Summary struct {
	Quiet    bool
	Learners int
	Notified int
	Skipped  int
	Failed   int
	DueItems int
}

// Sweeper checks every learner for due reviews and notifies them.
type Sweeper struct {
	learners    LearnerLister
	due         DueLister
	notifier    Notifier
	quiet       QuietHours
	concurrency int
	log         logrus.FieldLogger
}

// NewSweeper creates a sweeper. Concurrency below one is treated as one.
func NewSweeper(learners LearnerLister, due DueLister, notifier Notifier, quiet QuietHours, concurrency int, log logrus.FieldLogger) *Sweeper {
	if log == nil {
		log = logging.Discard()
	}
	return &Sweeper{
		learners:    learners,
		due:         due,
		notifier:    notifier,
		quiet:       quiet,
		concurrency: max(concurrency, 1),
		log:         log,
	}
}

// Sweep runs one pass at now. Learners are checked in parallel; a failed
// due lookup aborts the pass, a failed notification is logged and counted.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (*Summary, error) {
	if s.quiet.Contains(now) {
		s.log.WithField("hour", now.Hour()).Debug("reminder sweep skipped during quiet hours")
		return &Summary{Quiet: true}, nil
	}

	learners, err := s.learners.Learners(ctx)
	if err != nil {
		return nil, fmt.Errorf("list learners: %w", err)
	}

	var (
		mu  sync.Mutex
		sum = Summary{Learners: len(learners)}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, p := range learners {
		g.Go(func() error {
			items, err := s.due.Due(gctx, p.LearnerID, now)
			if err != nil {
				return fmt.Errorf("due items for %s: %w", p.LearnerID, err)
			}
			if len(items) == 0 {
				return nil
			}

			err = s.notifier.Notify(gctx, Notice{
				LearnerID:   p.LearnerID,
				DisplayName: p.DisplayName,
				ChatID:      p.TelegramChatID,
				DueCount:    len(items),
			})

			mu.Lock()
			defer mu.Unlock()
			sum.DueItems += len(items)
			switch {
			case err == nil:
				sum.Notified++
			case errors.Is(err, ErrNoChat):
				sum.Skipped++
			default:
				sum.Failed++
				s.log.WithError(err).WithField("learner", p.LearnerID).Warn("reminder not delivered")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"learners": sum.Learners,
		"notified": sum.Notified,
		"due":      sum.DueItems,
	}).Info("reminder sweep finished")
	return &sum, nil
}
