package lessons

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/abhisek/sprachiz/internal/difficulty"
	"github.com/abhisek/sprachiz/internal/profile"
	"github.com/abhisek/sprachiz/internal/store"
)

// XPCreditor receives the XP a learner earns in lessons.
type XPCreditor interface {
	AddXP(ctx context.Context, learnerID string, xp int, now time.Time) (*profile.Profile, error)
}

// Service persists lesson attempts and drives them through the stage
// machine. Writes for one learner are serialized through the shared lock.
type Service struct {
	catalog   *Catalog
	repo      store.AttemptRepo
	eventRepo store.EventRepo
	xp        XPCreditor
	locks     *store.KeyedMutex
	log       logrus.FieldLogger
}

// NewService creates a lesson service. eventRepo and xp may be nil.
func NewService(catalog *Catalog, repo store.AttemptRepo, eventRepo store.EventRepo, xp XPCreditor, locks *store.KeyedMutex, log logrus.FieldLogger) *Service {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if locks == nil {
		locks = store.NewKeyedMutex()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		catalog:   catalog,
		repo:      repo,
		eventRepo: eventRepo,
		xp:        xp,
		locks:     locks,
		log:       log,
	}
}

// Catalog returns the lesson catalog the service serves.
func (s *Service) Catalog() *Catalog { return s.catalog }

// Get returns the learner's attempt at a lesson or ErrAttemptNotFound.
func (s *Service) Get(ctx context.Context, learnerID, lessonID string) (*Attempt, error) {
	rec, err := s.repo.GetAttempt(ctx, learnerID, lessonID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAttemptNotFound, lessonID)
	}
	if err != nil {
		return nil, err
	}
	return fromRecord(*rec)
}

// Achievements returns the catalog badges with the learner's earned ones
// marked.
func (s *Service) Achievements(ctx context.Context, learnerID string) ([]Achievement, error) {
	attempts, err := s.List(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	return s.catalog.Achievements(attempts), nil
}

// List returns all of the learner's attempts.
func (s *Service) List(ctx context.Context, learnerID string) ([]Attempt, error) {
	recs, err := s.repo.ListAttempts(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	out := make([]Attempt, 0, len(recs))
	for _, r := range recs {
		a, err := fromRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

// Recommend returns the next lessons for a learner at level.
func (s *Service) Recommend(ctx context.Context, learnerID string, level difficulty.Level) ([]Lesson, error) {
	attempts, err := s.List(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	return s.catalog.Recommend(level, attempts), nil
}

// Start opens a lesson, creating the attempt on first open and resuming
// it afterwards.
func (s *Service) Start(ctx context.Context, learnerID, lessonID string, now time.Time) (*Attempt, error) {
	if _, err := s.catalog.Get(lessonID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, learnerID, lessonID, true, func(a *Attempt) error {
		a.Start(now.UTC())
		return nil
	})
}

// Restart begins a fresh pass through a lesson.
func (s *Service) Restart(ctx context.Context, learnerID, lessonID string, now time.Time) (*Attempt, error) {
	if _, err := s.catalog.Get(lessonID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, learnerID, lessonID, true, func(a *Attempt) error {
		a.Restart(now.UTC())
		return nil
	})
}

// CompleteStage applies a stage completion and returns the XP it awarded.
func (s *Service) CompleteStage(ctx context.Context, learnerID, lessonID string, c StageCompletion, now time.Time) (*Attempt, int, error) {
	var awarded int
	a, err := s.mutate(ctx, learnerID, lessonID, false, func(a *Attempt) error {
		var err error
		awarded, err = a.Advance(c, now.UTC())
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	s.log.WithFields(logrus.Fields{
		"learner": learnerID,
		"lesson":  lessonID,
		"stage":   c.Stage.String(),
		"xp":      awarded,
	}).Debug("stage completed")
	return a, awarded, nil
}

// GoTo moves the learner to another unlocked stage.
func (s *Service) GoTo(ctx context.Context, learnerID, lessonID string, stage Stage, now time.Time) (*Attempt, error) {
	return s.mutate(ctx, learnerID, lessonID, false, func(a *Attempt) error {
		return a.GoTo(stage, now.UTC())
	})
}

// FinishOutcome is the persisted result of finishing a lesson pass.
type FinishOutcome struct {
	Attempt *Attempt
	Result  Result
	// BonusXP is the lesson reward credited on first completion.
	BonusXP int
}

// TotalXP is the XP credited to the learner by this finish.
func (o FinishOutcome) TotalXP() int { return o.Result.XPEarned + o.BonusXP }

// Finish scores the current pass and credits uncredited XP to the
// learner's profile.
func (s *Service) Finish(ctx context.Context, learnerID, lessonID string, now time.Time) (*FinishOutcome, error) {
	lesson, err := s.catalog.Get(lessonID)
	if err != nil {
		return nil, err
	}

	var res Result
	a, err := s.mutate(ctx, learnerID, lessonID, false, func(a *Attempt) error {
		var err error
		res, err = a.Finish(now.UTC())
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &FinishOutcome{Attempt: a, Result: res}
	if res.FirstCompletion() {
		out.BonusXP = lesson.XPReward
	}

	s.log.WithFields(logrus.Fields{
		"learner": learnerID,
		"lesson":  lessonID,
		"score":   res.Score,
		"status":  res.Status,
	}).Info("lesson finished")

	if s.xp != nil && out.TotalXP() > 0 {
		if _, err := s.xp.AddXP(ctx, learnerID, out.TotalXP(), now); err != nil {
			return out, fmt.Errorf("credit xp: %w", err)
		}
	}
	return out, nil
}

// mutate runs fn on the stored attempt under the learner lock and saves
// it. create allows a missing attempt to be created.
func (s *Service) mutate(ctx context.Context, learnerID, lessonID string, create bool, fn func(*Attempt) error) (*Attempt, error) {
	if learnerID == "" || lessonID == "" {
		return nil, fmt.Errorf("%w: learner and lesson are required", ErrInvalidAttempt)
	}

	unlock := s.locks.Lock(learnerID)
	defer unlock()

	a, err := s.Get(ctx, learnerID, lessonID)
	switch {
	case err == nil:
	case errors.Is(err, ErrAttemptNotFound) && create:
		a = NewAttempt(uuid.NewString(), learnerID, lessonID)
	default:
		return nil, err
	}

	before := a.Status
	if err := fn(a); err != nil {
		return nil, err
	}
	if err := s.repo.SaveAttempt(ctx, toRecord(a)); err != nil {
		return nil, fmt.Errorf("save attempt: %w", err)
	}

	if a.Status != before {
		s.log.WithFields(logrus.Fields{
			"learner": learnerID,
			"lesson":  lessonID,
			"from":    before,
			"to":      a.Status,
		}).Info("lesson status changed")
		s.emitTransition(ctx, a, before)
	}
	return a, nil
}

func (s *Service) emitTransition(ctx context.Context, a *Attempt, from Status) {
	if s.eventRepo == nil {
		return
	}
	err := s.eventRepo.AppendLessonEvent(ctx, store.LessonEventData{
		LearnerID:  a.LearnerID,
		LessonID:   a.LessonID,
		FromStatus: string(from),
		ToStatus:   string(a.Status),
		Score:      a.Score,
	})
	if err != nil {
		s.log.WithError(err).Warn("failed to record lesson event")
	}
}

func toRecord(a *Attempt) *store.AttemptRecord {
	stages := make(store.IntSet, len(a.CompletedStages))
	for i, st := range a.CompletedStages {
		stages[i] = int(st)
	}
	return &store.AttemptRecord{
		ID:              a.ID,
		LearnerID:       a.LearnerID,
		LessonID:        a.LessonID,
		Status:          string(a.Status),
		CurrentStage:    int(a.CurrentStage),
		CompletedStages: stages,
		ChallengeScore:  a.ChallengeScore,
		Score:           a.Score,
		BestScore:       a.BestScore,
		Attempts:        a.Attempts,
		XP:              a.XP,
		CreditedXP:      a.CreditedXP,
		StartedAt:       timePtr(a.StartedAt),
		LastAccessedAt:  timePtr(a.LastAccessedAt),
		CompletedAt:     timePtr(a.CompletedAt),
	}
}

func fromRecord(r store.AttemptRecord) (*Attempt, error) {
	status, err := ParseStatus(r.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAttempt, err)
	}
	a := &Attempt{
		ID:             r.ID,
		LearnerID:      r.LearnerID,
		LessonID:       r.LessonID,
		Status:         status,
		CurrentStage:   Stage(r.CurrentStage),
		ChallengeScore: r.ChallengeScore,
		Score:          r.Score,
		BestScore:      r.BestScore,
		Attempts:       r.Attempts,
		XP:             r.XP,
		CreditedXP:     r.CreditedXP,
		StartedAt:      timeVal(r.StartedAt),
		LastAccessedAt: timeVal(r.LastAccessedAt),
		CompletedAt:    timeVal(r.CompletedAt),
	}
	for _, st := range r.CompletedStages {
		a.CompletedStages = append(a.CompletedStages, Stage(st))
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func timeVal(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
