package mastery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/sprachiz/internal/store"
)

// Service provides topic mastery tracking backed by the store.
type Service struct {
	repo      store.TopicRepo
	eventRepo store.EventRepo
	locks     *store.KeyedMutex
	log       logrus.FieldLogger
}

// NewService creates a mastery service. eventRepo may be nil, in which
// case tier transitions are not recorded as events.
func NewService(repo store.TopicRepo, eventRepo store.EventRepo, locks *store.KeyedMutex, log logrus.FieldLogger) *Service {
	if locks == nil {
		locks = store.NewKeyedMutex()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{repo: repo, eventRepo: eventRepo, locks: locks, log: log}
}

// RecordUse applies one judged use of topic. The record is created on
// first use. A non-nil transition is returned when the tier changed.
func (s *Service) RecordUse(ctx context.Context, learnerID, topic string, correct bool, now time.Time) (*TopicMastery, *TierTransition, error) {
	topic = strings.TrimSpace(topic)
	if learnerID == "" || topic == "" {
		return nil, nil, fmt.Errorf("%w: learner and topic are required", ErrInvalidTopic)
	}

	unlock := s.locks.Lock(learnerID)
	defer unlock()

	now = now.UTC()
	var (
		tm        TopicMastery
		createdAt = now
	)
	rec, err := s.repo.GetTopic(ctx, learnerID, topic)
	switch {
	case err == nil:
		tm = fromRecord(*rec)
		createdAt = rec.CreatedAt
	case errors.Is(err, store.ErrNotFound):
		tm = TopicMastery{LearnerID: learnerID, Topic: topic, Tier: TierBeginner}
	default:
		return nil, nil, fmt.Errorf("load topic: %w", err)
	}

	updated, transition, err := Record(tm, correct, now)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.SaveTopic(ctx, toRecord(updated, createdAt)); err != nil {
		return nil, nil, fmt.Errorf("save topic: %w", err)
	}

	if transition != nil {
		s.log.WithFields(logrus.Fields{
			"learner": learnerID,
			"topic":   topic,
			"from":    transition.From,
			"to":      transition.To,
		}).Info("topic tier changed")
		s.emitTransition(ctx, transition, updated)
	}

	return &updated, transition, nil
}

// Get returns the mastery record for one topic. A topic the learner never
// practiced is reported as a zero-count beginner record.
func (s *Service) Get(ctx context.Context, learnerID, topic string) (*TopicMastery, error) {
	rec, err := s.repo.GetTopic(ctx, learnerID, topic)
	if errors.Is(err, store.ErrNotFound) {
		return &TopicMastery{LearnerID: learnerID, Topic: topic, Tier: TierBeginner}, nil
	}
	if err != nil {
		return nil, err
	}
	tm := fromRecord(*rec)
	return &tm, nil
}

// List returns all topics for the learner in first-practiced order.
func (s *Service) List(ctx context.Context, learnerID string) ([]TopicMastery, error) {
	recs, err := s.repo.ListTopics(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	out := make([]TopicMastery, len(recs))
	for i, r := range recs {
		out[i] = fromRecord(r)
	}
	return out, nil
}

// WeakTopics returns the learner's weak topic names in first-practiced order.
func (s *Service) WeakTopics(ctx context.Context, learnerID string) ([]string, error) {
	topics, err := s.List(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	return WeakTopics(topics), nil
}

func (s *Service) emitTransition(ctx context.Context, t *TierTransition, tm TopicMastery) {
	if s.eventRepo == nil {
		return
	}
	err := s.eventRepo.AppendMasteryEvent(ctx, store.MasteryEventData{
		LearnerID:     t.LearnerID,
		Topic:         t.Topic,
		FromTier:      string(t.From),
		ToTier:        string(t.To),
		CorrectUses:   tm.CorrectUses,
		IncorrectUses: tm.IncorrectUses,
	})
	if err != nil {
		s.log.WithError(err).Warn("failed to record mastery event")
	}
}

func toRecord(tm TopicMastery, createdAt time.Time) *store.TopicRecord {
	return &store.TopicRecord{
		LearnerID:       tm.LearnerID,
		Topic:           tm.Topic,
		CorrectUses:     tm.CorrectUses,
		IncorrectUses:   tm.IncorrectUses,
		Tier:            string(tm.Tier),
		LastPracticedAt: tm.LastPracticedAt.UTC(),
		CreatedAt:       createdAt.UTC(),
	}
}

// fromRecord re-derives the tier from the counters rather than trusting
// the stored label.
func fromRecord(r store.TopicRecord) TopicMastery {
	return TopicMastery{
		LearnerID:       r.LearnerID,
		Topic:           r.Topic,
		CorrectUses:     r.CorrectUses,
		IncorrectUses:   r.IncorrectUses,
		Tier:            Classify(r.CorrectUses, r.IncorrectUses),
		LastPracticedAt: r.LastPracticedAt,
	}
}
