package spacedrep

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/abhisek/sprachiz/internal/store"
)

// NewItem holds the learner-supplied fields of an item to add.
type NewItem struct {
	LearnerID       string
	SourceTerm      string
	TargetTerm      string
	ContextSentence string
	ThemeID         string
	Difficulty      Difficulty
}

// ReviewResult describes the outcome of one persisted review.
type ReviewResult struct {
	Item         Item
	Correct      bool
	IntervalDays int
}

// Service persists items and applies review outcomes. Read-modify-write
// sequences for one learner are serialized through the shared lock.
type Service struct {
	repo  store.ItemRepo
	locks *store.KeyedMutex
	log   logrus.FieldLogger
}

// NewService creates a review scheduler service.
func NewService(repo store.ItemRepo, locks *store.KeyedMutex, log logrus.FieldLogger) *Service {
	if locks == nil {
		locks = store.NewKeyedMutex()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{repo: repo, locks: locks, log: log}
}

// Add saves a new item, due immediately. A second item with the same
// source term (ignoring case) is rejected with ErrDuplicateItem.
func (s *Service) Add(ctx context.Context, in NewItem, now time.Time) (*Item, error) {
	source := strings.TrimSpace(in.SourceTerm)
	target := strings.TrimSpace(in.TargetTerm)
	if in.LearnerID == "" || source == "" || target == "" {
		return nil, fmt.Errorf("%w: learner, source and target are required", ErrInvalidItem)
	}
	difficulty, err := ParseDifficulty(string(in.Difficulty))
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(in.LearnerID)
	defer unlock()

	norm := NormalizeTerm(source)
	_, err = s.repo.FindItemByTerm(ctx, in.LearnerID, norm)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %q", ErrDuplicateItem, source)
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("check duplicate: %w", err)
	}

	now = now.UTC()
	item := Item{
		ID:              uuid.NewString(),
		LearnerID:       in.LearnerID,
		SourceTerm:      source,
		TargetTerm:      target,
		ContextSentence: strings.TrimSpace(in.ContextSentence),
		ThemeID:         in.ThemeID,
		Difficulty:      difficulty,
		NextReviewAt:    now,
		CreatedAt:       now,
	}
	if err := s.repo.CreateItem(ctx, toRecord(item, now)); err != nil {
		return nil, fmt.Errorf("save item: %w", err)
	}

	s.log.WithFields(logrus.Fields{"learner": in.LearnerID, "item": item.ID}).Debug("item added")
	return &item, nil
}

// Review records one outcome for an item and persists the new schedule.
func (s *Service) Review(ctx context.Context, learnerID, itemID string, correct bool, now time.Time) (*ReviewResult, error) {
	unlock := s.locks.Lock(learnerID)
	defer unlock()

	rec, err := s.repo.GetItem(ctx, learnerID, itemID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	now = now.UTC()
	updated, err := Review(fromRecord(*rec), correct, now)
	if err != nil {
		return nil, fmt.Errorf("review %s: %w", itemID, err)
	}
	if err := s.repo.UpdateItem(ctx, toRecord(updated, now)); err != nil {
		return nil, mapNotFound(err)
	}

	interval := IntervalDays(updated.TimesCorrect, correct)
	s.log.WithFields(logrus.Fields{
		"learner":  learnerID,
		"item":     itemID,
		"correct":  correct,
		"interval": interval,
	}).Info("review recorded")

	return &ReviewResult{Item: updated, Correct: correct, IntervalDays: interval}, nil
}

// Get returns a single item.
func (s *Service) Get(ctx context.Context, learnerID, itemID string) (*Item, error) {
	rec, err := s.repo.GetItem(ctx, learnerID, itemID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	item := fromRecord(*rec)
	return &item, nil
}

// List returns all of the learner's items, oldest first.
func (s *Service) List(ctx context.Context, learnerID string) ([]Item, error) {
	recs, err := s.repo.ListItems(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	items := make([]Item, len(recs))
	for i, r := range recs {
		items[i] = fromRecord(r)
	}
	return items, nil
}

// Due returns the learner's items due at now, oldest first.
func (s *Service) Due(ctx context.Context, learnerID string, now time.Time) ([]Item, error) {
	items, err := s.List(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	return DueItems(items, now), nil
}

// Remove deletes an item on explicit learner request.
func (s *Service) Remove(ctx context.Context, learnerID, itemID string) error {
	unlock := s.locks.Lock(learnerID)
	defer unlock()

	if err := s.repo.DeleteItem(ctx, learnerID, itemID); err != nil {
		return mapNotFound(err)
	}
	s.log.WithFields(logrus.Fields{"learner": learnerID, "item": itemID}).Info("item removed")
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrItemNotFound, err)
	}
	return err
}

func toRecord(it Item, updatedAt time.Time) *store.ItemRecord {
	return &store.ItemRecord{
		ID:              it.ID,
		LearnerID:       it.LearnerID,
		SourceTerm:      it.SourceTerm,
		NormalizedTerm:  NormalizeTerm(it.SourceTerm),
		TargetTerm:      it.TargetTerm,
		ContextSentence: it.ContextSentence,
		ThemeID:         it.ThemeID,
		Difficulty:      string(it.Difficulty),
		TimesReviewed:   it.TimesReviewed,
		TimesCorrect:    it.TimesCorrect,
		NextReviewAt:    it.NextReviewAt.UTC(),
		CreatedAt:       it.CreatedAt.UTC(),
		UpdatedAt:       updatedAt.UTC(),
	}
}

func fromRecord(r store.ItemRecord) Item {
	return Item{
		ID:              r.ID,
		LearnerID:       r.LearnerID,
		SourceTerm:      r.SourceTerm,
		TargetTerm:      r.TargetTerm,
		ContextSentence: r.ContextSentence,
		ThemeID:         r.ThemeID,
		Difficulty:      Difficulty(r.Difficulty),
		TimesReviewed:   r.TimesReviewed,
		TimesCorrect:    r.TimesCorrect,
		NextReviewAt:    r.NextReviewAt,
		CreatedAt:       r.CreatedAt,
	}
}
