package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/abhisek/sprachiz/internal/difficulty"
	"github.com/abhisek/sprachiz/internal/store"
)

// Service manages learner profiles and conversation history.
type Service struct {
	profiles      store.ProfileRepo
	conversations store.ConversationRepo
	items         store.ItemRepo
	locks         *store.KeyedMutex
	log           logrus.FieldLogger
}

// NewService creates a profile service.
func NewService(profiles store.ProfileRepo, conversations store.ConversationRepo, items store.ItemRepo, locks *store.KeyedMutex, log logrus.FieldLogger) *Service {
	if locks == nil {
		locks = store.NewKeyedMutex()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		profiles:      profiles,
		conversations: conversations,
		items:         items,
		locks:         locks,
		log:           log,
	}
}

// Get returns the learner's profile or ErrProfileNotFound.
func (s *Service) Get(ctx context.Context, learnerID string) (*Profile, error) {
	rec, err := s.profiles.GetProfile(ctx, learnerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, learnerID)
	}
	if err != nil {
		return nil, err
	}
	return fromRecord(*rec), nil
}

// Ensure returns the learner's profile, creating an A1 / auto profile on
// first use.
func (s *Service) Ensure(ctx context.Context, learnerID string, now time.Time) (*Profile, error) {
	if learnerID == "" {
		return nil, errors.New("empty learner id")
	}
	unlock := s.locks.Lock(learnerID)
	defer unlock()

	p, err := s.Get(ctx, learnerID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	now = now.UTC()
	p = &Profile{
		LearnerID:  learnerID,
		Level:      difficulty.LevelA1,
		Preference: difficulty.PreferenceAuto,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.profiles.SaveProfile(ctx, toRecord(p)); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	s.log.WithField("learner", learnerID).Info("profile created")
	return p, nil
}

// SetLevel changes the learner's CEFR level.
func (s *Service) SetLevel(ctx context.Context, learnerID string, level difficulty.Level, now time.Time) (*Profile, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("%w: level %q", difficulty.ErrInvalidInput, level)
	}
	return s.update(ctx, learnerID, now, func(p *Profile) error {
		p.Level = level
		return nil
	})
}

// SetPreference changes the learner's complexity preference.
func (s *Service) SetPreference(ctx context.Context, learnerID string, pref difficulty.Preference, now time.Time) (*Profile, error) {
	if !pref.Valid() {
		return nil, fmt.Errorf("%w: preference %q", difficulty.ErrInvalidInput, pref)
	}
	return s.update(ctx, learnerID, now, func(p *Profile) error {
		p.Preference = pref
		return nil
	})
}

// SetDisplayName changes the name used in reminders.
func (s *Service) SetDisplayName(ctx context.Context, learnerID, name string, now time.Time) (*Profile, error) {
	return s.update(ctx, learnerID, now, func(p *Profile) error {
		p.DisplayName = name
		return nil
	})
}

// LinkTelegram stores the chat that receives review reminders. Zero unlinks.
func (s *Service) LinkTelegram(ctx context.Context, learnerID string, chatID int64, now time.Time) (*Profile, error) {
	return s.update(ctx, learnerID, now, func(p *Profile) error {
		p.TelegramChatID = chatID
		return nil
	})
}

// AddXP credits experience points to the profile.
func (s *Service) AddXP(ctx context.Context, learnerID string, xp int, now time.Time) (*Profile, error) {
	if xp < 0 {
		return nil, fmt.Errorf("%w: negative xp", ErrInvalidConversation)
	}
	return s.update(ctx, learnerID, now, func(p *Profile) error {
		p.TotalXP += xp
		return nil
	})
}

// RefreshVocabularySize recounts the learner's items.
func (s *Service) RefreshVocabularySize(ctx context.Context, learnerID string, now time.Time) (*Profile, error) {
	return s.update(ctx, learnerID, now, func(p *Profile) error {
		n, err := s.items.CountItems(ctx, learnerID)
		if err != nil {
			return fmt.Errorf("count items: %w", err)
		}
		p.VocabularySize = n
		return nil
	})
}

// RecordConversation stores a finished conversation, credits its XP and
// recomputes the rolling accuracy over the last RollingWindow conversations.
// The history row and the profile change are written together or not at all.
func (s *Service) RecordConversation(ctx context.Context, c Conversation, now time.Time) (*Profile, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	now = now.UTC()
	unlock := s.locks.Lock(c.LearnerID)
	defer unlock()

	p, err := s.Get(ctx, c.LearnerID)
	if err != nil {
		return nil, err
	}

	rec := &store.ConversationRecord{
		ID:              uuid.NewString(),
		LearnerID:       c.LearnerID,
		ThemeID:         c.ThemeID,
		Messages:        c.Messages,
		CorrectMessages: c.CorrectMessages,
		Accuracy:        c.Accuracy(),
		DurationSeconds: int(c.Duration / time.Second),
		XP:              c.XP,
		CreatedAt:       now,
	}
	updated := *p
	err = s.conversations.RecordConversation(ctx, rec, RollingWindow, func(recent []store.ConversationRecord) (*store.ProfileRecord, error) {
		updated.RollingAccuracy = RollingAccuracy(lo.Map(recent, func(r store.ConversationRecord, _ int) float64 {
			return r.Accuracy
		}))
		updated.TotalXP += c.XP
		updated.UpdatedAt = now
		return toRecord(&updated), nil
	})
	if err != nil {
		return nil, fmt.Errorf("record conversation: %w", err)
	}
	return &updated, nil
}

// ThemeProgress aggregates the learner's conversations by theme.
func (s *Service) ThemeProgress(ctx context.Context, learnerID string) ([]ThemeProgress, error) {
	stats, err := s.conversations.ThemeStats(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	return lo.Map(stats, func(st store.ThemeStats, _ int) ThemeProgress {
		return ThemeProgress{
			ThemeID:         st.ThemeID,
			Conversations:   st.Conversations,
			TotalMessages:   st.TotalMessages,
			CorrectMessages: st.CorrectMessages,
			TotalTime:       time.Duration(st.TotalSeconds) * time.Second,
		}
	}), nil
}

// Learners returns every profile, ordered by learner ID.
func (s *Service) Learners(ctx context.Context) ([]Profile, error) {
	recs, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(recs, func(r store.ProfileRecord, _ int) Profile {
		return *fromRecord(r)
	}), nil
}

// update runs fn against the current profile under the learner lock and
// persists the result.
func (s *Service) update(ctx context.Context, learnerID string, now time.Time, fn func(*Profile) error) (*Profile, error) {
	unlock := s.locks.Lock(learnerID)
	defer unlock()

	p, err := s.Get(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = now.UTC()
	if err := s.profiles.SaveProfile(ctx, toRecord(p)); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

func toRecord(p *Profile) *store.ProfileRecord {
	return &store.ProfileRecord{
		LearnerID:       p.LearnerID,
		DisplayName:     p.DisplayName,
		Level:           string(p.Level),
		RollingAccuracy: p.RollingAccuracy,
		VocabularySize:  p.VocabularySize,
		Preference:      string(p.Preference),
		TotalXP:         p.TotalXP,
		TelegramChatID:  p.TelegramChatID,
		CreatedAt:       p.CreatedAt.UTC(),
		UpdatedAt:       p.UpdatedAt.UTC(),
	}
}

func fromRecord(r store.ProfileRecord) *Profile {
	return &Profile{
		LearnerID:       r.LearnerID,
		DisplayName:     r.DisplayName,
		Level:           difficulty.Level(r.Level),
		RollingAccuracy: r.RollingAccuracy,
		VocabularySize:  r.VocabularySize,
		Preference:      difficulty.Preference(r.Preference),
		TotalXP:         r.TotalXP,
		TelegramChatID:  r.TelegramChatID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
