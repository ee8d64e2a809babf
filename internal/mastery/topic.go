package mastery

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
)

// ErrInvalidTopic is returned for malformed topic records or arguments.
var ErrInvalidTopic = errors.New("invalid topic mastery")

// TopicMastery tracks correct and incorrect uses of one grammar topic.
type TopicMastery struct {
	LearnerID       string    `json:"learner_id"`
	Topic           string    `json:"topic"`
	CorrectUses     int       `json:"correct_uses"`
	IncorrectUses   int       `json:"incorrect_uses"`
	Tier            Tier      `json:"tier"`
	LastPracticedAt time.Time `json:"last_practiced_at"`
}

// Validate checks the counter invariants.
func (tm TopicMastery) Validate() error {
	if tm.Topic == "" {
		return fmt.Errorf("%w: empty topic", ErrInvalidTopic)
	}
	if tm.CorrectUses < 0 || tm.IncorrectUses < 0 {
		return fmt.Errorf("%w: negative counters for %q", ErrInvalidTopic, tm.Topic)
	}
	return nil
}

// Accuracy returns correct / (correct + incorrect), or 0 with no uses.
func (tm TopicMastery) Accuracy() float64 {
	total := tm.CorrectUses + tm.IncorrectUses
	if total == 0 {
		return 0
	}
	return float64(tm.CorrectUses) / float64(total)
}

// Record applies one judged use and re-derives the tier. It returns the
// updated copy and a transition when the tier changed.
func Record(tm TopicMastery, wasCorrect bool, now time.Time) (TopicMastery, *TierTransition, error) {
	if err := tm.Validate(); err != nil {
		return tm, nil, err
	}

	from := Classify(tm.CorrectUses, tm.IncorrectUses)
	if wasCorrect {
		tm.CorrectUses++
	} else {
		tm.IncorrectUses++
	}
	tm.Tier = Classify(tm.CorrectUses, tm.IncorrectUses)
	tm.LastPracticedAt = now

	if tm.Tier == from {
		return tm, nil, nil
	}
	return tm, &TierTransition{
		LearnerID: tm.LearnerID,
		Topic:     tm.Topic,
		From:      from,
		To:        tm.Tier,
	}, nil
}

// IsWeak reports whether the topic is a beginner topic the learner gets
// wrong more often than right.
func (tm TopicMastery) IsWeak() bool {
	return Classify(tm.CorrectUses, tm.IncorrectUses) == TierBeginner && tm.IncorrectUses > tm.CorrectUses
}

// WeakTopics returns the names of weak topics, preserving input order.
func WeakTopics(topics []TopicMastery) []string {
	return lo.FilterMap(topics, func(tm TopicMastery, _ int) (string, bool) {
		return tm.Topic, tm.IsWeak()
	})
}
