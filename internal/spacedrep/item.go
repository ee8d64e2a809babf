package spacedrep

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidItem is returned for items whose counters violate
	// 0 <= TimesCorrect <= TimesReviewed, or whose fields are malformed.
	ErrInvalidItem = errors.New("invalid item")

	// ErrItemNotFound is returned when an item does not exist for the learner.
	ErrItemNotFound = errors.New("item not found")

	// ErrDuplicateItem is returned when the learner already has an item
	// with the same source term, compared case-insensitively.
	ErrDuplicateItem = errors.New("duplicate item")
)

// Difficulty is the author-assigned difficulty of an item.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// ParseDifficulty validates a difficulty label. Empty means beginner.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DifficultyBeginner, nil
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return d, nil
	default:
		return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalidItem, s)
	}
}

// Item is one learnable vocabulary item with its review state.
type Item struct {
	ID              string     `json:"id"`
	LearnerID       string     `json:"learner_id"`
	SourceTerm      string     `json:"source_term"`
	TargetTerm      string     `json:"target_term"`
	ContextSentence string     `json:"context_sentence,omitempty"`
	ThemeID         string     `json:"theme_id,omitempty"`
	Difficulty      Difficulty `json:"difficulty"`
	TimesReviewed   int        `json:"times_reviewed"`
	TimesCorrect    int        `json:"times_correct"`
	NextReviewAt    time.Time  `json:"next_review_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Validate checks the counter invariants.
func (it Item) Validate() error {
	if it.TimesReviewed < 0 || it.TimesCorrect < 0 {
		return fmt.Errorf("%w: negative counters (reviewed=%d, correct=%d)", ErrInvalidItem, it.TimesReviewed, it.TimesCorrect)
	}
	if it.TimesCorrect > it.TimesReviewed {
		return fmt.Errorf("%w: correct %d exceeds reviewed %d", ErrInvalidItem, it.TimesCorrect, it.TimesReviewed)
	}
	return nil
}

// IsDue returns true if the item is due for review (at or past the review date).
func (it Item) IsDue(now time.Time) bool {
	return !now.Before(it.NextReviewAt)
}

// OverdueDays returns how many days past due the item is. Returns 0 if not yet due.
func (it Item) OverdueDays(now time.Time) float64 {
	if now.Before(it.NextReviewAt) {
		return 0
	}
	return now.Sub(it.NextReviewAt).Hours() / 24.0
}

// DaysUntilReview returns the number of days until the next review.
// Returns 0 if already due.
func (it Item) DaysUntilReview(now time.Time) int {
	if it.IsDue(now) {
		return 0
	}
	return int(it.NextReviewAt.Sub(now).Hours()/24.0) + 1
}

// Accuracy returns the share of correct reviews in [0, 1].
func (it Item) Accuracy() float64 {
	if it.TimesReviewed == 0 {
		return 0
	}
	return float64(it.TimesCorrect) / float64(it.TimesReviewed)
}

// NormalizeTerm is the key used for duplicate detection.
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}
