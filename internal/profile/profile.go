package profile

import (
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/sprachiz/internal/difficulty"
)

var (
	// ErrProfileNotFound is returned when the learner has no profile yet.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrInvalidConversation is returned for malformed conversation outcomes.
	ErrInvalidConversation = errors.New("invalid conversation")
)

// RollingWindow is the number of most recent conversations averaged into
// the rolling accuracy.
const RollingWindow = 20

// Profile is the learner's persisted profile.
type Profile struct {
	LearnerID       string                `json:"learner_id"`
	DisplayName     string                `json:"display_name,omitempty"`
	Level           difficulty.Level      `json:"level"`
	RollingAccuracy float64               `json:"rolling_accuracy"`
	VocabularySize  int                   `json:"vocabulary_size"`
	Preference      difficulty.Preference `json:"preference"`
	TotalXP         int                   `json:"total_xp"`
	TelegramChatID  int64                 `json:"telegram_chat_id,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// DifficultyInput assembles the controller input from the profile and the
// learner's weak topics.
func (p *Profile) DifficultyInput(weakTopics []string) difficulty.Input {
	return difficulty.Input{
		Level:           p.Level,
		RollingAccuracy: p.RollingAccuracy,
		Preference:      p.Preference,
		WeakTopics:      weakTopics,
	}
}

// Conversation is the outcome of one finished conversation.
type Conversation struct {
	LearnerID       string
	ThemeID         string
	Messages        int
	CorrectMessages int
	Duration        time.Duration
	XP              int
}

// Validate checks message counts.
func (c Conversation) Validate() error {
	if c.LearnerID == "" {
		return fmt.Errorf("%w: learner is required", ErrInvalidConversation)
	}
	if c.Messages <= 0 {
		return fmt.Errorf("%w: at least one message is required", ErrInvalidConversation)
	}
	if c.CorrectMessages < 0 || c.CorrectMessages > c.Messages {
		return fmt.Errorf("%w: correct messages %d outside [0, %d]", ErrInvalidConversation, c.CorrectMessages, c.Messages)
	}
	if c.XP < 0 || c.Duration < 0 {
		return fmt.Errorf("%w: negative xp or duration", ErrInvalidConversation)
	}
	return nil
}

// Accuracy returns the share of correct messages in percent.
func (c Conversation) Accuracy() float64 {
	if c.Messages == 0 {
		return 0
	}
	return float64(c.CorrectMessages) * 100 / float64(c.Messages)
}

// ThemeProgress aggregates conversations for one theme.
type ThemeProgress struct {
	ThemeID         string
	Conversations   int
	TotalMessages   int
	CorrectMessages int
	TotalTime       time.Duration
}

// Accuracy returns the theme's share of correct messages in percent.
func (tp ThemeProgress) Accuracy() float64 {
	if tp.TotalMessages == 0 {
		return 0
	}
	return float64(tp.CorrectMessages) * 100 / float64(tp.TotalMessages)
}

// RollingAccuracy averages per-conversation accuracies.
func RollingAccuracy(accuracies []float64) float64 {
	if len(accuracies) == 0 {
		return 0
	}
	var sum float64
	for _, a := range accuracies {
		sum += a
	}
	return sum / float64(len(accuracies))
}
