package difficulty

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput is returned for unknown levels or preferences and for
// accuracy outside [0, 100].
var ErrInvalidInput = errors.New("invalid difficulty input")

// Auto-mode accuracy thresholds, in percent.
const (
	AdvanceThreshold = 85.0
	SupportThreshold = 70.0
)

var registers = map[Level]string{
	LevelA1: "beginner level (A1) - use simple present tense, basic vocabulary, short sentences",
	LevelA2: "elementary level (A2) - use present and past tense, common vocabulary, simple compound sentences",
	LevelB1: "intermediate level (B1) - use various tenses, more complex vocabulary, compound and complex sentences",
	LevelB2: "upper-intermediate level (B2) - use advanced grammar structures, idiomatic expressions, sophisticated vocabulary",
	LevelC1: "advanced level (C1) - use nuanced expressions, complex grammatical structures, abstract concepts",
	LevelC2: "mastery level (C2) - use native-like proficiency with subtle nuances and sophisticated discourse",
}

var preferencePhrases = map[Preference]string{
	PreferenceSimple:   "Keep responses simple and clear.",
	PreferenceModerate: "Use moderate complexity with some challenging elements.",
	PreferenceComplex:  "Use advanced and challenging language.",
}

const (
	advanceNudge = "The user is performing well, so gradually introduce more advanced concepts."
	supportNudge = "The user is struggling, so keep things simple and provide more support."
)

// Input is everything the controller reads from the learner's records.
type Input struct {
	Level           Level
	RollingAccuracy float64 // percent, 0-100
	Preference      Preference
	WeakTopics      []string
}

// Validate checks the enumerations and the accuracy range.
func (in Input) Validate() error {
	if !in.Level.Valid() {
		return fmt.Errorf("%w: level %q", ErrInvalidInput, in.Level)
	}
	if !in.Preference.Valid() {
		return fmt.Errorf("%w: preference %q", ErrInvalidInput, in.Preference)
	}
	if in.RollingAccuracy < 0 || in.RollingAccuracy > 100 || in.RollingAccuracy != in.RollingAccuracy {
		return fmt.Errorf("%w: accuracy %v outside [0, 100]", ErrInvalidInput, in.RollingAccuracy)
	}
	return nil
}

// Instructions composes the difficulty instructions for the dialogue
// collaborator: level register, then the complexity nudge, then the
// weak-topic focus. Identical input yields identical output.
func Instructions(in Input) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	parts := []string{fmt.Sprintf("The user is at %s.", registers[in.Level])}

	if nudge := complexityNudge(in.Preference, in.RollingAccuracy); nudge != "" {
		parts = append(parts, nudge)
	}

	if len(in.WeakTopics) > 0 {
		parts = append(parts, fmt.Sprintf("Focus on helping with these grammar topics: %s.", strings.Join(in.WeakTopics, ", ")))
	}

	return strings.Join(parts, " "), nil
}

// complexityNudge picks the sentence for the preference. Only auto looks
// at accuracy; explicit preferences always win.
func complexityNudge(p Preference, accuracy float64) string {
	if p != PreferenceAuto {
		return preferencePhrases[p]
	}
	switch {
	case accuracy >= AdvanceThreshold:
		return advanceNudge
	case accuracy < SupportThreshold:
		return supportNudge
	default:
		return ""
	}
}
