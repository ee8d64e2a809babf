package dialogue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/sprachiz/internal/difficulty"
	"github.com/abhisek/sprachiz/internal/lessons"
)

var (
	// ErrEmptyUtterance is returned when the learner said nothing.
	ErrEmptyUtterance = errors.New("empty utterance")

	// ErrInvalidMode is returned for an unknown dialogue mode.
	ErrInvalidMode = errors.New("invalid dialogue mode")

	// ErrMissingStep is returned for a guided request without a step.
	ErrMissingStep = errors.New("guided mode requires a step")
)

// Mode selects how the tutor responds.
type Mode string

const (
	// ModePractice is free conversation with corrections and tips.
	ModePractice Mode = "practice"
	// ModeGuided gives feedback on the current guided step.
	ModeGuided Mode = "guided"
	// ModeChallenge is an unscripted exchange that rates each answer.
	ModeChallenge Mode = "challenge"
)

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModePractice, ModeGuided, ModeChallenge:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Speaker identifies who said a turn.
type Speaker string

const (
	SpeakerLearner Speaker = "learner"
	SpeakerTutor   Speaker = "tutor"
)

// Turn is one message of the conversation so far.
type Turn struct {
	Speaker Speaker
	Text    string
}

// Request is one learner utterance with everything the tutor needs to
// answer it.
type Request struct {
	Mode  Mode
	Theme Theme
	Level difficulty.Level

	// Instructions is the difficulty controller output for this turn.
	Instructions string

	// Step is the current guided step; required in guided mode.
	Step *lessons.GuidedStep

	History   []Turn
	Utterance string
}

// Validate checks the mode, the utterance and the guided step.
func (r Request) Validate() error {
	if _, err := ParseMode(string(r.Mode)); err != nil {
		return err
	}
	if strings.TrimSpace(r.Utterance) == "" {
		return ErrEmptyUtterance
	}
	if r.Mode == ModeGuided && r.Step == nil {
		return ErrMissingStep
	}
	return nil
}

// CorrectionKind classifies a correction.
type CorrectionKind string

const (
	KindGrammar       CorrectionKind = "grammar"
	KindVocabulary    CorrectionKind = "vocabulary"
	KindPronunciation CorrectionKind = "pronunciation"
	KindCultural      CorrectionKind = "cultural"
)

// Correction is one mistake or improvement in the learner's utterance.
type Correction struct {
	Kind        CorrectionKind `json:"type"`
	Text        string         `json:"text"`
	Explanation string         `json:"explanation"`
	Example     string         `json:"example"`
	// Topic is the grammar topic the mistake belongs to, if any.
	Topic string `json:"grammar_topic"`
}

// Tip is a suggestion related to the current conversation.
type Tip struct {
	Kind    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
	German  string `json:"german"`
	English string `json:"english"`
}

// Reply is the tutor's answer to one utterance.
type Reply struct {
	Text        string
	Corrections []Correction
	HasErrors   bool
	Praise      string
	Tips        []Tip

	// Topics are the grammar topics the utterance exercised.
	Topics []string

	// Feedback is set in guided mode.
	Feedback string

	// Quality rates the utterance 0-10 in challenge mode.
	Quality int
}
