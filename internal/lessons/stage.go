package lessons

import (
	"fmt"
	"strconv"
	"strings"
)

// Stage is one step of a lesson. Stages are numbered 1 through NumStages.
type Stage int

const (
	StageIntro Stage = iota + 1
	StageGuided
	StageFreePractice
	StageChallenge
	StageReflection
)

// NumStages is the number of stages in every lesson.
const NumStages = 5

// Stages lists all stages in order.
var Stages = []Stage{StageIntro, StageGuided, StageFreePractice, StageChallenge, StageReflection}

// Valid reports whether s is in 1..NumStages.
func (s Stage) Valid() bool {
	return s >= StageIntro && s <= StageReflection
}

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageIntro:
		return "intro"
	case StageGuided:
		return "guided"
	case StageFreePractice:
		return "free-practice"
	case StageChallenge:
		return "challenge"
	case StageReflection:
		return "reflection"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Label returns the stage name shown to learners.
func (s Stage) Label() string {
	switch s {
	case StageIntro:
		return "Introduction"
	case StageGuided:
		return "Guided Practice"
	case StageFreePractice:
		return "Free Practice"
	case StageChallenge:
		return "Challenge"
	case StageReflection:
		return "Reflection"
	default:
		return s.String()
	}
}

// ParseStage accepts a stage number (1-5) or a stage name such as
// "guided" or "free-practice".
func ParseStage(s string) (Stage, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if st := Stage(n); st.Valid() {
			return st, nil
		}
		return 0, fmt.Errorf("%w: %d", ErrInvalidStage, n)
	}
	for _, st := range Stages {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStage, s)
}

// Status is the lifecycle state of a lesson attempt.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusMastered   Status = "mastered"
)

// Rank orders statuses from not started (0) to mastered (3).
func (s Status) Rank() int {
	switch s {
	case StatusInProgress:
		return 1
	case StatusCompleted:
		return 2
	case StatusMastered:
		return 3
	default:
		return 0
	}
}

// ParseStatus converts a stored status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusMastered:
		return st, nil
	case "":
		return StatusNotStarted, nil
	default:
		return "", fmt.Errorf("unknown lesson status %q", s)
	}
}

// Finished reports whether the lesson reached completed or mastered.
func (s Status) Finished() bool {
	return s.Rank() >= StatusCompleted.Rank()
}
