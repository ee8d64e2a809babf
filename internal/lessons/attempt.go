package lessons

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var (
	ErrInvalidStage        = errors.New("invalid stage")
	ErrStageLocked         = errors.New("stage locked")
	ErrNotStarted          = errors.New("lesson not started")
	ErrInvalidScore        = errors.New("invalid score")
	ErrAttemptNotFound     = errors.New("lesson attempt not found")
	ErrLessonNotFound      = errors.New("lesson not found")
	ErrInvalidAttempt      = errors.New("invalid lesson attempt")
	ErrChallengeCapReached = errors.New("challenge exchange limit reached")
	ErrChallengeIncomplete = errors.New("challenge needs more exchanges")
	ErrStageIncomplete     = errors.New("stage activity not finished")
)

const (
	// StageXP is awarded the first time a stage is completed in a pass.
	StageXP = 50

	// MasteredScore and CompletedScore are the inclusive lower bounds of
	// the finished statuses.
	MasteredScore  = 90
	CompletedScore = 70

	stageWeight     = 70
	challengeWeight = 30
)

// StageCompletion is the single event a stage activity emits when the
// learner finishes it. ChallengeScore is only read for StageChallenge.
type StageCompletion struct {
	Stage          Stage
	ChallengeScore int
}

// Attempt is one learner's progress through one lesson.
type Attempt struct {
	ID              string
	LearnerID       string
	LessonID        string
	Status          Status
	CurrentStage    Stage
	CompletedStages []Stage
	ChallengeScore  int
	Score           float64
	BestScore       float64
	Attempts        int
	XP              int
	CreditedXP      int
	StartedAt       time.Time
	LastAccessedAt  time.Time
	CompletedAt     time.Time
}

// Result is the outcome of finishing a lesson pass.
type Result struct {
	Score    float64
	Status   Status
	Previous Status
	// XPEarned is the stage XP not yet credited to the learner.
	XPEarned int
	Message  string

	first bool
}

// FirstCompletion reports whether this finish completed the lesson for the
// first time. Passes after a restart never count again.
func (r Result) FirstCompletion() bool {
	return r.first
}

// NewAttempt returns an unopened attempt positioned at the intro.
func NewAttempt(id, learnerID, lessonID string) *Attempt {
	return &Attempt{
		ID:           id,
		LearnerID:    learnerID,
		LessonID:     lessonID,
		Status:       StatusNotStarted,
		CurrentStage: StageIntro,
	}
}

// Validate checks the stored invariants of the attempt.
func (a *Attempt) Validate() error {
	if !a.CurrentStage.Valid() {
		return fmt.Errorf("%w: current stage %d", ErrInvalidStage, a.CurrentStage)
	}
	for _, s := range a.CompletedStages {
		if !s.Valid() {
			return fmt.Errorf("%w: completed stage %d", ErrInvalidStage, s)
		}
	}
	if a.ChallengeScore < 0 || a.ChallengeScore > 100 {
		return fmt.Errorf("%w: challenge score %d", ErrInvalidScore, a.ChallengeScore)
	}
	if a.Score < 0 || a.Score > 100 {
		return fmt.Errorf("%w: score %.1f", ErrInvalidScore, a.Score)
	}
	if a.Attempts < 0 || a.XP < 0 || a.CreditedXP < 0 || a.CreditedXP > a.XP {
		return fmt.Errorf("%w: negative counters", ErrInvalidAttempt)
	}
	return nil
}

// IsCompleted reports whether stage s was completed in the current pass.
func (a *Attempt) IsCompleted(s Stage) bool {
	return slices.Contains(a.CompletedStages, s)
}

// Frontier is the furthest stage the learner may open: the first stage not
// yet completed, or the reflection stage once every stage is done.
func (a *Attempt) Frontier() Stage {
	for _, s := range Stages {
		if !a.IsCompleted(s) {
			return s
		}
	}
	return StageReflection
}

// CanGoTo reports whether navigation to stage s is allowed.
func (a *Attempt) CanGoTo(s Stage) bool {
	if !s.Valid() {
		return false
	}
	return s <= a.Frontier() || a.IsCompleted(s)
}

// Start opens the attempt. The first start moves it to in_progress at the
// intro; later starts resume where the learner left off. Every start
// counts towards Attempts.
func (a *Attempt) Start(now time.Time) {
	if a.Status == StatusNotStarted {
		a.Status = StatusInProgress
		a.CurrentStage = StageIntro
		a.StartedAt = now
	}
	a.Attempts++
	a.LastAccessedAt = now
}

// Restart begins a fresh pass. Stage progress, scores and uncredited XP
// of the previous pass are discarded. BestScore, a finished status and
// CompletedAt are kept.
func (a *Attempt) Restart(now time.Time) {
	if !a.Status.Finished() {
		a.Status = StatusInProgress
	}
	a.CurrentStage = StageIntro
	a.CompletedStages = nil
	a.ChallengeScore = 0
	a.Score = 0
	a.XP = 0
	a.CreditedXP = 0
	if a.StartedAt.IsZero() {
		a.StartedAt = now
	}
	a.Attempts++
	a.LastAccessedAt = now
}

// Advance completes the current stage and moves to the next one. It returns
// the XP awarded, which is zero when the stage had already been completed.
func (a *Attempt) Advance(c StageCompletion, now time.Time) (int, error) {
	if !c.Stage.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidStage, c.Stage)
	}
	if a.Status == StatusNotStarted {
		return 0, ErrNotStarted
	}
	if c.Stage != a.CurrentStage {
		return 0, fmt.Errorf("%w: cannot complete %s while on %s", ErrStageLocked, c.Stage, a.CurrentStage)
	}
	if c.Stage == StageChallenge {
		if c.ChallengeScore < 0 || c.ChallengeScore > 100 {
			return 0, fmt.Errorf("%w: challenge score %d", ErrInvalidScore, c.ChallengeScore)
		}
		a.ChallengeScore = c.ChallengeScore
	}

	awarded := 0
	if !a.IsCompleted(c.Stage) {
		a.CompletedStages = append(a.CompletedStages, c.Stage)
		slices.Sort(a.CompletedStages)
		a.XP += StageXP
		awarded = StageXP
	}
	if c.Stage < StageReflection {
		a.CurrentStage = c.Stage + 1
	}
	a.LastAccessedAt = now
	return awarded, nil
}

// GoTo moves to a completed stage, the current stage or the frontier.
// Completion is never reset by navigation.
func (a *Attempt) GoTo(s Stage, now time.Time) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStage, s)
	}
	if a.Status == StatusNotStarted {
		return ErrNotStarted
	}
	if !a.CanGoTo(s) {
		return fmt.Errorf("%w: %s", ErrStageLocked, s)
	}
	a.CurrentStage = s
	a.LastAccessedAt = now
	return nil
}

// Finish scores the current pass. The status only ever moves up; a pass
// below CompletedScore leaves the lesson in progress and resumable.
func (a *Attempt) Finish(now time.Time) (Result, error) {
	if a.Status == StatusNotStarted {
		return Result{}, ErrNotStarted
	}

	score := AggregateScore(len(a.CompletedStages), a.ChallengeScore)
	res := Result{
		Score:    score,
		Previous: a.Status,
		XPEarned: a.XP - a.CreditedXP,
		Message:  ScoreMessage(score),
	}

	a.Score = score
	a.BestScore = max(a.BestScore, score)
	if next := ClassifyScore(score); next.Rank() > a.Status.Rank() {
		a.Status = next
	}
	if a.Status.Finished() && a.CompletedAt.IsZero() {
		a.CompletedAt = now
		res.first = true
	}
	a.CreditedXP = a.XP
	a.LastAccessedAt = now

	res.Status = a.Status
	return res, nil
}

// AggregateScore combines stage completion (70%) and the challenge score
// (30%) into a lesson score in [0,100].
func AggregateScore(completedStages, challengeScore int) float64 {
	return float64(completedStages*stageWeight)/NumStages +
		float64(challengeScore*challengeWeight)/100
}

// ClassifyScore maps a lesson score to the status it earns.
func ClassifyScore(score float64) Status {
	switch {
	case score >= MasteredScore:
		return StatusMastered
	case score >= CompletedScore:
		return StatusCompleted
	default:
		return StatusInProgress
	}
}

// ScoreMessage is the headline shown on the reflection screen.
func ScoreMessage(score float64) string {
	switch {
	case score >= 90:
		return "Outstanding Performance!"
	case score >= 75:
		return "Great Job!"
	case score >= 60:
		return "Well Done!"
	default:
		return "Keep Practicing!"
	}
}
