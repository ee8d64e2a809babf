package lessons

import (
	"strings"
)

// GuidedStep is one scripted turn of the guided stage.
type GuidedStep struct {
	ID              int      `yaml:"id"`
	AIMessage       string   `yaml:"ai_message"`
	Prompt          string   `yaml:"prompt"`
	Hints           []string `yaml:"hints"`
	ExpectedPhrases []string `yaml:"expected_phrases"`
}

// Matches reports whether the utterance contains any expected phrase,
// ignoring case. A step without expected phrases accepts any utterance.
func (g GuidedStep) Matches(utterance string) bool {
	if len(g.ExpectedPhrases) == 0 {
		return strings.TrimSpace(utterance) != ""
	}
	u := strings.ToLower(utterance)
	for _, p := range g.ExpectedPhrases {
		if strings.Contains(u, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// Guided walks a learner through a lesson's guided steps in order.
type Guided struct {
	steps   []GuidedStep
	current int
	misses  int
}

// NewGuided starts a guided session over steps.
func NewGuided(steps []GuidedStep) *Guided {
	return &Guided{steps: steps}
}

// Step returns the step awaiting an answer, or false when all are matched.
func (g *Guided) Step() (GuidedStep, bool) {
	if g.Done() {
		return GuidedStep{}, false
	}
	return g.steps[g.current], true
}

// Position returns the 1-based index of the current step and the total.
func (g *Guided) Position() (int, int) {
	return min(g.current+1, len(g.steps)), len(g.steps)
}

// Answer checks the utterance against the current step. On a match the
// session moves to the next step. On a miss it returns the next hint, if
// any.
func (g *Guided) Answer(utterance string) (matched bool, hint string) {
	step, ok := g.Step()
	if !ok {
		return false, ""
	}
	if step.Matches(utterance) {
		g.current++
		g.misses = 0
		return true, ""
	}
	if len(step.Hints) > 0 {
		hint = step.Hints[g.misses%len(step.Hints)]
	}
	g.misses++
	return false, hint
}

// Done reports whether every step was matched.
func (g *Guided) Done() bool {
	return g.current >= len(g.steps)
}

// Complete returns the stage completion once every step was matched.
func (g *Guided) Complete() (StageCompletion, error) {
	if !g.Done() {
		return StageCompletion{}, ErrStageIncomplete
	}
	return StageCompletion{Stage: StageGuided}, nil
}
