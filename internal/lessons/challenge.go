package lessons

import (
	"fmt"
	"math"
)

const (
	// MinChallengeExchanges is the number of exchanges needed before the
	// challenge may be completed.
	MinChallengeExchanges = 3

	// MaxChallengeExchanges is a hard cap. Reaching it does not complete
	// the stage; the learner still has to finish it.
	MaxChallengeExchanges = 10

	// MaxExchangeQuality bounds the quality score of one exchange.
	MaxExchangeQuality = 10

	challengeQualityCap = 30
)

// Challenge tracks the free-form scenario conversation of the challenge
// stage.
type Challenge struct {
	exchanges int
	quality   int
}

// Exchanges returns the number of recorded exchanges.
func (c *Challenge) Exchanges() int { return c.exchanges }

// Remaining returns how many exchanges may still be recorded.
func (c *Challenge) Remaining() int { return MaxChallengeExchanges - c.exchanges }

// RecordExchange counts one learner/tutor exchange with the quality the
// tutor assigned to it.
func (c *Challenge) RecordExchange(quality int) error {
	if c.exchanges >= MaxChallengeExchanges {
		return ErrChallengeCapReached
	}
	if quality < 0 || quality > MaxExchangeQuality {
		return fmt.Errorf("%w: exchange quality %d", ErrInvalidScore, quality)
	}
	c.exchanges++
	c.quality += quality
	return nil
}

// CanComplete reports whether enough exchanges were recorded.
func (c *Challenge) CanComplete() bool {
	return c.exchanges >= MinChallengeExchanges
}

// Score is the challenge score in [0,100]: up to 100 for participation
// plus up to 30 for exchange quality.
func (c *Challenge) Score() int {
	base := math.Min(100, float64(c.exchanges)/MinChallengeExchanges*70)
	bonus := math.Min(challengeQualityCap, float64(c.quality))
	return min(100, int(math.Round(base+bonus)))
}

// Complete ends the challenge and returns its stage completion.
func (c *Challenge) Complete() (StageCompletion, error) {
	if !c.CanComplete() {
		return StageCompletion{}, fmt.Errorf("%w: %d of %d", ErrChallengeIncomplete, c.exchanges, MinChallengeExchanges)
	}
	return StageCompletion{Stage: StageChallenge, ChallengeScore: c.Score()}, nil
}

// ReplayChallenge scores a challenge from the qualities of its exchanges,
// applying the same exchange gate as a live session.
func ReplayChallenge(qualities []int) (StageCompletion, error) {
	var c Challenge
	for _, q := range qualities {
		if err := c.RecordExchange(q); err != nil {
			return StageCompletion{}, err
		}
	}
	return c.Complete()
}
