package mastery

// Tier is a topic's derived mastery tier.
type Tier string

const (
	TierBeginner     Tier = "beginner"
	TierIntermediate Tier = "intermediate"
	TierAdvanced     Tier = "advanced"
	TierMastered     Tier = "mastered"
)

// Rank orders tiers from beginner (0) to mastered (3). Unknown tiers rank -1.
func (t Tier) Rank() int {
	switch t {
	case TierBeginner:
		return 0
	case TierIntermediate:
		return 1
	case TierAdvanced:
		return 2
	case TierMastered:
		return 3
	default:
		return -1
	}
}

// tierRule is one threshold row; rules are checked highest tier first.
type tierRule struct {
	tier       Tier
	minCorrect int
	// accuracy >= num/den, compared with integers so boundaries are exact.
	num, den int
}

var tierRules = []tierRule{
	{TierMastered, 20, 9, 10},
	{TierAdvanced, 10, 8, 10},
	{TierIntermediate, 5, 7, 10},
}

// Classify derives the tier from the usage counters. No uses is beginner.
func Classify(correct, incorrect int) Tier {
	total := correct + incorrect
	if total <= 0 {
		return TierBeginner
	}
	for _, r := range tierRules {
		if correct >= r.minCorrect && correct*r.den >= r.num*total {
			return r.tier
		}
	}
	return TierBeginner
}

// TierTransition records a tier change for display and event logging.
type TierTransition struct {
	LearnerID string
	Topic     string
	From      Tier
	To        Tier
}

// Promoted reports whether the transition moved the topic up.
func (t TierTransition) Promoted() bool {
	return t.To.Rank() > t.From.Rank()
}
