package mastery

// Label returns a human-readable tier name for CLI and TUI output.
func (t Tier) Label() string {
	switch t {
	case TierIntermediate:
		return "Intermediate"
	case TierAdvanced:
		return "Advanced"
	case TierMastered:
		return "Mastered"
	default:
		return "Beginner"
	}
}

// Icon returns a one-character marker for the tier.
func (t Tier) Icon() string {
	switch t {
	case TierIntermediate:
		return "◐"
	case TierAdvanced:
		return "◕"
	case TierMastered:
		return "★"
	default:
		return "○"
	}
}
