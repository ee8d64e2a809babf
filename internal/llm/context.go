package llm

import "context"

type contextKey int

const (
	purposeKey contextKey = iota
	learnerKey
)

// Purpose labels recorded with every request event.
const (
	PurposeReflection   = "lesson-reflection"
	PurposeProviderTest = "provider-test"
)

// DialoguePurpose labels a tutor turn in the given dialogue mode, e.g.
// "dialogue-guided".
func DialoguePurpose(mode string) string {
	return "dialogue-" + mode
}

// WithPurpose attaches a purpose label to the context for event logging.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}

// WithLearner tags requests made under ctx with the learner they serve.
func WithLearner(ctx context.Context, learnerID string) context.Context {
	return context.WithValue(ctx, learnerKey, learnerID)
}

// LearnerFrom returns the learner tag, or "" outside a learner session.
func LearnerFrom(ctx context.Context) string {
	v, _ := ctx.Value(learnerKey).(string)
	return v
}
