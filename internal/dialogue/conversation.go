package dialogue

import (
	"time"

	"github.com/abhisek/sprachiz/internal/profile"
)

// Conversation XP awards.
const (
	XPPerMessage = 5
	XPPerCorrect = 5
)

// Conversation tracks one running practice conversation.
type Conversation struct {
	Theme     Theme
	Mode      Mode
	History   []Turn
	Messages  int
	Correct   int
	StartedAt time.Time
}

// NewConversation starts a conversation at now.
func NewConversation(theme Theme, mode Mode, now time.Time) *Conversation {
	return &Conversation{Theme: theme, Mode: mode, StartedAt: now}
}

// Record appends an exchange. An utterance counts as correct when the
// tutor found no errors.
func (c *Conversation) Record(utterance string, reply *Reply) {
	c.History = append(c.History,
		Turn{Speaker: SpeakerLearner, Text: utterance},
		Turn{Speaker: SpeakerTutor, Text: reply.Text},
	)
	c.Messages++
	if !reply.HasErrors {
		c.Correct++
	}
}

// XP returns the XP earned so far.
func (c *Conversation) XP() int {
	return c.Messages*XPPerMessage + c.Correct*XPPerCorrect
}

// Outcome summarizes the conversation for the learner's profile.
func (c *Conversation) Outcome(learnerID string, now time.Time) profile.Conversation {
	return profile.Conversation{
		LearnerID:       learnerID,
		ThemeID:         c.Theme.ID,
		Messages:        c.Messages,
		CorrectMessages: c.Correct,
		Duration:        now.Sub(c.StartedAt),
		XP:              c.XP(),
	}
}
