package lessons

import (
	"time"

	"github.com/samber/lo"
)

// Badge is an achievement awarded for finishing a lesson.
type Badge struct {
	ID          string
	Name        string
	Description string
}

var badges = map[string]Badge{
	"conversation_starter": {ID: "conversation_starter", Name: "Conversation Starter", Description: "Completed your first German greetings"},
	"barista_friend":       {ID: "barista_friend", Name: "Barista's Friend", Description: "Mastered café conversations"},
	"smart_shopper":        {ID: "smart_shopper", Name: "Smart Shopper", Description: "Navigates German supermarkets like a pro"},
	"time_traveler":        {ID: "time_traveler", Name: "Time Traveler", Description: "Master of daily routines"},
	"commuter_pro":         {ID: "commuter_pro", Name: "Commuter Pro", Description: "German public transport expert"},
	"hospitality_expert":   {ID: "hospitality_expert", Name: "Hospitality Expert", Description: "Hotel situations handled with ease"},
	"discussion_champion":  {ID: "discussion_champion", Name: "Discussion Champion", Description: "Expresses complex opinions confidently"},
}

// LookupBadge returns the badge with the given id.
func LookupBadge(id string) (Badge, bool) {
	b, ok := badges[id]
	return b, ok
}

// Achievement is a catalog badge and whether the learner has earned it.
type Achievement struct {
	Badge
	LessonID string
	EarnedAt time.Time
}

// Earned reports whether the badge has been awarded.
func (a Achievement) Earned() bool { return !a.EarnedAt.IsZero() }

// Achievements lists the badge of every lesson that carries one, in
// catalog order. A badge is earned when its lesson is first finished.
func (c *Catalog) Achievements(attempts []Attempt) []Achievement {
	byLesson := lo.KeyBy(attempts, func(a Attempt) string { return a.LessonID })

	var out []Achievement
	for _, l := range c.lessons {
		b, ok := badges[l.Badge]
		if !ok {
			continue
		}
		ach := Achievement{Badge: b, LessonID: l.ID}
		if a, ok := byLesson[l.ID]; ok && a.Status.Finished() {
			ach.EarnedAt = a.CompletedAt
		}
		out = append(out, ach)
	}
	return out
}
