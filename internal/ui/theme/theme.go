package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#2563EB") // Blue
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F59E0B") // Amber, XP and streaks
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Label = lipgloss.NewStyle().
		Foreground(TextDim).
		Width(14)
)

// Card is the flashcard frame.
var Card = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Primary).
	Padding(1, 4).
	Align(lipgloss.Center)

// Judgments
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)

// Lesson stages
var (
	StageDone = lipgloss.NewStyle().
			Foreground(Success)

	StageCurrent = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	StageLocked = lipgloss.NewStyle().
			Foreground(TextDim)
)

// Status badges by lesson status or mastery tier.
var badges = map[string]lipgloss.Style{
	"mastered":     lipgloss.NewStyle().Foreground(Success).Bold(true),
	"completed":    lipgloss.NewStyle().Foreground(Secondary),
	"advanced":     lipgloss.NewStyle().Foreground(Secondary),
	"in_progress":  lipgloss.NewStyle().Foreground(Accent),
	"intermediate": lipgloss.NewStyle().Foreground(Accent),
}

// Badge renders a status or tier label in its color.
func Badge(label string) string {
	if s, ok := badges[label]; ok {
		return s.Render(label)
	}
	return StageLocked.Render(label)
}
