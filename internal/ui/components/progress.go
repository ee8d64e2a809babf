package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/sprachiz/internal/ui/theme"
)

const (
	barFilled = "█"
	barEmpty  = "░"
)

// ProgressBar shows how many of Total steps are done, e.g. lesson stages or
// flashcards in a review round.
type ProgressBar struct {
	Label string
	Done  int
	Total int
	// ShowCount appends "done/total" after the bar.
	ShowCount bool
	Width     int
}

// NewProgressBar creates a progress bar over total steps.
func NewProgressBar(label string, done, total int, showCount bool, width int) ProgressBar {
	return ProgressBar{Label: label, Done: done, Total: total, ShowCount: showCount, Width: width}
}

// Fraction returns the completed share in [0, 1]. An empty bar is 0.
func (p ProgressBar) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return min(max(float64(p.Done)/float64(p.Total), 0), 1)
}

// View renders the bar. Completed bars switch to the success color.
func (p ProgressBar) View() string {
	var b strings.Builder
	if p.Label != "" {
		b.WriteString(theme.Body.Render(p.Label))
		b.WriteString("  ")
	}

	suffix := ""
	if p.ShowCount {
		suffix = fmt.Sprintf("  %d/%d", min(max(p.Done, 0), p.Total), p.Total)
	}

	cells := max(p.Width-lipgloss.Width(b.String())-lipgloss.Width(suffix), 4)
	filled := int(float64(cells) * p.Fraction())

	color := theme.Accent
	if p.Total > 0 && p.Done >= p.Total {
		color = theme.Success
	}
	b.WriteString(lipgloss.NewStyle().Foreground(color).Render(strings.Repeat(barFilled, filled)))
	b.WriteString(theme.StageLocked.Render(strings.Repeat(barEmpty, cells-filled)))
	if suffix != "" {
		b.WriteString(theme.Subtitle.Render(suffix))
	}
	return b.String()
}
