package components

import (
	"strings"

	"github.com/abhisek/sprachiz/internal/lessons"
	"github.com/abhisek/sprachiz/internal/ui/theme"
)

// StageTrack renders the five lesson stages of an attempt on one line:
// completed stages are checked, the current stage is highlighted, and
// stages beyond the frontier are shown as locked.
type StageTrack struct {
	Attempt *lessons.Attempt
}

// View renders the track.
func (t StageTrack) View() string {
	parts := make([]string, 0, lessons.NumStages)
	for _, s := range lessons.Stages {
		parts = append(parts, t.render(s))
	}
	return strings.Join(parts, theme.StageLocked.Render(" > "))
}

func (t StageTrack) render(s lessons.Stage) string {
	a := t.Attempt
	switch {
	case a == nil:
		return theme.StageLocked.Render("  " + s.Label())
	case a.CurrentStage == s && a.Status == lessons.StatusInProgress:
		mark := "> "
		if a.IsCompleted(s) {
			mark = "✓ "
		}
		return theme.StageCurrent.Render(mark + s.Label())
	case a.IsCompleted(s):
		return theme.StageDone.Render("✓ " + s.Label())
	case a.CanGoTo(s):
		return theme.Body.Render("  " + s.Label())
	default:
		return theme.StageLocked.Render("🔒 " + s.Label())
	}
}
