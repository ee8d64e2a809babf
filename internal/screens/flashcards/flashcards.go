// Package flashcards is the terminal screen for reviewing due vocabulary.
package flashcards

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/sprachiz/internal/router"
	"github.com/abhisek/sprachiz/internal/spacedrep"
	"github.com/abhisek/sprachiz/internal/ui/components"
	"github.com/abhisek/sprachiz/internal/ui/layout"
	"github.com/abhisek/sprachiz/internal/ui/theme"
)

// Reviewer loads due items and persists review outcomes.
type Reviewer interface {
	Due(ctx context.Context, learnerID string, now time.Time) ([]spacedrep.Item, error)
	Review(ctx context.Context, learnerID, itemID string, correct bool, now time.Time) (*spacedrep.ReviewResult, error)
}

type dueLoadedMsg struct {
	items []spacedrep.Item
	err   error
}

type reviewedMsg struct {
	result *spacedrep.ReviewResult
	err    error
}

// Screen walks through the learner's due items one card at a time.
type Screen struct {
	ctx       context.Context
	reviewer  Reviewer
	learnerID string
	now       func() time.Time

	items   []spacedrep.Item
	index   int
	flipped bool
	loading bool
	busy    bool
	last    *spacedrep.ReviewResult
	correct int
	err     error
}

var _ router.Screen = (*Screen)(nil)
var _ router.KeyHintProvider = (*Screen)(nil)

// New creates a flashcard screen for one learner.
func New(ctx context.Context, reviewer Reviewer, learnerID string) *Screen {
	return &Screen{
		ctx:       ctx,
		reviewer:  reviewer,
		learnerID: learnerID,
		now:       time.Now,
		loading:   true,
	}
}

func (s *Screen) Init() tea.Cmd {
	now := s.now()
	return func() tea.Msg {
		items, err := s.reviewer.Due(s.ctx, s.learnerID, now)
		return dueLoadedMsg{items: items, err: err}
	}
}

func (s *Screen) Title() string {
	return "Flashcards"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch {
	case s.done():
		return []layout.KeyHint{{Key: "q", Description: "Quit"}}
	case !s.flipped:
		return []layout.KeyHint{
			{Key: "Space", Description: "Flip"},
			{Key: "q", Description: "Quit"},
		}
	default:
		return []layout.KeyHint{
			{Key: "y", Description: "Knew it"},
			{Key: "n", Description: "Missed it"},
			{Key: "q", Description: "Quit"},
		}
	}
}

// Reviewed returns how many cards have been answered.
func (s *Screen) Reviewed() int {
	return s.index
}

// Correct returns how many answered cards were marked as known.
func (s *Screen) Correct() int {
	return s.correct
}

func (s *Screen) done() bool {
	return !s.loading && s.index >= len(s.items)
}

func (s *Screen) current() *spacedrep.Item {
	if s.loading || s.index >= len(s.items) {
		return nil
	}
	return &s.items[s.index]
}

func (s *Screen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case dueLoadedMsg:
		s.loading = false
		s.items = msg.items
		s.err = msg.err
		return s, nil

	case reviewedMsg:
		s.busy = false
		if msg.err != nil {
			s.err = msg.err
			return s, nil
		}
		s.last = msg.result
		if msg.result.Correct {
			s.correct++
		}
		s.index++
		s.flipped = false
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg.String())
	}
	return s, nil
}

func (s *Screen) handleKey(key string) (router.Screen, tea.Cmd) {
	if key == "q" || key == "esc" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}

	item := s.current()
	if item == nil || s.busy {
		return s, nil
	}

	switch key {
	case "space", "enter":
		s.flipped = !s.flipped
	case "y", "n":
		if !s.flipped {
			return s, nil
		}
		s.busy = true
		s.err = nil
		return s, s.review(item.ID, key == "y")
	}
	return s, nil
}

func (s *Screen) review(itemID string, correct bool) tea.Cmd {
	now := s.now()
	return func() tea.Msg {
		res, err := s.reviewer.Review(s.ctx, s.learnerID, itemID, correct, now)
		return reviewedMsg{result: res, err: err}
	}
}

func (s *Screen) View(width, height int) string {
	var b strings.Builder

	switch {
	case s.loading:
		b.WriteString(theme.Hint.Render("Loading due words..."))
	case len(s.items) == 0 && s.err != nil:
		b.WriteString(theme.Title.Render("Could not load due words."))
	case len(s.items) == 0:
		b.WriteString(theme.Title.Render("Nothing is due."))
		b.WriteString("\n\n")
		b.WriteString(theme.Subtitle.Render("Add words with `sprachiz vocab add` or come back later."))
	case s.done():
		b.WriteString(s.summaryView())
	default:
		b.WriteString(s.cardView(width))
	}

	if s.err != nil {
		b.WriteString("\n\n")
		b.WriteString(theme.Incorrect.Render("Error: " + s.err.Error()))
	}
	return layout.Center(b.String(), width, height)
}

func (s *Screen) cardView(width int) string {
	item := s.current()
	var b strings.Builder

	bar := components.NewProgressBar(
		fmt.Sprintf("Card %d/%d", s.index+1, len(s.items)),
		s.index, len(s.items), false, min(width-4, 50))
	b.WriteString(bar.View())
	b.WriteString("\n\n")

	var card string
	if !s.flipped {
		card = theme.Title.Render(item.TargetTerm)
	} else {
		card = theme.Title.Render(item.TargetTerm) + "\n\n" + theme.Body.Render(item.SourceTerm)
		if item.ContextSentence != "" {
			card += "\n\n" + theme.Hint.Render(item.ContextSentence)
		}
	}
	b.WriteString(theme.Card.Width(min(width-4, 50)).Render(card))

	if s.last != nil {
		b.WriteString("\n\n")
		b.WriteString(lastView(s.last))
	}
	return b.String()
}

func lastView(r *spacedrep.ReviewResult) string {
	next := fmt.Sprintf("next review in %d %s", r.IntervalDays, plural(r.IntervalDays, "day", "days"))
	if r.Correct {
		return theme.Correct.Render(r.Item.TargetTerm+" ✓") + "  " + theme.Subtitle.Render(next)
	}
	return theme.Incorrect.Render(r.Item.TargetTerm+" ✗") + "  " + theme.Subtitle.Render(next)
}

func (s *Screen) summaryView() string {
	total := len(s.items)
	lines := []string{
		theme.Title.Render("Review complete!"),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top,
			theme.Label.Render("Reviewed"), theme.Body.Render(fmt.Sprintf("%d", total))),
		lipgloss.JoinHorizontal(lipgloss.Top,
			theme.Label.Render("Knew"), theme.Correct.Render(fmt.Sprintf("%d", s.correct))),
		lipgloss.JoinHorizontal(lipgloss.Top,
			theme.Label.Render("Missed"), theme.Incorrect.Render(fmt.Sprintf("%d", total-s.correct))),
	}
	return strings.Join(lines, "\n")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
