// Package router keeps the stack of terminal screens.
package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/sprachiz/internal/ui/layout"
)

// Screen is one full-window view of the terminal UI.
type Screen interface {
	// Init returns an initial command when the screen is first shown.
	Init() tea.Cmd

	// Update handles messages and returns the updated screen.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is implemented by screens with their own footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// PushScreenMsg requests the router to push a new screen onto the stack.
type PushScreenMsg struct {
	Screen Screen
}

// ReplaceScreenMsg swaps the top screen, e.g. a finished review for its
// summary.
type ReplaceScreenMsg struct {
	Screen Screen
}

// PopScreenMsg requests the router to pop the current screen off the stack.
// Popping the last screen quits the program.
type PopScreenMsg struct{}

// Router manages a stack of screens.
type Router struct {
	stack []Screen
}

// New creates a Router with the given initial screen.
func New(initial Screen) *Router {
	return &Router{stack: []Screen{initial}}
}

// Push adds a screen on top of the stack and calls its Init().
func (r *Router) Push(s Screen) tea.Cmd {
	r.stack = append(r.stack, s)
	return s.Init()
}

// Replace swaps the top screen and calls the new screen's Init().
func (r *Router) Replace(s Screen) tea.Cmd {
	if len(r.stack) == 0 {
		return r.Push(s)
	}
	r.stack[len(r.stack)-1] = s
	return s.Init()
}

// Pop removes the top screen. Popping the last one quits.
func (r *Router) Pop() tea.Cmd {
	if len(r.stack) <= 1 {
		return tea.Quit
	}
	r.stack = r.stack[:len(r.stack)-1]
	return nil
}

// Active returns the top screen on the stack.
func (r *Router) Active() Screen {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

// Depth returns the number of screens on the stack.
func (r *Router) Depth() int {
	return len(r.stack)
}

// KeyHints returns the active screen's hints, if it has any.
func (r *Router) KeyHints() []layout.KeyHint {
	if p, ok := r.Active().(KeyHintProvider); ok {
		return p.KeyHints()
	}
	return nil
}

// Update forwards a message to the active screen and handles navigation
// messages.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushScreenMsg:
		return r.Push(msg.Screen)
	case ReplaceScreenMsg:
		return r.Replace(msg.Screen)
	case PopScreenMsg:
		return r.Pop()
	}

	active := r.Active()
	if active == nil {
		return nil
	}

	updated, cmd := active.Update(msg)
	r.stack[len(r.stack)-1] = updated
	return cmd
}

// View renders the active screen.
func (r *Router) View(width, height int) string {
	active := r.Active()
	if active == nil {
		return ""
	}
	return active.View(width, height)
}
