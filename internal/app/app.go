package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/sprachiz/internal/router"
	"github.com/abhisek/sprachiz/internal/ui/layout"
)

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	status string
	width  int
	height int
}

// NewAppModel creates an AppModel showing initial. status is shown on the
// right of the header.
func NewAppModel(initial router.Screen, status string) AppModel {
	return AppModel{
		router: router.New(initial),
		status: status,
	}
}

func (m AppModel) Init() tea.Cmd {
	if active := m.router.Active(); active != nil {
		return active.Init()
	}
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView(m.frame())
	v.AltScreen = true
	return v
}

func (m AppModel) frame() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.status, m.width)

	hints := m.router.KeyHints()
	if hints == nil {
		hints = []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}
	hints = append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
	footer := layout.RenderFooter(hints, m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run starts the Bubble Tea program on the given screen.
func Run(initial router.Screen, status string) error {
	p := tea.NewProgram(NewAppModel(initial, status))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
