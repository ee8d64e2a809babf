package cmd

import (
	"fmt"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/abhisek/sprachiz/internal/ui/theme"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.Title.Padding(0, 1)
			}
			return theme.Body.Padding(0, 1)
		}).
		Headers(headers...)
}

func printTable(t *table.Table) {
	lipgloss.Println(t.Render())
}

func printTitle(s string) {
	lipgloss.Println(theme.Title.Render(s))
}

func printField(label string, value any) {
	lipgloss.Println(theme.Label.Render(label) + theme.Body.Render(fmt.Sprint(value)))
}

func printSuccess(format string, args ...any) {
	lipgloss.Println(theme.Correct.Render("✓ ") + fmt.Sprintf(format, args...))
}

func printHint(s string) {
	lipgloss.Println(theme.Hint.Render(s))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
