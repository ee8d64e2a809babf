package practice

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/sprachiz/internal/dialogue"
	"github.com/abhisek/sprachiz/internal/ui/theme"
)

var (
	titleStyle   = theme.Title
	subtleStyle  = theme.Subtitle
	hintStyle    = theme.Hint
	successStyle = theme.Correct
	errorStyle   = theme.Incorrect
	promptStyle  = lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	speakerStyle = lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)
	tipStyle     = lipgloss.NewStyle().Foreground(theme.Accent)
)

func (c *Coach) printReply(speaker string, r *dialogue.Reply) {
	if r.Feedback != "" {
		c.println(subtleStyle.Render(r.Feedback))
	}
	if r.Text != "" {
		c.println(speakerStyle.Render(speaker+": ") + r.Text)
	}
	for _, corr := range r.Corrections {
		line := fmt.Sprintf("✗ %s: %s", corr.Kind, corr.Text)
		c.println(errorStyle.Render(line))
		if corr.Explanation != "" {
			c.println("  " + subtleStyle.Render(corr.Explanation))
		}
		if corr.Example != "" {
			c.println("  " + hintStyle.Render(corr.Example))
		}
	}
	if r.Praise != "" {
		c.println(successStyle.Render("✓ " + r.Praise))
	}
	for _, tip := range r.Tips {
		parts := []string{tip.Title}
		if tip.Content != "" {
			parts = append(parts, tip.Content)
		}
		c.println(tipStyle.Render("💡 " + strings.Join(parts, ": ")))
		if tip.German != "" {
			c.println("  " + tip.German + subtleStyle.Render(" ("+tip.English+")"))
		}
	}
}
