package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/hbudget/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar: key hints on the left,
// sync state on the right.
func RenderStatusBar(width int, synced, source string, busy int) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Width(width)

	left := " [?]help  [a]dd  [e]dit  [d]elete  [u]pload  [r]efresh  [q]uit"
	right := fmt.Sprintf("synced %s ", synced)
	if source != "" {
		right = source + " · " + right
	}
	if busy > 0 {
		right = lipgloss.NewStyle().Foreground(t.Yellow).Render(fmt.Sprintf("%d in flight", busy)) + " · " + right
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		// Narrow terminals keep the sync state.
		return style.Render(right)
	}
	return style.Render(left + strings.Repeat(" ", padding) + right)
}
