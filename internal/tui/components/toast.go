package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/hbudget/internal/notify"
	"github.com/theirongolddev/hbudget/internal/tui/theme"
)

// MaxToasts is how many notifications are drawn at once; older ones are
// hidden until the newer ones close.
const MaxToasts = 4

// RenderToasts draws live notifications, newest last. Loading toasts use
// the current spinner frame.
func RenderToasts(toasts []notify.Toast, spin string, width int) string {
	if len(toasts) == 0 {
		return ""
	}
	if len(toasts) > MaxToasts {
		toasts = toasts[len(toasts)-MaxToasts:]
	}
	t := theme.Active

	lines := make([]string, 0, len(toasts))
	for _, ts := range toasts {
		icon := spin
		switch ts.Kind {
		case notify.KindSuccess:
			icon = "✓"
		case notify.KindError:
			icon = "✗"
		}
		color := t.ForKind(ts.Kind)
		line := lipgloss.NewStyle().Foreground(color).Bold(true).Render(" "+icon+" ") +
			lipgloss.NewStyle().Foreground(t.TextPrimary).Render(ts.Message)
		lines = append(lines, lipgloss.NewStyle().MaxWidth(width).Render(line))
	}
	return strings.Join(lines, "\n")
}
