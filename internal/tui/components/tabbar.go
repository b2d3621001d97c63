package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/hbudget/internal/tui/theme"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // position of the shortcut letter in the name (-1 if not in name)
}

// Tabs defines all available tabs.
var Tabs = []Tab{
	{Name: "Budgets", Key: 'b', KeyPos: 0},
	{Name: "Categories", Key: 'c', KeyPos: 0},
}

// TabSeparator sits between rendered tabs.
const TabSeparator = "  "

// TabWidth is the rendered width of tab i when active is selected.
func TabWidth(i, active int) int {
	tab := Tabs[i]
	w := len(tab.Name)
	if i == active {
		return w
	}
	if tab.KeyPos >= 0 {
		return w + 2 // brackets around the key
	}
	return w + 3
}

// RenderTabBar renders the tab bar with the given active index on one row.
func RenderTabBar(activeIdx int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	inactiveStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	dimKeyStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	parts := make([]string, 0, len(Tabs))
	for i, tab := range Tabs {
		var rendered string
		switch {
		case i == activeIdx:
			rendered = activeStyle.Render(tab.Name)
		case tab.KeyPos >= 0 && tab.KeyPos < len(tab.Name):
			before := tab.Name[:tab.KeyPos]
			key := string(tab.Name[tab.KeyPos])
			after := tab.Name[tab.KeyPos+1:]
			rendered = inactiveStyle.Render(before) +
				dimKeyStyle.Render("[") + keyStyle.Render(key) + dimKeyStyle.Render("]") +
				inactiveStyle.Render(after)
		default:
			rendered = inactiveStyle.Render(tab.Name) +
				dimKeyStyle.Render("[") + keyStyle.Render(string(tab.Key)) + dimKeyStyle.Render("]")
		}
		parts = append(parts, rendered)
	}

	return " " + strings.Join(parts, TabSeparator)
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}

// TabAtX maps a column in the tab bar to a tab index, or -1.
func TabAtX(x, active int) int {
	pos := 1 // leading space
	for i := range Tabs {
		w := TabWidth(i, active)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + len(TabSeparator)
	}
	return -1
}
