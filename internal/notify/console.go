package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	loadingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#878580"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#879A39"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D14D41")).Bold(true)
)

// Console prints notifications as single lines, the CLI's toast surface.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	quiet bool
}

// NewConsole writes to out. When quiet, loading messages are suppressed.
func NewConsole(out io.Writer, quiet bool) *Console {
	return &Console{out: out, quiet: quiet}
}

func (c *Console) Loading(msg string) ID {
	c.print(KindLoading, msg)
	return newID()
}

func (c *Console) Success(msg string) ID {
	c.print(KindSuccess, msg)
	return newID()
}

func (c *Console) Error(msg string) ID {
	c.print(KindError, msg)
	return newID()
}

// Update prints the new state; a console cannot rewrite earlier lines.
func (c *Console) Update(_ ID, kind Kind, msg string) {
	c.print(kind, msg)
}

// Dismiss is a no-op.
func (c *Console) Dismiss(ID) {}

func (c *Console) print(kind Kind, msg string) {
	if kind == KindLoading && c.quiet {
		return
	}

	var line string
	switch kind {
	case KindLoading:
		line = loadingStyle.Render("  … " + msg)
	case KindSuccess:
		line = successStyle.Render("  ✓ " + msg)
	default:
		line = errorStyle.Render("  ✗ " + msg)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, line)
}
