package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/hbudget/internal/notify"
	"github.com/theirongolddev/hbudget/internal/store"
	"github.com/theirongolddev/hbudget/internal/tui"
	"github.com/theirongolddev/hbudget/internal/tui/theme"
)

var flagTUIRefresh time.Duration

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive budget browser",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().DurationVar(&flagTUIRefresh, "refresh", 0, "Auto-refresh interval (0 disables)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	// The alt screen owns stderr; diagnostics go to a file instead.
	var logOut io.Writer = io.Discard
	if err := os.MkdirAll(store.Dir(), 0o750); err == nil {
		f, err := os.OpenFile(filepath.Join(store.Dir(), "hbudget-tui.log"), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err == nil {
			defer f.Close()
			logOut = f
		}
	}
	setupLogging(cfg.Log, logOut)

	stack := notify.NewStack()
	s, closeFn := newStore(stack)
	defer closeFn()

	app := tui.NewApp(s, stack, tui.Options{
		Source:          cfg.API.BaseURL,
		RefreshInterval: flagTUIRefresh,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
