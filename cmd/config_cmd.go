// Package cmd implements the hbudget CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/hbudget/internal/auth"
	"github.com/theirongolddev/hbudget/internal/cli"
	"github.com/theirongolddev/hbudget/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [API]")
	fmt.Printf("    Base URL:       %s\n", cfg.API.BaseURL)
	if t := cfg.API.Timeout(); t > 0 {
		fmt.Printf("    Timeout:        %s\n", t)
	} else {
		fmt.Println("    Timeout:        none")
	}
	fmt.Printf("    Stale guard:    %v\n", cfg.API.StaleGuard)
	if cfg.API.LegacyUpdatePath {
		fmt.Println("    Update path:    legacy (no separator)")
	}
	creds, done := credentials()
	if tok, ok := creds.Token(); ok {
		fmt.Printf("    Token:          %s\n", auth.Mask(tok))
	} else {
		fmt.Println("    Token:          not configured")
	}
	done()
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:  %s\n", cfg.Log.Level)
	fmt.Printf("    Format: %s\n", cfg.Log.Format)
	fmt.Println()

	fmt.Println("  [Watch]")
	fmt.Printf("    Address:  %s\n", cfg.Watch.Addr)
	fmt.Printf("    Interval: %ss\n", cli.FormatNumber(int64(cfg.Watch.IntervalSec)))
	fmt.Println()

	fmt.Println("  Run `hbudget setup` to reconfigure.")
	return nil
}
