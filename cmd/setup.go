package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/hbudget/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	reader := bufio.NewReader(os.Stdin)

	// Start from the file on disk so env overrides are not persisted.
	c, _ := config.ReadFrom(config.Path())

	fmt.Println()
	fmt.Println("  Welcome to hbudget!")
	fmt.Println()

	// 1. API
	fmt.Println("  1. Budget API base URL")
	fmt.Printf("     Current: %s\n", c.API.BaseURL)
	fmt.Print("     > ")
	baseURL, _ := reader.ReadString('\n')
	baseURL = strings.TrimSpace(baseURL)
	if baseURL != "" {
		c.API.BaseURL = strings.TrimRight(baseURL, "/")
	}
	fmt.Println()

	// 2. Timeout
	fmt.Println("  2. Request timeout in seconds (0 disables)")
	fmt.Printf("     Current: %d\n", c.API.TimeoutSec)
	fmt.Print("     > ")
	timeout, _ := reader.ReadString('\n')
	if n, err := strconv.Atoi(strings.TrimSpace(timeout)); err == nil && n >= 0 {
		c.API.TimeoutSec = n
	}
	fmt.Println()

	// 3. Theme
	fmt.Println("  3. Color theme")
	fmt.Println("     (1) Flexoki Dark [default]")
	fmt.Println("     (2) Catppuccin Mocha")
	fmt.Println("     (3) Tokyo Night")
	fmt.Println("     (4) Terminal (ANSI 16)")
	fmt.Print("     > ")
	themeChoice, _ := reader.ReadString('\n')
	switch strings.TrimSpace(themeChoice) {
	case "2":
		c.Appearance.Theme = "catppuccin-mocha"
	case "3":
		c.Appearance.Theme = "tokyo-night"
	case "4":
		c.Appearance.Theme = "terminal"
	default:
		c.Appearance.Theme = "flexoki-dark"
	}

	if err := config.Save(c); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Next: run `hbudget login` to store your API token.")
	fmt.Println()

	return nil
}
