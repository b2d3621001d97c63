package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/hbudget/internal/cli"
	"github.com/theirongolddev/hbudget/internal/model"
)

var flagJSON bool

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all budgets",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print JSON instead of a table")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	s, done := newStore(consoleNotifier())
	defer done()

	budgets, err := s.List(cmd.Context())
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(budgetsOrEmpty(budgets))
	}
	fmt.Print(cli.RenderBudgets(budgets))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// budgetsOrEmpty keeps JSON output an array when the collection is empty.
func budgetsOrEmpty(b []model.Budget) []model.Budget {
	if b == nil {
		return []model.Budget{}
	}
	return b
}
