package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/hbudget/internal/cli"
	"github.com/theirongolddev/hbudget/internal/model"
)

var editInput cli.BudgetInput

var editCmd = &cobra.Command{
	Use:     "edit <id>",
	Short:   "Update fields of a budget",
	Example: `  hbudget edit 12 --amount 1250`,
	Args:    cobra.ExactArgs(1),
	RunE:    runEdit,
}

func init() {
	bindBudgetFlags(editCmd, &editInput)
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	markSet(cmd, &editInput)
	fields, err := editInput.FieldsForUpdate()
	if err != nil {
		return err
	}

	s, done := newStore(consoleNotifier())
	defer done()

	// Load first so the updated record can be shown; the edit is sent
	// even if the budget is not in the listing.
	if _, err := s.List(cmd.Context()); err != nil {
		return err
	}
	id := args[0]
	if err := s.Update(cmd.Context(), id, fields); err != nil {
		return err
	}

	budgets := s.Budgets()
	i := model.IndexOf(budgets, id)
	if i < 0 {
		return nil
	}
	if flagJSON {
		return printJSON(budgets[i])
	}
	fmt.Print(cli.RenderBudget(budgets[i]))
	return nil
}
