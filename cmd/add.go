package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/hbudget/internal/cli"
)

var addInput cli.BudgetInput

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a budget",
	Example: `  hbudget add --name Rent --amount 1200 --category Housing
  hbudget add --name Trip --amount 800 --field image_url=https://...`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

func init() {
	bindBudgetFlags(addCmd, &addInput)
	rootCmd.AddCommand(addCmd)
}

// bindBudgetFlags registers the shared payload flags on c.
func bindBudgetFlags(c *cobra.Command, in *cli.BudgetInput) {
	c.Flags().StringVar(&in.Name, "name", "", "Budget name")
	c.Flags().StringVar(&in.Amount, "amount", "", "Amount, e.g. 1200.50")
	c.Flags().StringVar(&in.Category, "category", "", "Category")
	c.Flags().StringArrayVarP(&in.Extra, "field", "f", nil, "Extra field as key=value (repeatable)")
}

// markSet records which payload flags were given explicitly.
func markSet(c *cobra.Command, in *cli.BudgetInput) {
	in.Set = map[string]bool{}
	for _, name := range []string{"name", "amount", "category"} {
		if c.Flags().Changed(name) {
			in.Set[name] = true
		}
	}
}

func runAdd(cmd *cobra.Command, _ []string) error {
	markSet(cmd, &addInput)
	fields, err := addInput.FieldsForCreate()
	if err != nil {
		return err
	}

	s, done := newStore(consoleNotifier())
	defer done()

	if err := s.Create(cmd.Context(), fields); err != nil {
		return err
	}

	budgets := s.Budgets()
	if len(budgets) == 0 {
		return nil
	}
	created := budgets[len(budgets)-1]
	if flagJSON {
		return printJSON(created)
	}
	fmt.Print(cli.RenderBudget(created))
	return nil
}
