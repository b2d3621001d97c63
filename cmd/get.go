package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/hbudget/internal/cli"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one budget fetched from the server",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	s, done := newStore(consoleNotifier())
	defer done()

	b, err := s.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(b)
	}
	fmt.Print(cli.RenderBudget(*b))
	return nil
}
