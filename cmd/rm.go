package cmd

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var flagRmParallel int

var rmCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"delete"},
	Short:   "Delete one or more budgets",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runRm,
}

func init() {
	rmCmd.Flags().IntVar(&flagRmParallel, "parallel", 4, "Maximum concurrent deletes")
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	s, done := newStore(consoleNotifier())
	defer done()

	// Each delete reports its own outcome; the first failure is returned
	// after all have settled.
	var g errgroup.Group
	if flagRmParallel > 0 {
		g.SetLimit(flagRmParallel)
	}
	for _, id := range dedupe(args) {
		g.Go(func() error {
			return s.Remove(cmd.Context(), id)
		})
	}
	return g.Wait()
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
