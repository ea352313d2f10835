package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/reltext/internal/store"
)

var historyKind string

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history <db> [run-id]",
	Short: "List runs exported to a SQLite database",
	Long: `History lists the runs stored with 'reltext analyze --db'. Given a run
ID it prints that run's relation table.

Example:
  reltext history runs.db
  reltext history runs.db 3f0c... --kind person_action`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyKind, "kind", store.KindPersonLocation,
		"relation table: person_location, person_action, location_organization, organization_action")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(args[0]); err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	ctx := context.Background()
	s, err := store.Open(ctx, args[0])
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		runs, err := s.Runs(ctx)
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%d documents, %d failed\n",
				r.ID, r.GeneratedAt.Format("2006-01-02 15:04:05"), r.InputDir, r.Annotator, r.Documents, r.Failed)
		}
		return nil
	}

	rows, err := s.Relations(ctx, args[1], historyKind)
	if err != nil {
		return err
	}
	for _, r := range rows {
		right := r.Right
		if r.Tense != "" {
			right += " (" + string(r.Tense) + ")"
		}
		fmt.Fprintf(out, "%s : %s\t%d\n", r.Left, right, r.Count)
	}
	return nil
}
