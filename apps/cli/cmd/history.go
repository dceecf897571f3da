package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/abdul-hamid-achik/glint/packages/journal"
	"github.com/spf13/cobra"
)

var historyLimitFlag int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show requests recorded in the run journal",
	Long: `Show the most recent requests recorded in the run journal. The journal
is written by "glint run" when journal.path is configured or --journal is
given.

Examples:
  glint history --journal runs.db
  glint history -n 50`,
	Args: cobra.NoArgs,
	RunE: historyCommand,
}

func init() {
	historyCmd.Flags().StringVar(&journalFlag, "journal", "", "SQLite journal file (env: GLINT_JOURNAL_PATH)")
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", 20, "Number of entries to show, 0 for all")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	path := ""
	if app.config != nil {
		path = app.config.Journal.Path
	}
	if path == "" {
		return withExitCode(ExitConfigError, fmt.Errorf("no journal configured (set journal.path or use --journal)"))
	}

	j, err := journal.Open(path)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	defer j.Close()

	entries, err := j.List(cmd.Context(), historyLimitFlag)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No requests recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tRUN\tREQUEST\tSTATUS\tDURATION\tMETHOD\tURL")
	for _, e := range entries {
		run := e.RunID
		if len(run) > 8 {
			run = run[:8]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			e.RecordedAt.Local().Format("2006-01-02 15:04:05"), run, e.Request, e.Status, e.Duration, e.Method, e.URL)
	}
	return w.Flush()
}
