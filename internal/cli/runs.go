package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "Show recorded run events",
	Long: `Without arguments, lists the most recent run ids. With a run id, prints that
run's lifecycle events. Run events are kept in the local SQLite database.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadValidConfig()
		if err != nil {
			return err
		}
		d, err := openSQLite(cfg)
		if err != nil {
			return err
		}
		defer d.Close()

		if len(args) == 0 {
			limit, _ := cmd.Flags().GetInt("limit")
			ids, err := d.RecentRuns(limit)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				cmd.Println("No runs recorded.")
				return nil
			}
			for _, id := range ids {
				cmd.Println(id)
			}
			return nil
		}

		events, err := d.GetRunEvents(args[0])
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return fmt.Errorf("no events for run %s", args[0])
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tEVENT\tSTAGE\tDETAIL")
		for _, e := range events {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp, e.Event, e.Stage, truncate(e.Detail, 60))
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().Int("limit", 10, "number of runs to list")
}
