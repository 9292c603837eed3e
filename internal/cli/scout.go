package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var scoutCmd = &cobra.Command{
	Use:   "scout",
	Short: "Scan recent news for topic candidates",
	Long: `Asks the scout agent for four topic candidates and prints them.

With --pick N the Nth candidate is confirmed and the run continues as with
'mediawar run'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pick, _ := cmd.Flags().GetInt("pick")
		a, err := appForRun(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		store := a.ctrl.Store()
		_, seq := store.LogsSince(0)
		cands, err := a.ctrl.RunScout(cmd.Context())
		printLogs(out, store, seq)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tTITLE\tHOOK\tVIRAL FACTOR")
		for i, c := range cands {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, c.Title, truncate(c.Hook, 50), truncate(c.ViralFactor, 40))
		}
		tw.Flush()

		if pick == 0 {
			return nil
		}
		if pick < 1 || pick > len(cands) {
			return fmt.Errorf("--pick %d out of range (1-%d)", pick, len(cands))
		}
		cand := cands[pick-1]
		return drive(cmd, a, func(ctx context.Context) error {
			return a.ctrl.SelectTopic(ctx, cand)
		})
	},
}

func init() {
	scoutCmd.Flags().Int("pick", 0, "confirm the Nth candidate and run the pipeline")
	addRunFlags(scoutCmd)
}
