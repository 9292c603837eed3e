package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/mediawar/internal/script"
	"github.com/lucasnoah/mediawar/internal/timing"
)

var retimeCmd = &cobra.Command{
	Use:   "retime <script.json>",
	Short: "Recompute the timecodes of a script file",
	Long: `Reads a JSON script, recomputes every timecode from the spoken length of its
audio text and writes it back (or to --out). Edited scripts stay contiguous.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadValidConfig()
		if err != nil {
			return err
		}
		pace := cfg.Timing
		if cmd.Flags().Changed("cps") {
			pace.CharsPerSecond, _ = cmd.Flags().GetInt("cps")
		}
		if pace.CharsPerSecond <= 0 {
			return fmt.Errorf("--cps must be positive")
		}

		blocks, err := script.ReadJSON(args[0])
		if err != nil {
			return err
		}
		blocks = timing.Retime(blocks, pace)

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = args[0]
		}
		if err := script.WriteJSON(out, blocks); err != nil {
			return err
		}
		cmd.Printf("Retimed %d blocks (%s total) -> %s\n", len(blocks), timing.FormatClock(timing.Total(blocks, pace)), out)
		return nil
	},
}

func init() {
	retimeCmd.Flags().StringP("out", "o", "", "output file (default: overwrite input)")
	retimeCmd.Flags().Int("cps", 0, "characters per second (default from config)")
}
