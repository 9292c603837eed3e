package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/mediawar/internal/history"
	"github.com/lucasnoah/mediawar/internal/script"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and manage archived scripts",
}

// withHistory opens the configured backend for the duration of fn.
func withHistory(cmd *cobra.Command, fn func(history.Backend) error) error {
	cfg, err := loadValidConfig()
	if err != nil {
		return err
	}
	backend, _, err := openHistory(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer backend.Close()
	return fn(backend)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid history id %q", s)
	}
	return id, nil
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived scripts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(cmd, func(b history.Backend) error {
			records, err := b.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				cmd.Println("No archived scripts.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tBLOCKS\tMODEL\tTOPIC")
			for _, r := range records {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", r.ID, r.CreatedAt.Local().Format(time.DateTime), len(r.Script), r.Model, truncate(r.Topic, 60))
			}
			return w.Flush()
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print an archived script as markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withHistory(cmd, func(b history.Backend) error {
			rec, err := b.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			cmd.Print(script.Markdown(rec.Topic, rec.Script))
			return nil
		})
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an archived script permanently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withHistory(cmd, func(b history.Backend) error {
			if err := b.Delete(cmd.Context(), id); err != nil {
				return err
			}
			cmd.Printf("Archive ID %d deleted.\n", id)
			return nil
		})
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write an archived script to a file (.json or .md)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if out, _ := cmd.Flags().GetString("out"); out == "" {
			return fmt.Errorf("--out is required")
		}
		return withHistory(cmd, func(b history.Backend) error {
			rec, err := b.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return exportScript(cmd, rec.Topic, rec.Script)
		})
	},
}

func init() {
	historyExportCmd.Flags().StringP("out", "o", "", "output file (.json or .md)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyExportCmd)
}
