package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/mediawar/internal/pipeline"
	"github.com/lucasnoah/mediawar/internal/script"
	"github.com/lucasnoah/mediawar/internal/timing"
)

var runCmd = &cobra.Command{
	Use:   "run <topic>",
	Short: "Run the pipeline for a topic, from radar to the final script",
	Long: `Runs radar, analyst, architect and writer for the topic.

With --step the run pauses after radar, analyst and architect. The stage output
is written to a file; edit it, then press Enter to continue with your version.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := strings.Join(args, " ")
		a, err := appForRun(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		return drive(cmd, a, func(ctx context.Context) error {
			return a.ctrl.RunRadar(ctx, topic)
		})
	},
}

// appForRun loads config and builds the app, applying --step.
func appForRun(cmd *cobra.Command) (*app, error) {
	cfg, err := loadValidConfig()
	if err != nil {
		return nil, err
	}
	if step, _ := cmd.Flags().GetBool("step"); step {
		cfg.Steppable = true
	}
	return newApp(cmd.Context(), cfg)
}

// drive runs start, then walks the run through every approval pause until it
// completes or fails, printing the run log as it goes.
func drive(cmd *cobra.Command, a *app, start func(ctx context.Context) error) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	in := bufio.NewReader(cmd.InOrStdin())
	store := a.ctrl.Store()
	_, seq := store.LogsSince(0)

	err := start(ctx)
	seq = printLogs(out, store, seq)
	for err == nil {
		st := store.Snapshot()
		if st.StepStatus != pipeline.StepWaiting {
			break
		}
		text, rerr := review(cmd, in, st)
		if rerr != nil {
			return rerr
		}
		err = a.ctrl.Approve(ctx, text)
		seq = printLogs(out, store, seq)
	}
	if err != nil {
		return err
	}

	st := store.Snapshot()
	if st.CurrentStage != pipeline.StageCompleted {
		return nil
	}
	if images, _ := cmd.Flags().GetBool("images"); images {
		n, ierr := a.ctrl.GenerateImages(ctx, true)
		printLogs(out, store, seq)
		if ierr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", ierr)
		}
		fmt.Fprintf(out, "%d storyboard frame(s) generated\n", n)
		st = store.Snapshot()
	}
	printScript(out, st.FinalScript, a.cfg.Timing)
	return exportScript(cmd, st.Topic, st.FinalScript)
}

// review writes the waiting stage's edit buffer to a file, waits for Enter
// and returns the file's contents as the approved text.
func review(cmd *cobra.Command, in *bufio.Reader, st pipeline.State) (string, error) {
	f, err := os.CreateTemp("", "mediawar-"+strings.ToLower(string(st.CurrentStage))+"-*.txt")
	if err != nil {
		return "", fmt.Errorf("create review file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.WriteString(st.EditBuffer); err != nil {
		f.Close()
		return "", fmt.Errorf("write review file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write review file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%s output is waiting for approval.\nEdit %s and press Enter to continue (Ctrl-C aborts).\n", st.CurrentStage, path)
	if _, err := in.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read confirmation: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read review file: %w", err)
	}
	return string(data), nil
}

func printLogs(w io.Writer, store *pipeline.Store, seq int) int {
	lines, next := store.LogsSince(seq)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	return next
}

func printScript(w io.Writer, blocks []script.Block, pace timing.Pace) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTIME\tTYPE\tAUDIO")
	for i, b := range blocks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, b.Timecode, b.BlockType, truncate(b.AudioScript, 60))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d blocks, %s total\n", len(blocks), timing.FormatClock(timing.Total(blocks, pace)))
}

// exportScript writes the script to --out: markdown for .md paths, JSON otherwise.
func exportScript(cmd *cobra.Command, topic string, blocks []script.Block) error {
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return nil
	}
	var err error
	if strings.EqualFold(filepath.Ext(out), ".md") {
		err = script.WriteMarkdown(out, topic, blocks)
	} else {
		err = script.WriteJSON(out, blocks)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Script written to %s\n", out)
	return nil
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("step", false, "pause for approval after radar, analyst and architect")
	cmd.Flags().StringP("out", "o", "", "write the final script to this file (.json or .md)")
	cmd.Flags().Bool("images", false, "generate storyboard frames for the final script")
}

func init() {
	addRunFlags(runCmd)
}
