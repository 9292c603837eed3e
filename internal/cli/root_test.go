package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/lucasnoah/mediawar/internal/config"
	"github.com/lucasnoah/mediawar/internal/db"
	"github.com/lucasnoah/mediawar/internal/dossier"
	"github.com/lucasnoah/mediawar/internal/history"
	"github.com/lucasnoah/mediawar/internal/pipeline"
	"github.com/lucasnoah/mediawar/internal/script"
)

func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	configPath = ""
	resetHelp(rootCmd)
	err := rootCmd.Execute()
	return buf.String(), err
}

// resetHelp clears --help left set on a command by an earlier execution.
func resetHelp(c *cobra.Command) {
	if f := c.Flags().Lookup("help"); f != nil {
		_ = f.Value.Set("false")
		f.Changed = false
	}
	for _, sub := range c.Commands() {
		resetHelp(sub)
	}
}

// writeConfig writes a config that keeps history in a temp sqlite file.
func writeConfig(t *testing.T, extra string) (cfgPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "mediawar.db")
	cfgPath = filepath.Join(dir, "mediawar.yaml")
	body := fmt.Sprintf("history:\n  backend: sqlite\n  path: %s\n%s", dbPath, extra)
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfgPath, dbPath
}

func TestVersionCommand(t *testing.T) {
	SetVersion("test-version")
	out, err := executeCommand("version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "test-version") {
		t.Errorf("expected version output to contain 'test-version', got: %s", out)
	}
}

func TestRootHelp(t *testing.T) {
	out, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedSubcommands := []string{
		"scout", "run", "history", "runs", "retime",
		"config", "db", "serve", "prompts", "version",
	}
	for _, sub := range expectedSubcommands {
		if !strings.Contains(out, sub) {
			t.Errorf("help output missing subcommand %q", sub)
		}
	}
}

func TestSubcommandHelp(t *testing.T) {
	cases := [][]string{
		{"history", "list"}, {"history", "show"}, {"history", "delete"}, {"history", "export"},
		{"db", "migrate"}, {"db", "reset"},
		{"prompts", "install"}, {"prompts", "list"}, {"prompts", "show"},
		{"config", "validate"}, {"config", "show"},
	}
	for _, c := range cases {
		out, err := executeCommand(append(c, "--help")...)
		if err != nil {
			t.Errorf("%v --help failed: %v", c, err)
		}
		if out == "" {
			t.Errorf("%v --help produced no output", c)
		}
	}
}

func TestRunHelp_StepFlag(t *testing.T) {
	out, err := executeCommand("run", "--help")
	if err != nil {
		t.Fatalf("run --help: %v", err)
	}
	for _, flag := range []string{"--step", "--out", "--images"} {
		if !strings.Contains(out, flag) {
			t.Errorf("run --help missing %s", flag)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	_, err := executeCommand("nonexistent")
	if err == nil {
		t.Error("expected error for unknown command, got nil")
	}
}

func TestConfigValidate(t *testing.T) {
	cfgPath, _ := writeConfig(t, "")
	out, err := executeCommand("config", "validate", "-c", cfgPath)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Configuration is valid.") {
		t.Errorf("output = %q", out)
	}

	bad, _ := writeConfig(t, "images:\n  aspect_ratio: wide\n")
	out, err = executeCommand("config", "validate", "-c", bad)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(out, "aspect_ratio") {
		t.Errorf("output does not name the field: %q", out)
	}
}

func TestConfigShow_MergesDefaults(t *testing.T) {
	cfgPath, _ := writeConfig(t, "")
	out, err := executeCommand("config", "show", "-c", cfgPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{config.ProModel, "chars_per_second: 12", "thinking_budget: 2048"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q", want)
		}
	}
}

func TestRetimeCommand(t *testing.T) {
	cfgPath, _ := writeConfig(t, "")
	in := filepath.Join(t.TempDir(), "script.json")
	blocks := []script.Block{
		{Timecode: "09:00 - 09:30", AudioScript: strings.Repeat("a", 36)},
		{Timecode: "bad", AudioScript: "hi"},
	}
	if err := script.WriteJSON(in, blocks); err != nil {
		t.Fatal(err)
	}

	out, err := executeCommand("retime", in, "-c", cfgPath)
	if err != nil {
		t.Fatalf("retime: %v\n%s", err, out)
	}
	got, err := script.ReadJSON(in)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Timecode != "00:00 - 00:03" || got[1].Timecode != "00:03 - 00:05" {
		t.Errorf("timecodes = %q, %q", got[0].Timecode, got[1].Timecode)
	}
	if !strings.Contains(out, "Retimed 2 blocks (00:05 total)") {
		t.Errorf("output = %q", out)
	}
}

func TestPromptsInstall(t *testing.T) {
	dir := t.TempDir()
	out, err := executeCommand("prompts", "install", "--dir", dir)
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if !strings.Contains(out, "5 template(s) installed") {
		t.Errorf("output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "writer.md")); err != nil {
		t.Errorf("writer.md not installed: %v", err)
	}
}

func TestHistoryCommands(t *testing.T) {
	cfgPath, dbPath := writeConfig(t, "")

	out, err := executeCommand("history", "list", "-c", cfgPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No archived scripts.") {
		t.Errorf("empty list output = %q", out)
	}

	d, err := db.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := d.Save(context.Background(), "Soft power audit", "gemini-3-pro-preview", []script.Block{
		{Timecode: "00:00 - 00:02", AudioScript: "Look.", BlockType: script.BlockHook},
	})
	d.Close()
	if err != nil {
		t.Fatal(err)
	}
	id := fmt.Sprint(rec.ID)

	out, _ = executeCommand("history", "list", "-c", cfgPath)
	if !strings.Contains(out, "Soft power audit") {
		t.Errorf("list output = %q", out)
	}

	out, err = executeCommand("history", "show", id, "-c", cfgPath)
	if err != nil || !strings.Contains(out, "# Soft power audit") {
		t.Errorf("show = %q, %v", out, err)
	}

	md := filepath.Join(t.TempDir(), "out.md")
	if _, err := executeCommand("history", "export", id, "-o", md, "-c", cfgPath); err != nil {
		t.Fatalf("export: %v", err)
	}
	if data, err := os.ReadFile(md); err != nil || !strings.Contains(string(data), "> Look.") {
		t.Errorf("exported markdown = %q, %v", data, err)
	}

	if _, err := executeCommand("history", "delete", id, "-c", cfgPath); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := executeCommand("history", "show", id, "-c", cfgPath); err == nil {
		t.Error("show after delete should fail")
	}
	if _, err := executeCommand("history", "show", "zero", "-c", cfgPath); err == nil {
		t.Error("invalid id should fail")
	}
}

func TestDBReset_RequiresConfirmation(t *testing.T) {
	cfgPath, _ := writeConfig(t, "")
	if _, err := executeCommand("db", "reset", "-c", cfgPath); err == nil {
		t.Fatal("reset without --yes should fail")
	}
	out, err := executeCommand("db", "migrate", "-c", cfgPath)
	if err != nil || !strings.Contains(out, "up to date") {
		t.Errorf("migrate = %q, %v", out, err)
	}
}

// scriptedStages answers each stage instantly and records approved inputs.
type scriptedStages struct {
	analystIn, architectIn, writerStruct string
}

func (s *scriptedStages) Scout(context.Context) ([]pipeline.TopicCandidate, error) {
	return []pipeline.TopicCandidate{{Title: "A"}, {Title: "B"}, {Title: "C"}, {Title: "D"}}, nil
}
func (s *scriptedStages) Radar(_ context.Context, topic string) (string, error) {
	return "radar:" + topic, nil
}
func (s *scriptedStages) Analyst(_ context.Context, topic, radar string) (dossier.Dossier, error) {
	s.analystIn = radar
	return dossier.Dossier{Topic: topic}, nil
}
func (s *scriptedStages) Architect(_ context.Context, d string) (string, error) {
	s.architectIn = d
	return "structure", nil
}
func (s *scriptedStages) Writer(_ context.Context, structure, _ string) ([]script.Block, error) {
	s.writerStruct = structure
	return []script.Block{{VisualCue: "Map", AudioScript: "Look at the map.", BlockType: script.BlockHook}}, nil
}
func (s *scriptedStages) Image(context.Context, string) (string, error) { return "data:x", nil }

func TestDrive_StepsThroughApprovals(t *testing.T) {
	cfg := config.Default()
	cfg.Steppable = true
	stages := &scriptedStages{}
	a := newAppWith(context.Background(), cfg, stages, history.Disabled{}, nil)

	out := new(bytes.Buffer)
	runCmd.SetOut(out)
	runCmd.SetErr(out)
	runCmd.SetIn(strings.NewReader("\n\n\n"))
	runCmd.SetContext(context.Background())
	defer runCmd.SetIn(nil)

	err := drive(runCmd, a, func(ctx context.Context) error {
		return a.ctrl.RunRadar(ctx, "T")
	})
	if err != nil {
		t.Fatalf("drive: %v\n%s", err, out.String())
	}

	if stages.analystIn != "radar:T" {
		t.Errorf("analyst input = %q", stages.analystIn)
	}
	if stages.writerStruct != "structure" {
		t.Errorf("writer structure = %q", stages.writerStruct)
	}
	if got := strings.Count(out.String(), "is waiting for approval"); got != 3 {
		t.Errorf("approval prompts = %d, want 3\n%s", got, out.String())
	}
	if !strings.Contains(out.String(), ">>> SYSTEM STANDBY.") {
		t.Errorf("run log not printed:\n%s", out.String())
	}
	if st := a.ctrl.Store().Snapshot(); st.CurrentStage != pipeline.StageCompleted {
		t.Errorf("stage = %s, want COMPLETED", st.CurrentStage)
	}
}
