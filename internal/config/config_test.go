package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validConfig = `
defaults:
  model: gemini-3-flash-preview
agents:
  analyst:
    model: gemini-3-pro-preview
    search: true
  writer:
    model: gemini-2.5-pro
    thinking_budget: 4096
    prompt_template: templates/writer.md
timing:
  chars_per_second: 15
retry:
  attempts: 5
  base_delay: 250ms
images:
  concurrency: 2
history:
  backend: none
steppable: true
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "mediawar.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeTestConfig(t, validConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Agents.Writer.Model != "gemini-2.5-pro" {
		t.Errorf("writer model = %q, want %q", cfg.Agents.Writer.Model, "gemini-2.5-pro")
	}
	if cfg.Agents.Writer.ThinkingBudget != 4096 {
		t.Errorf("writer thinking = %d, want 4096", cfg.Agents.Writer.ThinkingBudget)
	}
	if cfg.Agents.Writer.PromptTemplate != "templates/writer.md" {
		t.Errorf("writer template = %q", cfg.Agents.Writer.PromptTemplate)
	}
	if cfg.Timing.CharsPerSecond != 15 {
		t.Errorf("chars_per_second = %d, want 15", cfg.Timing.CharsPerSecond)
	}
	if cfg.Retry.Attempts != 5 {
		t.Errorf("attempts = %d, want 5", cfg.Retry.Attempts)
	}
	if got := cfg.BaseDelay().String(); got != "250ms" {
		t.Errorf("base delay = %s, want 250ms", got)
	}
	if !cfg.Steppable {
		t.Error("steppable should be true")
	}
	if cfg.History.Backend != BackendNone {
		t.Errorf("backend = %q, want none", cfg.History.Backend)
	}
	if errs := Validate(cfg); len(errs) != 0 {
		t.Errorf("Validate() = %v, want none", errs)
	}
}

func TestLoadKeepsBuiltinAgentSettings(t *testing.T) {
	path := writeTestConfig(t, "steppable: false\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Agents.Analyst.Model != ProModel {
		t.Errorf("analyst model = %q, want %q", cfg.Agents.Analyst.Model, ProModel)
	}
	if cfg.Agents.Radar.Temperature == nil || *cfg.Agents.Radar.Temperature != 0.7 {
		t.Errorf("radar temperature = %v, want 0.7", cfg.Agents.Radar.Temperature)
	}
	if cfg.Agents.Writer.ThinkingBudget != 2048 {
		t.Errorf("writer thinking = %d, want 2048", cfg.Agents.Writer.ThinkingBudget)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Timing.CharsPerSecond != 12 || cfg.Timing.MinBlockSeconds != 2 {
		t.Errorf("timing = %+v, want 12 cps / 2s", cfg.Timing)
	}
	if cfg.Log.MaxEntries != 500 {
		t.Errorf("max_entries = %d, want 500", cfg.Log.MaxEntries)
	}
	if cfg.Images.Model != ImageModel || cfg.Images.AspectRatio != "16:9" {
		t.Errorf("images = %+v", cfg.Images)
	}
	if cfg.Agents.Scout.Model != FlashModel {
		t.Errorf("scout model = %q", cfg.Agents.Scout.Model)
	}
	if errs := Validate(cfg); len(errs) != 0 {
		t.Errorf("Validate(Default()) = %v", errs)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeTestConfig(t, "agents: [unclosed")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"bad backend", "history:\n  backend: redis\n", "history.backend"},
		{"bad delay", "retry:\n  base_delay: soon\n", "retry.base_delay"},
		{"negative thinking", "agents:\n  writer:\n    thinking_budget: -1\n", "agents.writer.thinking_budget"},
		{"hot temperature", "agents:\n  radar:\n    temperature: 3.5\n", "agents.radar.temperature"},
		{"bad aspect", "images:\n  aspect_ratio: wide\n", "images.aspect_ratio"},
		{"negative pace", "timing:\n  chars_per_second: -4\n", "timing.chars_per_second"},
		{"postgres without dsn", "history:\n  backend: postgres\n", "history.dsn"},
	}

	t.Setenv("MEDIAWAR_DATABASE_URL", "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeTestConfig(t, tt.yaml))
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			errs := Validate(cfg)
			found := false
			for _, e := range errs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %s, got %v", tt.field, errs)
			}
		})
	}
}

func TestPostgresDSN_EnvOverrides(t *testing.T) {
	cfg := Default()
	cfg.History.DSN = "postgres://file"
	t.Setenv("MEDIAWAR_DATABASE_URL", "postgres://env")
	if got := cfg.PostgresDSN(); got != "postgres://env" {
		t.Errorf("PostgresDSN() = %q, want env value", got)
	}
}

func TestAPIKey_Fallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "g")
	if got := APIKey(); got != "g" {
		t.Errorf("APIKey() = %q, want g", got)
	}
	t.Setenv("GEMINI_API_KEY", "k")
	if got := APIKey(); got != "k" {
		t.Errorf("APIKey() = %q, want k", got)
	}
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{Field: "retry.attempts", Message: "must be at least 1"}
	if !strings.Contains(e.Error(), "retry.attempts") {
		t.Errorf("Error() = %q", e.Error())
	}
}
