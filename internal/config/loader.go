package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lucasnoah/mediawar/internal/timing"
)

// Default model ids. Flash for fast tasks (search, structure), Pro for
// quality-critical ones (facts, writing).
const (
	FlashModel = "gemini-3-flash-preview"
	ProModel   = "gemini-3-pro-preview"
	ImageModel = "gemini-2.5-flash-image"

	DefaultImagePrefix = "Cinematic storyboard frame, high contrast, geopolitical thriller style. SCENE:"
)

// Default returns the built-in configuration.
func Default() *Config {
	radarTemp := float32(0.7)
	cfg := &Config{
		Agents: Agents{
			Scout:     Agent{Model: FlashModel, Search: true},
			Radar:     Agent{Model: FlashModel, Temperature: &radarTemp},
			Analyst:   Agent{Model: ProModel, Search: true},
			Architect: Agent{Model: FlashModel},
			Writer:    Agent{Model: ProModel, ThinkingBudget: 2048},
		},
	}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses a configuration from the given YAML file path.
// Unset fields are filled from the built-in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// LoadDefault searches for a config in standard locations and loads the first
// one found. Search order: ./mediawar.yaml, ~/.mediawar/config.yaml. With no
// file present the built-in defaults are returned.
func LoadDefault() (*Config, error) {
	path, ok := Locate()
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Locate returns the first existing config file in the search path.
func Locate() (string, bool) {
	candidates := []string{"mediawar.yaml"}

	if dir, err := Dir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// Dir returns ~/.mediawar.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".mediawar"), nil
}

// applyDefaults fills zero values. Agents without a model get defaults.model,
// falling back to the flash model.
func applyDefaults(cfg *Config) {
	if cfg.Defaults.Model == "" {
		cfg.Defaults.Model = FlashModel
	}
	for _, a := range cfg.Agents.all() {
		if a.agent.Model == "" {
			a.agent.Model = cfg.Defaults.Model
		}
	}

	pace := timing.DefaultPace()
	if cfg.Timing.CharsPerSecond == 0 {
		cfg.Timing.CharsPerSecond = pace.CharsPerSecond
	}
	if cfg.Timing.MinBlockSeconds == 0 {
		cfg.Timing.MinBlockSeconds = pace.MinBlockSeconds
	}

	if cfg.Retry.Attempts == 0 {
		cfg.Retry.Attempts = 3
	}
	if cfg.Retry.BaseDelay == "" {
		cfg.Retry.BaseDelay = "1s"
	}

	if cfg.Images.Model == "" {
		cfg.Images.Model = ImageModel
	}
	if cfg.Images.Prefix == "" {
		cfg.Images.Prefix = DefaultImagePrefix
	}
	if cfg.Images.AspectRatio == "" {
		cfg.Images.AspectRatio = "16:9"
	}
	if cfg.Images.Concurrency == 0 {
		cfg.Images.Concurrency = 4
	}

	if cfg.Log.MaxEntries == 0 {
		cfg.Log.MaxEntries = 500
	}
	if cfg.History.Backend == "" {
		cfg.History.Backend = BackendSQLite
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 17432
	}
}

// BaseDelay parses retry.base_delay. Call Validate first.
func (c *Config) BaseDelay() time.Duration {
	d, err := time.ParseDuration(c.Retry.BaseDelay)
	if err != nil {
		return time.Second
	}
	return d
}

// APIKey returns the Gemini API key from the environment.
func APIKey() string {
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		return k
	}
	return os.Getenv("GOOGLE_API_KEY")
}

// PostgresDSN returns the Postgres connection string, preferring the
// MEDIAWAR_DATABASE_URL environment variable over history.dsn.
func (c *Config) PostgresDSN() string {
	if dsn := os.Getenv("MEDIAWAR_DATABASE_URL"); dsn != "" {
		return dsn
	}
	return c.History.DSN
}

type namedAgent struct {
	name  string
	agent *Agent
}

func (a *Agents) all() []namedAgent {
	return []namedAgent{
		{"scout", &a.Scout},
		{"radar", &a.Radar},
		{"analyst", &a.Analyst},
		{"architect", &a.Architect},
		{"writer", &a.Writer},
	}
}
