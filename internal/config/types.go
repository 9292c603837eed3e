package config

import "github.com/lucasnoah/mediawar/internal/timing"

// Config is the top-level configuration structure parsed from mediawar YAML.
type Config struct {
	Agents    Agents        `yaml:"agents"`
	Timing    timing.Pace   `yaml:"timing"`
	Retry     Retry         `yaml:"retry"`
	Images    Images        `yaml:"images"`
	Log       Log           `yaml:"log"`
	History   History       `yaml:"history"`
	Web       Web           `yaml:"web"`
	Steppable bool          `yaml:"steppable"`
	Defaults  AgentDefaults `yaml:"defaults"`
}

// Agents holds per-stage agent settings.
type Agents struct {
	Scout     Agent `yaml:"scout"`
	Radar     Agent `yaml:"radar"`
	Analyst   Agent `yaml:"analyst"`
	Architect Agent `yaml:"architect"`
	Writer    Agent `yaml:"writer"`
}

// AgentDefaults holds values applied to agents that don't specify their own.
type AgentDefaults struct {
	Model string `yaml:"model"`
}

// Agent configures one stage's model call.
type Agent struct {
	Model          string   `yaml:"model"`
	Search         bool     `yaml:"search"`
	Temperature    *float32 `yaml:"temperature,omitempty"`
	ThinkingBudget int32    `yaml:"thinking_budget"`
	PromptTemplate string   `yaml:"prompt_template"`
}

// Retry bounds gateway retries.
type Retry struct {
	Attempts  int    `yaml:"attempts"`
	BaseDelay string `yaml:"base_delay"`
}

// Images configures storyboard frame generation.
type Images struct {
	Model       string `yaml:"model"`
	Prefix      string `yaml:"prefix"`
	AspectRatio string `yaml:"aspect_ratio"`
	Concurrency int    `yaml:"concurrency"`
}

// Log configures the run log.
type Log struct {
	MaxEntries int `yaml:"max_entries"`
}

// History selects where completed scripts are archived.
type History struct {
	Backend string `yaml:"backend"` // sqlite, postgres or none
	Path    string `yaml:"path"`    // sqlite file; empty means ~/.mediawar/mediawar.db
	DSN     string `yaml:"dsn"`     // postgres; MEDIAWAR_DATABASE_URL overrides
}

// Web configures the control API server.
type Web struct {
	Port int `yaml:"port"`
}

// History backend names.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)
