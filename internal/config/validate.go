package config

import (
	"fmt"
	"regexp"
	"time"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var recognizedBackends = map[string]bool{
	BackendSQLite:   true,
	BackendPostgres: true,
	BackendNone:     true,
}

var aspectRatioRe = regexp.MustCompile(`^\d+:\d+$`)

// Validate checks a Config for structural and semantic errors.
// It returns a slice of all validation errors found (empty if valid).
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError

	for _, a := range cfg.Agents.all() {
		prefix := "agents." + a.name
		if a.agent.Model == "" {
			errs = append(errs, ValidationError{Field: prefix + ".model", Message: "is required"})
		}
		if t := a.agent.Temperature; t != nil && (*t < 0 || *t > 2) {
			errs = append(errs, ValidationError{
				Field:   prefix + ".temperature",
				Message: fmt.Sprintf("must be between 0 and 2, got %v", *t),
			})
		}
		if a.agent.ThinkingBudget < 0 {
			errs = append(errs, ValidationError{Field: prefix + ".thinking_budget", Message: "must not be negative"})
		}
	}

	if cfg.Timing.CharsPerSecond <= 0 {
		errs = append(errs, ValidationError{Field: "timing.chars_per_second", Message: "must be positive"})
	}
	if cfg.Timing.MinBlockSeconds < 0 {
		errs = append(errs, ValidationError{Field: "timing.min_block_seconds", Message: "must not be negative"})
	}

	if cfg.Retry.Attempts < 1 {
		errs = append(errs, ValidationError{Field: "retry.attempts", Message: "must be at least 1"})
	}
	if d, err := time.ParseDuration(cfg.Retry.BaseDelay); err != nil {
		errs = append(errs, ValidationError{
			Field:   "retry.base_delay",
			Message: fmt.Sprintf("invalid duration %q", cfg.Retry.BaseDelay),
		})
	} else if d <= 0 {
		errs = append(errs, ValidationError{Field: "retry.base_delay", Message: "must be positive"})
	}

	if !aspectRatioRe.MatchString(cfg.Images.AspectRatio) {
		errs = append(errs, ValidationError{
			Field:   "images.aspect_ratio",
			Message: fmt.Sprintf("expected W:H, got %q", cfg.Images.AspectRatio),
		})
	}
	if cfg.Images.Concurrency < 1 {
		errs = append(errs, ValidationError{Field: "images.concurrency", Message: "must be at least 1"})
	}

	if cfg.Log.MaxEntries < 1 {
		errs = append(errs, ValidationError{Field: "log.max_entries", Message: "must be at least 1"})
	}

	if !recognizedBackends[cfg.History.Backend] {
		errs = append(errs, ValidationError{
			Field:   "history.backend",
			Message: fmt.Sprintf("unrecognized backend %q", cfg.History.Backend),
		})
	}
	if cfg.History.Backend == BackendPostgres && cfg.PostgresDSN() == "" {
		errs = append(errs, ValidationError{
			Field:   "history.dsn",
			Message: "postgres backend needs a dsn or MEDIAWAR_DATABASE_URL",
		})
	}

	if cfg.Web.Port < 1 || cfg.Web.Port > 65535 {
		errs = append(errs, ValidationError{Field: "web.port", Message: fmt.Sprintf("out of range: %d", cfg.Web.Port)})
	}

	return errs
}
