package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	varRe      = regexp.MustCompile(`\{\{([a-zA-Z_][a-zA-Z0-9_]*)\}\}`)
	ifOpenRe   = regexp.MustCompile(`\{\{#if\s+([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)
	ifCloseStr = "{{/if}}"
)

// Vars is a map of variable names to values for template rendering.
type Vars map[string]string

// Render expands a template string with the given variables.
// {{variable}} is replaced with its value. Missing required variables cause an error.
// {{#if variable}}...{{/if}} blocks are included only if the variable is non-empty.
// Values are inserted verbatim and never re-expanded.
func Render(tmpl string, vars Vars) (string, error) {
	result, err := processConditionals(tmpl, vars)
	if err != nil {
		return "", err
	}

	var missing []string
	expanded := varRe.ReplaceAllStringFunc(result, func(match string) string {
		name := varRe.FindStringSubmatch(match)[1]
		if val, ok := vars[name]; ok {
			return val
		}
		missing = append(missing, name)
		return match
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("missing template variables: %s", strings.Join(missing, ", "))
	}
	return expanded, nil
}

// processConditionals handles {{#if var}}...{{/if}} blocks, innermost first.
func processConditionals(tmpl string, vars Vars) (string, error) {
	result := tmpl
	for {
		closeIdx := strings.Index(result, ifCloseStr)
		if closeIdx == -1 {
			break
		}

		prefix := result[:closeIdx]
		openLocs := ifOpenRe.FindAllStringIndex(prefix, -1)
		if openLocs == nil {
			return "", fmt.Errorf("dangling {{/if}} without matching {{#if}}")
		}
		open := openLocs[len(openLocs)-1]
		name := ifOpenRe.FindStringSubmatch(prefix[open[0]:open[1]])[1]

		var body string
		if val, ok := vars[name]; ok && val != "" {
			body = result[open[1]:closeIdx]
		}
		result = result[:open[0]] + body + result[closeIdx+len(ifCloseStr):]
	}

	if loc := ifOpenRe.FindString(result); loc != "" {
		return "", fmt.Errorf("unclosed conditional block: %s", loc)
	}
	return result, nil
}

// Resolve returns the template text for an agent. An empty path selects the
// built-in template; otherwise the file is read via LoadTemplate.
func Resolve(name, path, workdir string) (string, error) {
	if path == "" {
		tmpl, ok := builtinTemplates[name+".md"]
		if !ok {
			return "", fmt.Errorf("no built-in template for %q", name)
		}
		return tmpl, nil
	}
	return LoadTemplate(path, workdir)
}

// LoadTemplate reads a template from the given path.
// It first checks for project-level overrides (relative to workdir),
// then falls back to the installed templates directory.
func LoadTemplate(templatePath string, workdir string) (string, error) {
	if workdir != "" {
		projectPath := filepath.Join(workdir, templatePath)
		// resolved path must stay inside workdir
		absProject, err := filepath.Abs(projectPath)
		if err == nil {
			absWorkdir, err2 := filepath.Abs(workdir)
			if err2 == nil && !strings.HasPrefix(absProject, absWorkdir+string(filepath.Separator)) && absProject != absWorkdir {
				return "", fmt.Errorf("template path %q escapes workdir", templatePath)
			}
		}
		if data, err := os.ReadFile(projectPath); err == nil {
			return string(data), nil
		}
	}

	dir := TemplateDir()
	if dir == "" {
		return "", fmt.Errorf("template %q not found and could not determine home directory", templatePath)
	}
	installed := filepath.Join(dir, templatePath)
	data, err := os.ReadFile(installed)
	if err != nil {
		return "", fmt.Errorf("template not found at %q (also checked %q): %w", templatePath, installed, err)
	}
	return string(data), nil
}

// TemplateDir returns ~/.mediawar/templates.
func TemplateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".mediawar", "templates")
}

// Names returns the built-in template file names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtinTemplates))
	for name := range builtinTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InstallBuiltinTemplates writes the built-in templates into dir, skipping
// files that already exist. It returns the paths it wrote.
func InstallBuiltinTemplates(dir string) ([]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("no template directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create templates dir: %w", err)
	}

	var written []string
	for _, name := range Names() {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue // don't overwrite existing
		}
		if err := os.WriteFile(path, []byte(builtinTemplates[name]), 0o644); err != nil {
			return written, fmt.Errorf("write template %q: %w", name, err)
		}
		written = append(written, path)
	}
	return written, nil
}
