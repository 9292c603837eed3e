// Package agent maps each pipeline stage onto a gateway request: which
// model, which prompt template, which response schema.
package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lucasnoah/mediawar/internal/config"
	"github.com/lucasnoah/mediawar/internal/dossier"
	"github.com/lucasnoah/mediawar/internal/gateway"
	"github.com/lucasnoah/mediawar/internal/pipeline"
	"github.com/lucasnoah/mediawar/internal/prompt"
	"github.com/lucasnoah/mediawar/internal/script"
)

// Agents performs the stage calls through a gateway.
type Agents struct {
	gw      *gateway.Gateway
	agents  config.Agents
	images  config.Images
	workdir string
	log     *zap.Logger
}

var _ pipeline.Stages = (*Agents)(nil)

// New creates Agents from cfg. Prompt template overrides are looked up
// relative to workdir first.
func New(gw *gateway.Gateway, cfg *config.Config, workdir string, log *zap.Logger) *Agents {
	if log == nil {
		log = zap.NewNop()
	}
	return &Agents{gw: gw, agents: cfg.Agents, images: cfg.Images, workdir: workdir, log: log}
}

// render loads the agent's template and fills it in.
func (a *Agents) render(name string, ag config.Agent, vars prompt.Vars) (string, error) {
	tmpl, err := prompt.Resolve(name, ag.PromptTemplate, a.workdir)
	if err != nil {
		return "", fmt.Errorf("load %s prompt: %w", name, err)
	}
	if vars == nil {
		vars = prompt.Vars{}
	}
	if ag.Search && gateway.SupportsSearch(ag.Model) {
		vars["search"] = "true"
	}
	out, err := prompt.Render(tmpl, vars)
	if err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return out, nil
}

func request(ag config.Agent, text string, schema *gateway.Schema) gateway.Request {
	return gateway.Request{
		Model:          ag.Model,
		Prompt:         text,
		Search:         ag.Search,
		Schema:         schema,
		ThinkingBudget: ag.ThinkingBudget,
		Temperature:    ag.Temperature,
	}
}

// Scout returns exactly CandidateCount topic candidates.
func (a *Agents) Scout(ctx context.Context) ([]pipeline.TopicCandidate, error) {
	text, err := a.render("scout", a.agents.Scout, nil)
	if err != nil {
		return nil, err
	}
	var out []pipeline.TopicCandidate
	if err := a.gw.CompleteJSON(ctx, request(a.agents.Scout, text, candidatesSchema), &out); err != nil {
		return nil, err
	}
	a.log.Debug("scout complete", zap.Int("candidates", len(out)))
	return out, nil
}

// Radar returns the free-text analysis of topic.
func (a *Agents) Radar(ctx context.Context, topic string) (string, error) {
	text, err := a.render("radar", a.agents.Radar, prompt.Vars{"topic": topic})
	if err != nil {
		return "", err
	}
	return a.gw.Complete(ctx, request(a.agents.Radar, text, nil))
}

// Analyst returns the structured dossier for topic.
func (a *Agents) Analyst(ctx context.Context, topic, radarText string) (dossier.Dossier, error) {
	var d dossier.Dossier
	text, err := a.render("analyst", a.agents.Analyst, prompt.Vars{"topic": topic, "radar": radarText})
	if err != nil {
		return d, err
	}
	if err := a.gw.CompleteJSON(ctx, request(a.agents.Analyst, text, dossierSchema), &d); err != nil {
		return dossier.Dossier{}, err
	}
	return d, nil
}

// Architect returns the free-text structure built from dossierText.
func (a *Agents) Architect(ctx context.Context, dossierText string) (string, error) {
	text, err := a.render("architect", a.agents.Architect, prompt.Vars{"dossier": dossierText})
	if err != nil {
		return "", err
	}
	return a.gw.Complete(ctx, request(a.agents.Architect, text, nil))
}

// Writer returns the script blocks. Their timecodes are model guesses.
func (a *Agents) Writer(ctx context.Context, structureText, dossierText string) ([]script.Block, error) {
	text, err := a.render("writer", a.agents.Writer, prompt.Vars{"structure": structureText, "dossier": dossierText})
	if err != nil {
		return nil, err
	}
	var blocks []script.Block
	if err := a.gw.CompleteJSON(ctx, request(a.agents.Writer, text, blocksSchema), &blocks); err != nil {
		return nil, err
	}
	a.log.Debug("writer complete", zap.Int("blocks", len(blocks)))
	return blocks, nil
}

// Image renders a storyboard frame for visualCue and returns it as a data URL.
func (a *Agents) Image(ctx context.Context, visualCue string) (string, error) {
	return a.gw.GenerateImage(ctx, gateway.Request{
		Model:       a.images.Model,
		Prompt:      strings.TrimSpace(a.images.Prefix + " " + visualCue),
		AspectRatio: a.images.AspectRatio,
	})
}
