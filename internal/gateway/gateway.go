// Package gateway wraps the external generative-completion service. It owns
// retry with exponential backoff, JSON schema enforcement and model
// capability gating. It keeps no state between calls.
package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Request describes one completion call.
type Request struct {
	Model  string
	Prompt string

	// Search attaches web search tooling when the model supports it.
	Search bool
	// Schema, when set, forces a JSON response that must validate against it.
	Schema *Schema
	// ThinkingBudget grants a deliberation token budget (0 = none).
	ThinkingBudget int32
	Temperature    *float32

	// AspectRatio is only used for image generation requests.
	AspectRatio string
}

// Image is an inline binary payload returned by an image request.
type Image struct {
	MIMEType string
	Data     []byte
}

// DataURL renders the image as a data: URL.
func (i Image) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MIMEType, base64.StdEncoding.EncodeToString(i.Data))
}

// Response is the raw service response.
type Response struct {
	Text   string
	Images []Image
}

// Client is the transport to the generative service.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Options configures a Gateway.
type Options struct {
	Attempts  int           // total tries per call; defaults to 3
	BaseDelay time.Duration // first backoff delay; doubles per retry; defaults to 1s
	Logger    *zap.Logger
}

// Gateway issues completion calls with bounded retry.
type Gateway struct {
	client    Client
	attempts  int
	baseDelay time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	log       *zap.Logger
}

// New creates a Gateway over client.
func New(client Client, opts Options) *Gateway {
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Gateway{
		client:    client,
		attempts:  opts.Attempts,
		baseDelay: opts.BaseDelay,
		sleep:     sleepContext,
		log:       opts.Logger,
	}
}

// SetSleep overrides how backoff delays are waited out (for testing).
func (g *Gateway) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	g.sleep = fn
}

// SupportsSearch reports whether model accepts the search tool.
func SupportsSearch(model string) bool {
	return strings.Contains(strings.ToLower(model), "gemini-3")
}

// SupportsThinking reports whether model accepts a thinking budget.
func SupportsThinking(model string) bool {
	m := strings.ToLower(model)
	return strings.Contains(m, "gemini-3") || strings.Contains(m, "gemini-2.5")
}

// gate drops capabilities the model does not have. Missing tool support is
// a known model property, not a fault.
func (g *Gateway) gate(req Request) Request {
	if req.Search && !SupportsSearch(req.Model) {
		g.log.Debug("search tooling not supported, dropping", zap.String("model", req.Model))
		req.Search = false
	}
	if req.ThinkingBudget > 0 && !SupportsThinking(req.Model) {
		g.log.Debug("thinking budget not supported, dropping", zap.String("model", req.Model))
		req.ThinkingBudget = 0
	}
	return req
}

// Complete runs the request and returns the response text. With a schema,
// the text is validated before it is returned.
func (g *Gateway) Complete(ctx context.Context, req Request) (string, error) {
	req = g.gate(req)
	resp, err := g.generate(ctx, req)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("%s: %w", req.Model, ErrEmptyResponse)
	}
	if req.Schema != nil {
		if _, err := req.Schema.Parse(text); err != nil {
			return "", &SchemaError{Model: req.Model, Schema: req.Schema.Name(), Err: err}
		}
	}
	return text, nil
}

// CompleteJSON runs a schema-constrained request and decodes the validated
// response into dst.
func (g *Gateway) CompleteJSON(ctx context.Context, req Request, dst any) error {
	if req.Schema == nil {
		return fmt.Errorf("complete json: request for %s has no schema", req.Model)
	}
	text, err := g.Complete(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), dst); err != nil {
		return &SchemaError{Model: req.Model, Schema: req.Schema.Name(), Err: err}
	}
	return nil
}

// GenerateImage requests a single image and returns it as a data URL.
func (g *Gateway) GenerateImage(ctx context.Context, req Request) (string, error) {
	req.Search = false
	req.Schema = nil
	req.ThinkingBudget = 0
	resp, err := g.generate(ctx, req)
	if err != nil {
		return "", err
	}
	for _, img := range resp.Images {
		if len(img.Data) > 0 {
			return img.DataURL(), nil
		}
	}
	return "", fmt.Errorf("%s: %w", req.Model, ErrNoImage)
}

// generate calls the client, retrying failures with exponential backoff.
// Context cancellation is returned as-is and stops retrying immediately.
func (g *Gateway) generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		resp, err := g.client.Generate(ctx, req)
		if err == nil {
			if resp == nil {
				resp = &Response{}
			}
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lastErr = err
		if attempt == g.attempts {
			break
		}

		delay := g.Backoff(attempt)
		g.log.Warn("completion failed, retrying",
			zap.String("model", req.Model),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		if err := g.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, &TransportError{Model: req.Model, Attempts: g.attempts, Err: lastErr}
}

// Backoff returns the delay after the given failed attempt (1-based):
// base, 2*base, 4*base, ...
func (g *Gateway) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return g.baseDelay << (attempt - 1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
