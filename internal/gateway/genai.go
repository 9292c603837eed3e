package gateway

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAIClient is the Client backed by the Gemini API.
type GenAIClient struct {
	client *genai.Client
}

// NewGenAIClient creates a Gemini API client for the given key.
func NewGenAIClient(ctx context.Context, apiKey string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIClient{client: client}, nil
}

// Generate issues one GenerateContent call.
func (c *GenAIClient) Generate(ctx context.Context, req Request) (*Response, error) {
	result, err := c.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), buildConfig(req))
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	resp := &Response{Text: result.Text()}
	for _, cand := range result.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil {
				resp.Images = append(resp.Images, Image{MIMEType: part.InlineData.MIMEType, Data: part.InlineData.Data})
			}
		}
	}
	return resp, nil
}

func buildConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{Temperature: req.Temperature}
	if req.Search {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = req.Schema.GenAI()
	}
	if req.ThinkingBudget > 0 {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(req.ThinkingBudget)}
	}
	if req.AspectRatio != "" {
		cfg.ResponseModalities = []string{"IMAGE"}
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: req.AspectRatio}
	}
	return cfg
}
