package llm

import (
	"context"
	"fmt"

	"github.com/castlemilk/leakfinder/backend/internal/plan"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiGenerator writes plan steps with the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// GeminiOptions configures NewGeminiGenerator. BaseURL is for tests.
type GeminiOptions struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewGeminiGenerator creates a generator backed by the Gemini developer API.
func NewGeminiGenerator(ctx context.Context, opts GeminiOptions) (*GeminiGenerator, error) {
	if opts.APIKey == "" {
		return nil, &GenerationError{Code: ErrNotConfigured, Provider: "gemini", Message: "GEMINI_API_KEY not set"}
	}
	model := opts.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// GenerateSteps implements plan.StepGenerator.
func (g *GeminiGenerator) GenerateSteps(ctx context.Context, req plan.StepRequest) ([]string, error) {
	if g == nil || g.client == nil {
		return nil, &GenerationError{Code: ErrNotConfigured, Provider: "gemini", Message: "client not initialized"}
	}
	return generateSteps(ctx, "gemini", g.complete, req)
}

func (g *GeminiGenerator) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
