package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/castlemilk/leakfinder/backend/internal/plan"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-sonnet-4-5-20250929"

// AnthropicGenerator writes plan steps with the Anthropic Messages API.
type AnthropicGenerator struct {
	client anthropic.Client
	model  string
}

// AnthropicOptions configures NewAnthropicGenerator. BaseURL is for tests.
type AnthropicOptions struct {
	APIKey  string
	Model   string
	BaseURL string
}

// NewAnthropicGenerator creates a generator. The SDK's own retries are disabled;
// a failed call falls back to template steps instead.
func NewAnthropicGenerator(opts AnthropicOptions) (*AnthropicGenerator, error) {
	if opts.APIKey == "" {
		return nil, &GenerationError{Code: ErrNotConfigured, Provider: "anthropic", Message: "ANTHROPIC_API_KEY not set"}
	}
	model := opts.Model
	if model == "" {
		model = DefaultAnthropicModel
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &AnthropicGenerator{client: anthropic.NewClient(reqOpts...), model: model}, nil
}

// GenerateSteps implements plan.StepGenerator.
func (g *AnthropicGenerator) GenerateSteps(ctx context.Context, req plan.StepRequest) ([]string, error) {
	return generateSteps(ctx, "anthropic", g.complete, req)
}

func (g *AnthropicGenerator) complete(ctx context.Context, prompt string) (string, error) {
	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String(), nil
}
