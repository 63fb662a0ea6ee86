package llm

import (
	"context"
	"fmt"

	"github.com/castlemilk/leakfinder/backend/internal/config"
	"github.com/castlemilk/leakfinder/backend/internal/plan"
)

// NewFromConfig returns the configured generator, or nil for provider "none".
func NewFromConfig(ctx context.Context, cfg config.AIConfig) (plan.StepGenerator, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "gemini":
		g, err := NewGeminiGenerator(ctx, GeminiOptions{APIKey: cfg.GeminiAPIKey, Model: cfg.Model})
		if err != nil {
			return nil, err
		}
		return g, nil
	case "anthropic":
		g, err := NewAnthropicGenerator(AnthropicOptions{APIKey: cfg.AnthropicAPIKey, Model: cfg.Model})
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
