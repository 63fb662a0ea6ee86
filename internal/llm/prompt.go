package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/castlemilk/leakfinder/backend/internal/detection"
	"github.com/castlemilk/leakfinder/backend/internal/plan"
)

// completeFunc sends one prompt and returns the raw model text.
type completeFunc func(ctx context.Context, prompt string) (string, error)

type stepsResponse struct {
	Steps []string `json:"steps"`
}

// BuildStepPrompt writes the instruction sent to every provider.
func BuildStepPrompt(req plan.StepRequest) string {
	var b strings.Builder
	b.WriteString("You help people stop paying for things they do not need.\n")
	b.WriteString("Write a short action plan for the recurring charge below.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", req.Title)
	if req.Description != "" {
		fmt.Fprintf(&b, "Details: %s\n", req.Description)
	}
	if req.Category != "" {
		fmt.Fprintf(&b, "Kind: %s\n", req.Category)
	}
	fmt.Fprintf(&b, "Estimated yearly saving: %s\n", detection.FormatCents(req.GainYearlyCents))
	fmt.Fprintf(&b, "Expected effort: %d minutes\n\n", req.EffortMinutes)
	fmt.Fprintf(&b, "Rules:\n- Between %d and %d steps.\n", plan.MinSteps, plan.MaxSteps)
	b.WriteString("- Each step is one concrete sentence the user can act on.\n")
	b.WriteString("- Do not invent phone numbers, URLs or prices.\n\n")
	b.WriteString(`Respond with JSON only, in this exact shape: {"steps": ["...", "..."]}`)
	return b.String()
}

// ParseSteps extracts the steps array from a model response.
func ParseSteps(provider, raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &GenerationError{Code: ErrEmptyResponse, Provider: provider, Message: "empty response"}
	}

	var resp stepsResponse
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &resp); err != nil {
		return nil, &GenerationError{Code: ErrMalformedResponse, Provider: provider, Message: "response is not a steps object", Cause: err}
	}
	if len(resp.Steps) == 0 {
		return nil, &GenerationError{Code: ErrEmptyResponse, Provider: provider, Message: "response has no steps"}
	}
	return resp.Steps, nil
}

// cleanModelJSON strips markdown fences and any text around the outermost object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}

// generateSteps runs one completion and parses it. Shared by all providers.
func generateSteps(ctx context.Context, provider string, complete completeFunc, req plan.StepRequest) ([]string, error) {
	text, err := complete(ctx, BuildStepPrompt(req))
	if err != nil {
		if CodeOf(err) != "" {
			return nil, err
		}
		return nil, callError(ctx, provider, err)
	}
	return ParseSteps(provider, text)
}
