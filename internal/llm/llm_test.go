package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/castlemilk/leakfinder/backend/internal/config"
	"github.com/castlemilk/leakfinder/backend/internal/models"
	"github.com/castlemilk/leakfinder/backend/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var netflixReq = plan.StepRequest{
	Category:        models.CategorySubscription,
	Title:           "Netflix subscription",
	Description:     "You pay Netflix about €12.00 every month.",
	GainYearlyCents: 14400,
	EffortMinutes:   10,
}

func TestBuildStepPrompt(t *testing.T) {
	p := BuildStepPrompt(netflixReq)
	assert.Contains(t, p, "Netflix subscription")
	assert.Contains(t, p, "€144.00")
	assert.Contains(t, p, "10 minutes")
	assert.Contains(t, p, `{"steps"`)
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"steps":["a"]}`, `{"steps":["a"]}`},
		{"json fence", "```json\n{\"steps\":[\"a\"]}\n```", `{"steps":["a"]}`},
		{"bare fence", "```\n{\"steps\":[]}\n```", `{"steps":[]}`},
		{"surrounding prose", "Here you go: {\"steps\":[\"a\"]} Enjoy!", `{"steps":["a"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanModelJSON(tt.in))
		})
	}
}

func TestParseSteps(t *testing.T) {
	steps, err := ParseSteps("gemini", "```json\n{\"steps\": [\"a\", \"b\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, steps)

	_, err = ParseSteps("gemini", "   ")
	assert.Equal(t, ErrEmptyResponse, CodeOf(err))

	_, err = ParseSteps("gemini", "not json")
	assert.Equal(t, ErrMalformedResponse, CodeOf(err))

	_, err = ParseSteps("gemini", `{"steps": []}`)
	assert.Equal(t, ErrEmptyResponse, CodeOf(err))
}

func TestGenerateStepsMapsErrors(t *testing.T) {
	t.Run("transport error is unavailable", func(t *testing.T) {
		_, err := generateSteps(context.Background(), "fake", func(context.Context, string) (string, error) {
			return "", errors.New("connection refused")
		}, netflixReq)
		assert.Equal(t, ErrUnavailable, CodeOf(err))
		var ge *GenerationError
		require.True(t, errors.As(err, &ge))
		assert.Equal(t, "fake", ge.Provider)
	})

	t.Run("deadline is a timeout", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		defer cancel()
		_, err := generateSteps(ctx, "fake", func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}, netflixReq)
		assert.Equal(t, ErrTimeout, CodeOf(err))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("success", func(t *testing.T) {
		steps, err := generateSteps(context.Background(), "fake", func(_ context.Context, prompt string) (string, error) {
			assert.Contains(t, prompt, "Netflix")
			return `{"steps":["1","2","3","4"]}`, nil
		}, netflixReq)
		require.NoError(t, err)
		assert.Len(t, steps, 4)
	})
}

func TestNewGeneratorsRequireKeys(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), GeminiOptions{})
	assert.Equal(t, ErrNotConfigured, CodeOf(err))

	_, err = NewAnthropicGenerator(AnthropicOptions{})
	assert.Equal(t, ErrNotConfigured, CodeOf(err))

	var g *GeminiGenerator
	_, err = g.GenerateSteps(context.Background(), netflixReq)
	assert.Equal(t, ErrNotConfigured, CodeOf(err))
}

func TestNewFromConfig(t *testing.T) {
	gen, err := NewFromConfig(context.Background(), config.AIConfig{Provider: "none"})
	require.NoError(t, err)
	assert.Nil(t, gen)

	gen, err = NewFromConfig(context.Background(), config.AIConfig{Provider: "anthropic", AnthropicAPIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicGenerator{}, gen)

	_, err = NewFromConfig(context.Background(), config.AIConfig{Provider: "gemini"})
	assert.Equal(t, ErrNotConfigured, CodeOf(err))

	_, err = NewFromConfig(context.Background(), config.AIConfig{Provider: "eliza"})
	assert.Error(t, err)
}

func TestAnthropicGeneratorAgainstServer(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "k", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "msg_1",
			"type":  "message",
			"role":  "assistant",
			"model": DefaultAnthropicModel,
			"content": []map[string]any{
				{"type": "text", "text": "```json\n{\"steps\":[\"Open the app\",\"Go to account\",\"Cancel\",\"Check statement\"]}\n```"},
			},
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 20},
		})
	}))
	defer srv.Close()

	g, err := NewAnthropicGenerator(AnthropicOptions{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	steps, err := g.GenerateSteps(context.Background(), netflixReq)
	require.NoError(t, err)
	assert.Equal(t, []string{"Open the app", "Go to account", "Cancel", "Check statement"}, steps)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAnthropicGeneratorDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"overloaded"}}`))
	}))
	defer srv.Close()

	g, err := NewAnthropicGenerator(AnthropicOptions{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = g.GenerateSteps(context.Background(), netflixReq)
	assert.Equal(t, ErrUnavailable, CodeOf(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestBuilderFallsBackWhenProviderIsDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g, err := NewAnthropicGenerator(AnthropicOptions{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	items := plan.NewBuilder(g).Build(context.Background(), []*models.Finding{{
		Title:                    "Netflix subscription",
		GainEstimatedYearlyCents: 14400,
		Confidence:               0.9,
	}})
	require.Len(t, items, 1)
	assert.Equal(t, models.StepsFromTemplate, items[0].StepsSource)
	assert.Len(t, items[0].Steps, 4)
}
