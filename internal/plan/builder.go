// Package plan ranks findings into an action plan and attaches steps to each item.
package plan

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/castlemilk/leakfinder/backend/internal/models"
	"github.com/rs/zerolog"
)

const (
	// MaxItems is the number of findings kept in a plan.
	MaxItems = 6
	// MinSteps and MaxSteps bound a usable generated step list.
	MinSteps = 4
	MaxSteps = 6
	// DefaultStepTimeout bounds each generator call.
	DefaultStepTimeout = 8 * time.Second
)

// ErrNoGenerator is reported when steps are requested without a generator.
var ErrNoGenerator = errors.New("no step generator configured")

// StepRequest describes the finding a generator writes steps for.
type StepRequest struct {
	Category        models.FindingCategory
	Title           string
	Description     string
	GainYearlyCents int64
	EffortMinutes   int
}

// StepGenerator turns a finding into ordered, human-readable action steps.
type StepGenerator interface {
	GenerateSteps(ctx context.Context, req StepRequest) ([]string, error)
}

// Builder ranks findings and fills in steps. It never fails: any generator
// problem falls back to the fixed template.
type Builder struct {
	generator StepGenerator
	timeout   time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithStepTimeout overrides the per-call generator timeout.
func WithStepTimeout(d time.Duration) Option {
	return func(b *Builder) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithLogger sets the logger used to record fallbacks.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a builder. A nil generator means template steps only.
func NewBuilder(generator StepGenerator, opts ...Option) *Builder {
	b := &Builder{
		generator: generator,
		timeout:   DefaultStepTimeout,
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// PriorityScore is gain times confidence, rounded to the nearest integer.
func PriorityScore(gainCents int64, confidence float64) int64 {
	return int64(math.Round(float64(gainCents) * confidence))
}

// Rank orders findings by priority score, highest first, then by title, and
// keeps the top MaxItems. The input slice is not modified.
func Rank(findings []*models.Finding) []*models.Finding {
	ranked := make([]*models.Finding, len(findings))
	copy(ranked, findings)
	sort.SliceStable(ranked, func(i, j int) bool {
		si := PriorityScore(ranked[i].GainEstimatedYearlyCents, ranked[i].Confidence)
		sj := PriorityScore(ranked[j].GainEstimatedYearlyCents, ranked[j].Confidence)
		if si != sj {
			return si > sj
		}
		return ranked[i].Title < ranked[j].Title
	})
	if len(ranked) > MaxItems {
		ranked = ranked[:MaxItems]
	}
	return ranked
}

// Build returns one plan item per ranked finding, in rank order. Generator calls
// run one after another, each under its own timeout.
func (b *Builder) Build(ctx context.Context, findings []*models.Finding) []*models.PlanItem {
	ranked := Rank(findings)
	now := b.now()

	items := make([]*models.PlanItem, 0, len(ranked))
	for i, f := range ranked {
		steps, source := b.steps(ctx, f)
		items = append(items, &models.PlanItem{
			FindingID:                f.ID,
			UserID:                   f.UserID,
			Category:                 f.Category,
			Title:                    f.Title,
			Description:              f.Description,
			GainEstimatedYearlyCents: f.GainEstimatedYearlyCents,
			EffortMinutes:            f.EffortMinutes,
			Confidence:               f.Confidence,
			PriorityScore:            PriorityScore(f.GainEstimatedYearlyCents, f.Confidence),
			Rank:                     i + 1,
			Status:                   models.PlanItemTodo,
			Steps:                    steps,
			StepsSource:              source,
			CreatedAt:                now,
			UpdatedAt:                now,
		})
	}
	return items
}

func (b *Builder) steps(ctx context.Context, f *models.Finding) ([]string, models.StepsSource) {
	steps, err := b.generate(ctx, f)
	if err != nil {
		if !errors.Is(err, ErrNoGenerator) {
			b.log.Warn().Err(err).Str("finding", f.Title).Msg("step generation failed, using template")
		}
		return TemplateSteps(f.Title), models.StepsFromTemplate
	}
	return steps, models.StepsFromAI
}

func (b *Builder) generate(ctx context.Context, f *models.Finding) ([]string, error) {
	if b.generator == nil {
		return nil, ErrNoGenerator
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	raw, err := b.generator.GenerateSteps(callCtx, StepRequest{
		Category:        f.Category,
		Title:           f.Title,
		Description:     f.Description,
		GainYearlyCents: f.GainEstimatedYearlyCents,
		EffortMinutes:   f.EffortMinutes,
	})
	if err != nil {
		return nil, err
	}
	// A generator that ignores its context still loses after the deadline.
	if err := callCtx.Err(); err != nil {
		return nil, err
	}
	return cleanSteps(raw)
}

// cleanSteps drops blank steps and clips to MaxSteps.
func cleanSteps(raw []string) ([]string, error) {
	steps := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	if len(steps) < MinSteps {
		return nil, fmt.Errorf("generator returned %d usable steps, need at least %d", len(steps), MinSteps)
	}
	if len(steps) > MaxSteps {
		steps = steps[:MaxSteps]
	}
	return steps, nil
}

// TemplateSteps is the fixed fallback plan for a finding.
func TemplateSteps(title string) []string {
	return []string{
		fmt.Sprintf("Find the contract or account behind %q in your emails or bank app.", title),
		"Check whether you still use it and whether a cheaper option exists.",
		fmt.Sprintf("Cancel, downgrade or renegotiate %q.", title),
		"Check your next statement to confirm the charge has stopped or dropped.",
	}
}
