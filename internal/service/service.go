// Package service implements the LeakService API: uploads, findings, plans and billing.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/castlemilk/leakfinder/backend/internal/analytics"
	"github.com/castlemilk/leakfinder/backend/internal/auth"
	"github.com/castlemilk/leakfinder/backend/internal/billing"
	"github.com/castlemilk/leakfinder/backend/internal/config"
	"github.com/castlemilk/leakfinder/backend/internal/filestore"
	"github.com/castlemilk/leakfinder/backend/internal/logger"
	"github.com/castlemilk/leakfinder/backend/internal/models"
	"github.com/castlemilk/leakfinder/backend/internal/plan"
	"github.com/castlemilk/leakfinder/backend/internal/search"
	"github.com/castlemilk/leakfinder/backend/internal/store"
	"github.com/rs/zerolog"
)

// FindingIndex is the search backend. *search.AlgoliaClient implements it.
type FindingIndex interface {
	IndexFindings(ctx context.Context, findings []*models.Finding) error
	Search(ctx context.Context, params search.SearchParams) (*search.SearchResponse, error)
}

// Payments is the billing provider. *billing.StripeClient implements it.
type Payments interface {
	GetOrCreateCustomer(ctx context.Context, email, userID string) (string, error)
	CreateCheckoutSession(ctx context.Context, customerID, userID string) (*billing.CheckoutResult, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*billing.SubscriptionDetails, error)
	CancelSubscriptionAtPeriodEnd(ctx context.Context, subscriptionID string) (*billing.SubscriptionDetails, error)
}

type LeakService struct {
	store     store.Store
	files     filestore.FileStore
	generator plan.StepGenerator
	index     FindingIndex
	payments  Payments
	analytics analytics.Sink
	limits    config.LimitsConfig
	timeout   time.Duration
	log       zerolog.Logger
	now       func() time.Time

	freePlans *plan.Builder
	proPlans  *plan.Builder
}

// Option configures a LeakService.
type Option func(*LeakService)

// WithStepGenerator enables generated plan steps for Pro users.
func WithStepGenerator(g plan.StepGenerator) Option {
	return func(s *LeakService) { s.generator = g }
}

// WithStepTimeout bounds each generator call.
func WithStepTimeout(d time.Duration) Option {
	return func(s *LeakService) { s.timeout = d }
}

// WithSearch enables finding indexing and SearchFindings.
func WithSearch(index FindingIndex) Option {
	return func(s *LeakService) { s.index = index }
}

// WithPayments enables the checkout and subscription procedures.
func WithPayments(p Payments) Option {
	return func(s *LeakService) { s.payments = p }
}

// WithAnalytics exports one row per scan.
func WithAnalytics(sink analytics.Sink) Option {
	return func(s *LeakService) { s.analytics = sink }
}

func WithLimits(l config.LimitsConfig) Option {
	return func(s *LeakService) { s.limits = l }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *LeakService) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *LeakService) { s.now = now }
}

// NewLeakService creates the service. Search, payments and step generation are
// optional and stay disabled unless an option provides them.
func NewLeakService(st store.Store, files filestore.FileStore, opts ...Option) *LeakService {
	s := &LeakService{
		store:     st,
		files:     files,
		analytics: analytics.NopSink{},
		limits:    config.Default().Limits,
		timeout:   plan.DefaultStepTimeout,
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.Component(s.log, "leak_service")

	s.freePlans = plan.NewBuilder(nil, plan.WithLogger(s.log), plan.WithClock(s.now))
	s.proPlans = plan.NewBuilder(s.generator,
		plan.WithStepTimeout(s.timeout),
		plan.WithLogger(s.log),
		plan.WithClock(s.now),
	)
	return s
}

// loadUser returns the stored profile, or a fresh unsaved one built from the claims.
func (s *LeakService) loadUser(ctx context.Context, claims *auth.UserClaims) (*models.User, error) {
	user, err := s.store.GetUser(ctx, claims.UID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	now := s.now()
	return &models.User{
		ID:               claims.UID,
		Email:            claims.Email,
		DisplayName:      claims.DisplayName,
		SubscriptionTier: models.TierFree,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// subscriptionOf prefers the token claims and falls back to the stored profile,
// which the webhook updates before the client refreshes its token.
func subscriptionOf(ctx context.Context, user *models.User) *auth.SubscriptionInfo {
	info := auth.GetSubscription(ctx)
	if info.IsPro() || user == nil {
		return info
	}
	stored := &auth.SubscriptionInfo{Tier: user.SubscriptionTier, Status: user.SubscriptionStatus}
	if stored.IsPro() {
		return stored
	}
	return info
}

// scanLimit is zero for unlimited.
func (s *LeakService) scanLimit(sub *auth.SubscriptionInfo) int {
	if sub.IsPro() {
		return 0
	}
	return s.limits.FreeScansPerMonth
}

func (s *LeakService) scansThisMonth(ctx context.Context, userID string) (int, error) {
	return s.store.CountScansSince(ctx, userID, store.MonthStart(s.now()))
}
