package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/castlemilk/leakfinder/backend/internal/analytics"
	"github.com/castlemilk/leakfinder/backend/internal/auth"
	"github.com/castlemilk/leakfinder/backend/internal/billing"
	"github.com/castlemilk/leakfinder/backend/internal/filestore"
	"github.com/castlemilk/leakfinder/backend/internal/models"
	"github.com/castlemilk/leakfinder/backend/internal/plan"
	"github.com/castlemilk/leakfinder/backend/internal/search"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 4, 10, 9, 30, 0, 0, time.UTC)

// leakyCSV has a Netflix subscription, a monthly account fee, one grocery debit
// and one unreadable row.
const leakyCSV = "Date;Libelle;Montant\n" +
	"15/01/2024;PRLV SEPA NETFLIX;-12,99\n" +
	"15/02/2024;PRLV SEPA NETFLIX;-12,99\n" +
	"15/03/2024;PRLV SEPA NETFLIX;-12,99\n" +
	"05/01/2024;FRAIS TENUE COMPTE;-8,00\n" +
	"05/02/2024;FRAIS TENUE COMPTE;-8,00\n" +
	"05/03/2024;FRAIS TENUE COMPTE;-8,00\n" +
	"20/01/2024;CARREFOUR MARKET;-54,20\n" +
	"garbage;X;1\n"

const quietCSV = "Date;Libelle;Montant\n" +
	"20/01/2024;CARREFOUR MARKET;-54,20\n" +
	"25/01/2024;VIR SALAIRE;2500,00\n"

// testContextWithUser creates a context with authenticated user claims for testing
func testContextWithUser(userID string) context.Context {
	return auth.WithUserClaims(context.Background(), &auth.UserClaims{
		UID:   userID,
		Email: userID + "@test.local",
	})
}

// testContextWithPro adds an active Pro subscription to testContextWithUser.
func testContextWithPro(userID string) context.Context {
	return auth.WithSubscription(testContextWithUser(userID), &auth.SubscriptionInfo{
		Tier:   models.TierPro,
		Status: models.StatusActive,
	})
}

func newTestFiles(t *testing.T) *filestore.LocalStore {
	t.Helper()
	files, err := filestore.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return files
}

type failingFiles struct{}

func (failingFiles) Put(context.Context, string, string, string, []byte) (filestore.Handle, error) {
	return "", errors.New("bucket unavailable")
}

func (failingFiles) Get(context.Context, string, filestore.Handle) ([]byte, error) {
	return nil, filestore.ErrNotFound
}

type fakeGenerator struct {
	steps []string
	err   error
	calls int
}

func (g *fakeGenerator) GenerateSteps(ctx context.Context, req plan.StepRequest) ([]string, error) {
	g.calls++
	return g.steps, g.err
}

type fakeIndex struct {
	mu      sync.Mutex
	indexed []*models.Finding
	params  search.SearchParams
	resp    *search.SearchResponse
	err     error
}

func (f *fakeIndex) IndexFindings(ctx context.Context, findings []*models.Finding) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, findings...)
	return f.err
}

func (f *fakeIndex) Search(ctx context.Context, params search.SearchParams) (*search.SearchResponse, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type recordingSink struct {
	mu   sync.Mutex
	runs []*analytics.ScanRun
	err  error
}

func (s *recordingSink) RecordScan(ctx context.Context, run *analytics.ScanRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return s.err
}

type fakePayments struct {
	customerCalls int
	checkoutFor   string
	canceled      string
	details       *billing.SubscriptionDetails
	err           error
}

func (p *fakePayments) GetOrCreateCustomer(ctx context.Context, email, userID string) (string, error) {
	p.customerCalls++
	if p.err != nil {
		return "", p.err
	}
	return "cus_" + userID, nil
}

func (p *fakePayments) CreateCheckoutSession(ctx context.Context, customerID, userID string) (*billing.CheckoutResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.checkoutFor = customerID
	return &billing.CheckoutResult{URL: "https://checkout.stripe.test/" + userID, SessionID: "cs_test_1"}, nil
}

func (p *fakePayments) GetSubscription(ctx context.Context, subscriptionID string) (*billing.SubscriptionDetails, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.details, nil
}

func (p *fakePayments) CancelSubscriptionAtPeriodEnd(ctx context.Context, subscriptionID string) (*billing.SubscriptionDetails, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.canceled = subscriptionID
	d := *p.details
	d.CancelAtPeriodEnd = true
	return &d, nil
}
