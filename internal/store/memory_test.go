package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/castlemilk/leakfinder/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageToken(t *testing.T) {
	assert.Equal(t, "", EncodePageToken(""))
	id, err := DecodePageToken(EncodePageToken("scan-42"))
	require.NoError(t, err)
	assert.Equal(t, "scan-42", id)

	_, err = DecodePageToken("%%%")
	assert.Error(t, err)
}

func TestMonthStart(t *testing.T) {
	got := MonthStart(time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestMemoryStore_Users(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.GetUser(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.UpdateUser(ctx, &models.User{ID: "u1", StripeCustomerID: "cus_1", SubscriptionTier: models.TierFree}))
	user, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.TierFree, user.SubscriptionTier)

	// Returned records are copies
	user.SubscriptionTier = models.TierPro
	again, _ := s.GetUser(ctx, "u1")
	assert.Equal(t, models.TierFree, again.SubscriptionTier)

	byCustomer, err := s.GetUserByStripeCustomer(ctx, "cus_1")
	require.NoError(t, err)
	assert.Equal(t, "u1", byCustomer.ID)

	_, err = s.GetUserByStripeCustomer(ctx, "cus_404")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, s.UpdateUser(ctx, &models.User{}))
}

func TestMemoryStore_ScansAreUserScoped(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.CreateScan(ctx, &models.Scan{
			ID:        fmt.Sprintf("s%d", i),
			UserID:    "u1",
			CreatedAt: base.AddDate(0, 0, i),
		}))
	}
	require.NoError(t, s.CreateScan(ctx, &models.Scan{ID: "other", UserID: "u2", CreatedAt: base}))

	_, err := s.GetScan(ctx, "u1", "other")
	assert.ErrorIs(t, err, ErrNotFound)

	page, next, err := s.ListScans(ctx, "u1", 2, "")
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "s4", page[0].ID)
	assert.Equal(t, "s3", page[1].ID)
	require.NotEmpty(t, next)

	page, next, err = s.ListScans(ctx, "u1", 2, next)
	require.NoError(t, err)
	assert.Equal(t, []string{"s2", "s1"}, []string{page[0].ID, page[1].ID})

	page, next, err = s.ListScans(ctx, "u1", 2, next)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "s0", page[0].ID)
	assert.Empty(t, next)

	n, err := s.CountScansSince(ctx, "u1", base.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMemoryStore_Findings(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	findings := []*models.Finding{
		{UserID: "u1", ScanID: "s1", Category: models.CategorySubscription, GainEstimatedYearlyCents: 100, Status: models.FindingOpen},
		{UserID: "u1", ScanID: "s1", Category: models.CategoryBankFee, GainEstimatedYearlyCents: 900, Status: models.FindingOpen},
		{UserID: "u1", ScanID: "s2", Category: models.CategorySubscription, GainEstimatedYearlyCents: 500, Status: models.FindingResolved},
		{UserID: "u2", ScanID: "s9", Category: models.CategorySubscription, GainEstimatedYearlyCents: 9999, Status: models.FindingOpen},
	}
	require.NoError(t, s.CreateFindings(ctx, findings))
	for _, f := range findings {
		assert.NotEmpty(t, f.ID)
	}

	all, next, err := s.ListFindings(ctx, "u1", FindingFilter{}, 0, "")
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, all, 3)
	assert.Equal(t, int64(900), all[0].GainEstimatedYearlyCents)
	assert.Equal(t, int64(100), all[2].GainEstimatedYearlyCents)

	open, _, err := s.ListFindings(ctx, "u1", FindingFilter{Status: models.FindingOpen}, 0, "")
	require.NoError(t, err)
	assert.Len(t, open, 2)

	s1Subs, _, err := s.ListFindings(ctx, "u1", FindingFilter{ScanID: "s1", Category: models.CategorySubscription}, 0, "")
	require.NoError(t, err)
	assert.Len(t, s1Subs, 1)

	// Another user's finding cannot be read or overwritten
	foreign := findings[3]
	_, err = s.GetFinding(ctx, "u1", foreign.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	hijack := *foreign
	hijack.UserID = "u1"
	assert.ErrorIs(t, s.UpdateFinding(ctx, &hijack), ErrNotFound)

	mine := *findings[0]
	mine.Status = models.FindingSnoozed
	require.NoError(t, s.UpdateFinding(ctx, &mine))
	got, err := s.GetFinding(ctx, "u1", mine.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FindingSnoozed, got.Status)
}

func TestMemoryStore_Plans(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	plan := &models.Plan{UserID: "u1", Version: 1}
	items := []*models.PlanItem{
		{UserID: "u1", Title: "second", Rank: 2, Status: models.PlanItemTodo},
		{UserID: "u1", Title: "first", Rank: 1, Status: models.PlanItemTodo},
	}
	require.NoError(t, s.CreatePlan(ctx, plan, items))
	require.NotEmpty(t, plan.ID)
	assert.Equal(t, plan.ID, items[0].PlanID)

	got, err := s.ListPlanItems(ctx, "u1", plan.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Title)

	other, err := s.ListPlanItems(ctx, "u2", plan.ID)
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = s.GetPlan(ctx, "u2", plan.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	item, err := s.GetPlanItem(ctx, "u1", items[1].ID)
	require.NoError(t, err)
	item.Status = models.PlanItemDoing
	require.NoError(t, s.UpdatePlanItem(ctx, item))

	item, err = s.GetPlanItem(ctx, "u1", items[1].ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanItemDoing, item.Status)

	_, err = s.GetPlanItem(ctx, "u2", items[1].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPaginate_StaleCursor(t *testing.T) {
	ids := []string{"a", "b", "c"}
	page, next := paginate(ids, func(s string) string { return s }, 2, EncodePageToken("zzz"))
	assert.Nil(t, page)
	assert.Empty(t, next)

	page, next = paginate(ids, func(s string) string { return s }, 2, "")
	assert.Equal(t, []string{"a", "b"}, page)
	assert.Equal(t, EncodePageToken("b"), next)
}
