package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/castlemilk/leakfinder/backend/internal/models"
	"github.com/castlemilk/leakfinder/backend/internal/search"
	"github.com/castlemilk/leakfinder/backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// analyzed runs one CSV analysis for userID and returns its result.
func analyzed(t *testing.T, svc *LeakService, userID string) *AnalyzeResponse {
	t.Helper()
	resp, err := svc.AnalyzeCSV(testContextWithUser(userID), analyzeRequest(leakyCSV))
	require.NoError(t, err)
	return resp.Msg
}

func TestGetScan(t *testing.T) {
	svc := NewLeakService(store.NewMemoryStore(), newTestFiles(t))
	res := analyzed(t, svc, "user-1")

	t.Run("owner sees scan and findings", func(t *testing.T) {
		resp, err := svc.GetScan(testContextWithUser("user-1"), connect.NewRequest(&GetScanRequest{ScanID: res.Scan.ID}))
		require.NoError(t, err)
		assert.Equal(t, res.Scan.ID, resp.Msg.Scan.ID)
		assert.Len(t, resp.Msg.Findings, 2)
	})

	t.Run("other user gets not found", func(t *testing.T) {
		_, err := svc.GetScan(testContextWithUser("user-2"), connect.NewRequest(&GetScanRequest{ScanID: res.Scan.ID}))
		assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := svc.GetScan(testContextWithUser("user-1"), connect.NewRequest(&GetScanRequest{}))
		assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	})
}

func TestListScans(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, st.CreateScan(ctx, &models.Scan{ID: id, UserID: "user-1", CreatedAt: base.AddDate(0, 0, i)}))
	}
	svc := NewLeakService(st, failingFiles{})
	userCtx := testContextWithUser("user-1")

	resp, err := svc.ListScans(userCtx, connect.NewRequest(&ListScansRequest{PageSize: 2}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Scans, 2)
	assert.Equal(t, "s3", resp.Msg.Scans[0].ID)
	require.NotEmpty(t, resp.Msg.NextPageToken)

	resp, err = svc.ListScans(userCtx, connect.NewRequest(&ListScansRequest{PageSize: 2, PageToken: resp.Msg.NextPageToken}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Scans, 1)
	assert.Equal(t, "s1", resp.Msg.Scans[0].ID)
	assert.Empty(t, resp.Msg.NextPageToken)

	_, err = svc.ListScans(userCtx, connect.NewRequest(&ListScansRequest{PageToken: "!!not-base64!!"}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	empty, err := svc.ListScans(testContextWithUser("user-2"), connect.NewRequest(&ListScansRequest{}))
	require.NoError(t, err)
	assert.NotNil(t, empty.Msg.Scans)
	assert.Empty(t, empty.Msg.Scans)
}

func TestListScans_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := store.NewMockStore(ctrl)
	mockStore.EXPECT().
		ListScans(gomock.Any(), "user-1", int32(50), "").
		Return(nil, "", errors.New("connection reset"))

	svc := NewLeakService(mockStore, failingFiles{})
	_, err := svc.ListScans(testContextWithUser("user-1"), connect.NewRequest(&ListScansRequest{}))
	assert.Equal(t, connect.CodeInternal, connect.CodeOf(err))
}

func TestListFindings(t *testing.T) {
	svc := NewLeakService(store.NewMemoryStore(), newTestFiles(t))
	analyzed(t, svc, "user-1")
	ctx := testContextWithUser("user-1")

	tests := []struct {
		name    string
		request *ListFindingsRequest
		want    int
		code    connect.Code
	}{
		{name: "all", request: &ListFindingsRequest{}, want: 2},
		{name: "by category", request: &ListFindingsRequest{Category: models.CategoryBankFee}, want: 1},
		{name: "by status", request: &ListFindingsRequest{Status: models.FindingResolved}, want: 0},
		{name: "unknown status", request: &ListFindingsRequest{Status: "deleted"}, code: connect.CodeInvalidArgument},
		{name: "unknown category", request: &ListFindingsRequest{Category: "groceries"}, code: connect.CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.ListFindings(ctx, connect.NewRequest(tt.request))
			if tt.code != 0 {
				assert.Equal(t, tt.code, connect.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Len(t, resp.Msg.Findings, tt.want)
		})
	}
}

func TestUpdateFindingStatus(t *testing.T) {
	index := &fakeIndex{}
	svc := NewLeakService(store.NewMemoryStore(), newTestFiles(t), WithSearch(index))
	res := analyzed(t, svc, "user-1")
	findingID := res.Findings[0].ID
	ctx := testContextWithUser("user-1")
	indexedBefore := len(index.indexed)

	resp, err := svc.UpdateFindingStatus(ctx, connect.NewRequest(&UpdateFindingStatusRequest{FindingID: findingID, Status: models.FindingResolved}))
	require.NoError(t, err)
	assert.Equal(t, models.FindingResolved, resp.Msg.Finding.Status)
	assert.Len(t, index.indexed, indexedBefore+1)

	// Same status again changes nothing and is not re-indexed
	_, err = svc.UpdateFindingStatus(ctx, connect.NewRequest(&UpdateFindingStatusRequest{FindingID: findingID, Status: models.FindingResolved}))
	require.NoError(t, err)
	assert.Len(t, index.indexed, indexedBefore+1)

	_, err = svc.UpdateFindingStatus(ctx, connect.NewRequest(&UpdateFindingStatusRequest{FindingID: findingID, Status: "archived"}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = svc.UpdateFindingStatus(testContextWithUser("user-2"), connect.NewRequest(&UpdateFindingStatusRequest{FindingID: findingID, Status: models.FindingOpen}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestGetCurrentPlan_NoPlanYet(t *testing.T) {
	svc := NewLeakService(store.NewMemoryStore(), failingFiles{})
	resp, err := svc.GetCurrentPlan(testContextWithUser("user-1"), connect.NewRequest(&GetCurrentPlanRequest{}))
	require.NoError(t, err)
	assert.Nil(t, resp.Msg.Plan)
}

func TestUpdatePlanItemStatus(t *testing.T) {
	svc := NewLeakService(store.NewMemoryStore(), newTestFiles(t))
	res := analyzed(t, svc, "user-1")
	itemID := res.Plan.Items[0].ID
	ctx := testContextWithUser("user-1")

	update := func(ctx context.Context, status models.PlanItemStatus) (*models.PlanItem, error) {
		resp, err := svc.UpdatePlanItemStatus(ctx, connect.NewRequest(&UpdatePlanItemStatusRequest{ItemID: itemID, Status: status}))
		if err != nil {
			return nil, err
		}
		return resp.Msg.Item, nil
	}

	item, err := update(ctx, models.PlanItemDone)
	require.NoError(t, err)
	assert.Equal(t, models.PlanItemDone, item.Status)

	_, err = update(ctx, models.PlanItemSkipped)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	_, err = update(ctx, "archived")
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	item, err = update(ctx, models.PlanItemTodo)
	require.NoError(t, err)
	assert.Equal(t, models.PlanItemTodo, item.Status)

	_, err = update(testContextWithUser("user-2"), models.PlanItemDoing)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	current, err := svc.GetCurrentPlan(ctx, connect.NewRequest(&GetCurrentPlanRequest{}))
	require.NoError(t, err)
	assert.Equal(t, models.PlanItemTodo, current.Msg.Plan.Items[0].Status)
}

func TestSearchFindings(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		svc := NewLeakService(store.NewMemoryStore(), failingFiles{})
		_, err := svc.SearchFindings(testContextWithUser("user-1"), connect.NewRequest(&SearchFindingsRequest{Query: "netflix"}))
		assert.Equal(t, connect.CodeUnimplemented, connect.CodeOf(err))
	})

	t.Run("scoped to the caller", func(t *testing.T) {
		index := &fakeIndex{resp: &search.SearchResponse{
			Hits:       []*search.FindingHit{{ID: "f1", Title: "Netflix subscription"}},
			TotalCount: 1,
			TotalPages: 1,
		}}
		svc := NewLeakService(store.NewMemoryStore(), failingFiles{}, WithSearch(index))
		resp, err := svc.SearchFindings(testContextWithUser("user-1"), connect.NewRequest(&SearchFindingsRequest{
			Query:    "netflix",
			Category: models.CategorySubscription,
		}))
		require.NoError(t, err)
		assert.Equal(t, "user-1", index.params.UserID)
		assert.Equal(t, models.CategorySubscription, index.params.Category)
		require.Len(t, resp.Msg.Hits, 1)
		assert.Equal(t, 1, resp.Msg.TotalCount)
	})

	t.Run("backend failure", func(t *testing.T) {
		svc := NewLeakService(store.NewMemoryStore(), failingFiles{}, WithSearch(&fakeIndex{err: errors.New("timeout")}))
		_, err := svc.SearchFindings(testContextWithUser("user-1"), connect.NewRequest(&SearchFindingsRequest{Query: "x"}))
		assert.Equal(t, connect.CodeUnavailable, connect.CodeOf(err))
	})
}
