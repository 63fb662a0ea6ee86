package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/castlemilk/leakfinder/backend/internal/auth"
	"github.com/castlemilk/leakfinder/backend/internal/models"
	"github.com/castlemilk/leakfinder/backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, svc *LeakService, interceptors ...connect.Interceptor) *httptest.Server {
	t.Helper()
	path, handler := NewLeakServiceHandler(svc, connect.WithInterceptors(interceptors...))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHandler_AnalyzeThenFetchOverHTTP(t *testing.T) {
	svc := NewLeakService(store.NewMemoryStore(), newTestFiles(t))
	srv := newTestServer(t, svc, auth.LocalDevInterceptor(models.TierFree))
	ctx := context.Background()

	analyze := connect.NewClient[AnalyzeCSVRequest, AnalyzeResponse](
		srv.Client(), srv.URL+AnalyzeCSVProcedure, connect.WithCodec(Codec()))
	resp, err := analyze.CallUnary(ctx, analyzeRequest(leakyCSV))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Findings, 2)
	assert.Equal(t, auth.LocalDevUserID, resp.Msg.Scan.UserID)

	getPlan := connect.NewClient[GetCurrentPlanRequest, GetCurrentPlanResponse](
		srv.Client(), srv.URL+GetCurrentPlanProcedure, connect.WithCodec(Codec()))
	plan, err := getPlan.CallUnary(ctx, connect.NewRequest(&GetCurrentPlanRequest{}))
	require.NoError(t, err)
	require.NotNil(t, plan.Msg.Plan)
	assert.Equal(t, resp.Msg.Plan.Plan.ID, plan.Msg.Plan.Plan.ID)
	assert.Len(t, plan.Msg.Plan.Items, 2)
}

func TestHandler_RejectsAnonymousCalls(t *testing.T) {
	svc := NewLeakService(store.NewMemoryStore(), failingFiles{})
	srv := newTestServer(t, svc)

	client := connect.NewClient[ListScansRequest, ListScansResponse](
		srv.Client(), srv.URL+ListScansProcedure, connect.WithCodec(Codec()))
	_, err := client.CallUnary(context.Background(), connect.NewRequest(&ListScansRequest{}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
}

func TestHandler_InvalidArgumentCrossesTheWire(t *testing.T) {
	svc := NewLeakService(store.NewMemoryStore(), failingFiles{})
	srv := newTestServer(t, svc, auth.LocalDevInterceptor(models.TierFree))

	client := connect.NewClient[AnalyzeCSVRequest, AnalyzeResponse](
		srv.Client(), srv.URL+AnalyzeCSVProcedure, connect.WithCodec(Codec()))
	_, err := client.CallUnary(context.Background(), connect.NewRequest(&AnalyzeCSVRequest{}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	assert.Contains(t, err.Error(), "file is empty")
}

func TestCodec(t *testing.T) {
	c := Codec()
	assert.Equal(t, "json", c.Name())

	data, err := c.Marshal(&GetScanRequest{ScanID: "s1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"scan_id":"s1"}`, string(data))

	var req GetScanRequest
	require.NoError(t, c.Unmarshal(data, &req))
	assert.Equal(t, "s1", req.ScanID)
	require.NoError(t, c.Unmarshal(nil, &req))
	assert.Error(t, c.Unmarshal([]byte("{"), &req))
}
