package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/castlemilk/leakfinder/backend/internal/auth"
	"github.com/castlemilk/leakfinder/backend/internal/models"
	"github.com/castlemilk/leakfinder/backend/internal/plan"
	"github.com/castlemilk/leakfinder/backend/internal/search"
	"github.com/castlemilk/leakfinder/backend/internal/store"
)

// maxFindingsPerScan covers every finding one scan can produce.
const maxFindingsPerScan = 200

// GetScan returns one scan with its findings.
func (s *LeakService) GetScan(ctx context.Context, req *connect.Request[GetScanRequest]) (*connect.Response[GetScanResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.ScanID == "" {
		return nil, invalidArgument("scan_id is required")
	}

	scan, err := s.store.GetScan(ctx, claims.UID, req.Msg.ScanID)
	if err != nil {
		return nil, storeError(s.log, "get scan", "scan", err)
	}
	findings, _, err := s.store.ListFindings(ctx, claims.UID, store.FindingFilter{ScanID: scan.ID}, maxFindingsPerScan, "")
	if err != nil {
		return nil, internalError(s.log, "list scan findings", err)
	}

	return connect.NewResponse(&GetScanResponse{
		Scan:     scan,
		Findings: findings,
	}), nil
}

// ListScans lists the caller's scans, newest first.
func (s *LeakService) ListScans(ctx context.Context, req *connect.Request[ListScansRequest]) (*connect.Response[ListScansResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkPageToken(req.Msg.PageToken); err != nil {
		return nil, err
	}

	scans, next, err := s.store.ListScans(ctx, claims.UID, auth.NormalizePageSize(req.Msg.PageSize), req.Msg.PageToken)
	if err != nil {
		return nil, internalError(s.log, "list scans", err)
	}
	if scans == nil {
		scans = []*models.Scan{}
	}

	return connect.NewResponse(&ListScansResponse{
		Scans:         scans,
		NextPageToken: next,
	}), nil
}

// ListFindings lists the caller's findings by yearly gain, with optional filters.
func (s *LeakService) ListFindings(ctx context.Context, req *connect.Request[ListFindingsRequest]) (*connect.Response[ListFindingsResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	if msg.Status != "" && !msg.Status.Valid() {
		return nil, invalidArgument("unknown finding status %q", msg.Status)
	}
	if msg.Category != "" && !msg.Category.Valid() {
		return nil, invalidArgument("unknown finding category %q", msg.Category)
	}
	if err := checkPageToken(msg.PageToken); err != nil {
		return nil, err
	}

	filter := store.FindingFilter{ScanID: msg.ScanID, Status: msg.Status, Category: msg.Category}
	findings, next, err := s.store.ListFindings(ctx, claims.UID, filter, auth.NormalizePageSize(msg.PageSize), msg.PageToken)
	if err != nil {
		return nil, internalError(s.log, "list findings", err)
	}
	if findings == nil {
		findings = []*models.Finding{}
	}

	return connect.NewResponse(&ListFindingsResponse{
		Findings:      findings,
		NextPageToken: next,
	}), nil
}

// UpdateFindingStatus sets open, snoozed or resolved on a finding.
func (s *LeakService) UpdateFindingStatus(ctx context.Context, req *connect.Request[UpdateFindingStatusRequest]) (*connect.Response[UpdateFindingStatusResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.FindingID == "" {
		return nil, invalidArgument("finding_id is required")
	}

	finding, err := s.store.GetFinding(ctx, claims.UID, req.Msg.FindingID)
	if err != nil {
		return nil, storeError(s.log, "get finding", "finding", err)
	}

	changed, err := plan.ApplyFindingStatus(finding, req.Msg.Status, s.now())
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if changed {
		if err := s.store.UpdateFinding(ctx, finding); err != nil {
			return nil, storeError(s.log, "update finding", "finding", err)
		}
		s.indexFindings(ctx, []*models.Finding{finding})
	}

	return connect.NewResponse(&UpdateFindingStatusResponse{Finding: finding}), nil
}

// GetCurrentPlan returns the plan User.CurrentPlanID points at.
func (s *LeakService) GetCurrentPlan(ctx context.Context, req *connect.Request[GetCurrentPlanRequest]) (*connect.Response[GetCurrentPlanResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, claims.UID)
	if errors.Is(err, store.ErrNotFound) {
		return connect.NewResponse(&GetCurrentPlanResponse{}), nil
	}
	if err != nil {
		return nil, internalError(s.log, "get user", err)
	}
	if user.CurrentPlanID == "" {
		return connect.NewResponse(&GetCurrentPlanResponse{}), nil
	}

	p, err := s.store.GetPlan(ctx, claims.UID, user.CurrentPlanID)
	if err != nil {
		return nil, storeError(s.log, "get plan", "plan", err)
	}
	items, err := s.store.ListPlanItems(ctx, claims.UID, p.ID)
	if err != nil {
		return nil, internalError(s.log, "list plan items", err)
	}

	return connect.NewResponse(&GetCurrentPlanResponse{
		Plan: &PlanView{Plan: p, Items: items},
	}), nil
}

// UpdatePlanItemStatus moves a plan item through todo, doing, done and skipped.
func (s *LeakService) UpdatePlanItemStatus(ctx context.Context, req *connect.Request[UpdatePlanItemStatusRequest]) (*connect.Response[UpdatePlanItemStatusResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.ItemID == "" {
		return nil, invalidArgument("item_id is required")
	}
	if !req.Msg.Status.Valid() {
		return nil, invalidArgument("unknown plan item status %q", req.Msg.Status)
	}

	item, err := s.store.GetPlanItem(ctx, claims.UID, req.Msg.ItemID)
	if err != nil {
		return nil, storeError(s.log, "get plan item", "plan item", err)
	}

	changed, err := plan.ApplyStatus(item, req.Msg.Status, s.now())
	if err != nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, err)
	}
	if changed {
		if err := s.store.UpdatePlanItem(ctx, item); err != nil {
			return nil, storeError(s.log, "update plan item", "plan item", err)
		}
	}

	return connect.NewResponse(&UpdatePlanItemStatusResponse{Item: item}), nil
}

// SearchFindings runs a full-text search over the caller's findings.
func (s *LeakService) SearchFindings(ctx context.Context, req *connect.Request[SearchFindingsRequest]) (*connect.Response[SearchFindingsResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if s.index == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, fmt.Errorf("search is not configured"))
	}

	res, err := s.index.Search(ctx, search.SearchParams{
		Query:    req.Msg.Query,
		UserID:   claims.UID,
		Category: req.Msg.Category,
		Status:   req.Msg.Status,
		Page:     req.Msg.Page,
		PageSize: req.Msg.PageSize,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("finding search failed")
		return nil, connect.NewError(connect.CodeUnavailable, fmt.Errorf("search is temporarily unavailable"))
	}

	hits := res.Hits
	if hits == nil {
		hits = []*search.FindingHit{}
	}
	return connect.NewResponse(&SearchFindingsResponse{
		Hits:       hits,
		TotalCount: res.TotalCount,
		TotalPages: res.TotalPages,
		Page:       res.Page,
	}), nil
}

func checkPageToken(token string) error {
	if token == "" {
		return nil
	}
	if _, err := store.DecodePageToken(token); err != nil {
		return invalidArgument("invalid page_token")
	}
	return nil
}
