package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/castlemilk/leakfinder/backend/internal/analytics"
	"github.com/castlemilk/leakfinder/backend/internal/auth"
	"github.com/castlemilk/leakfinder/backend/internal/csvimport"
	"github.com/castlemilk/leakfinder/backend/internal/detection"
	"github.com/castlemilk/leakfinder/backend/internal/documents"
	"github.com/castlemilk/leakfinder/backend/internal/models"
	"github.com/google/uuid"
)

// PreviewCSV returns the first rows of a file so the user can pick the column mapping.
// Nothing is stored.
func (s *LeakService) PreviewCSV(ctx context.Context, req *connect.Request[PreviewCSVRequest]) (*connect.Response[PreviewCSVResponse], error) {
	if _, err := auth.RequireAuth(ctx); err != nil {
		return nil, err
	}
	if err := s.checkUpload(req.Msg.Content); err != nil {
		return nil, err
	}

	table, err := csvimport.Preview(req.Msg.Content, req.Msg.HasHeader)
	if err != nil {
		return nil, invalidArgument("could not read file: %v", err)
	}

	return connect.NewResponse(&PreviewCSVResponse{
		Header:      table.Header,
		Rows:        table.Rows,
		Delimiter:   table.Delimiter,
		ColumnCount: table.ColumnCount(),
		Truncated:   table.Truncated,
	}), nil
}

// AnalyzeCSV runs the whole pipeline on a bank export and stores the outcome.
// Invalid input is rejected before anything is written.
func (s *LeakService) AnalyzeCSV(ctx context.Context, req *connect.Request[AnalyzeCSVRequest]) (*connect.Response[AnalyzeResponse], error) {
	started := s.now()
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	if err := s.checkUpload(msg.Content); err != nil {
		return nil, err
	}

	user, sub, err := s.admit(ctx, claims)
	if err != nil {
		return nil, err
	}

	table, err := csvimport.Parse(msg.Content, csvimport.ParseOptions{HasHeader: msg.HasHeader})
	if err != nil {
		return nil, invalidArgument("could not read file: %v", err)
	}
	if err := msg.Mapping.Validate(table.ColumnCount()); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	normalized := csvimport.NormalizeTable(table, msg.Mapping)
	if len(normalized.Transactions) == 0 {
		return nil, invalidArgument("no row could be read with this column mapping")
	}

	var warnings []string
	if table.Truncated {
		warnings = append(warnings, fmt.Sprintf("only the first %d rows were analyzed", csvimport.MaxAnalyzeRows))
	}
	if normalized.Dropped > 0 {
		warnings = append(warnings, fmt.Sprintf("%d rows could not be read and were skipped", normalized.Dropped))
	}

	detected := detection.Detect(normalized.Transactions)
	s.log.Debug().
		Str("user_id", claims.UID).
		Int("rows", len(normalized.Transactions)).
		Int("groups", detected.GroupsExamined).
		Int("eligible", detected.GroupsEligible).
		Int("findings", len(detected.Findings)).
		Msg("detection finished")

	scan := &models.Scan{
		Source:      models.SourceCSV,
		Filename:    msg.Filename,
		RowsParsed:  len(normalized.Transactions),
		RowsDropped: normalized.Dropped,
	}
	res, err := s.record(ctx, upload{
		user:        user,
		sub:         sub,
		scan:        scan,
		content:     msg.Content,
		contentType: "text/csv",
		findings:    detected.Findings,
		warnings:    warnings,
		started:     started,
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(res), nil
}

// AnalyzeDocument reads an energy bill, insurance contract or tax notice.
func (s *LeakService) AnalyzeDocument(ctx context.Context, req *connect.Request[AnalyzeDocumentRequest]) (*connect.Response[AnalyzeResponse], error) {
	started := s.now()
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	if err := s.checkUpload(msg.Content); err != nil {
		return nil, err
	}

	user, sub, err := s.admit(ctx, claims)
	if err != nil {
		return nil, err
	}

	analysis := documents.Analyze(msg.Content)
	if analysis.Error != nil {
		s.log.Debug().Err(analysis.Error).Str("user_id", claims.UID).Msg("document text extraction failed")
	}
	if strings.TrimSpace(analysis.Text) == "" {
		return nil, invalidArgument("no readable text in document; scanned documents are not supported")
	}

	var warnings []string
	if analysis.IsScanned {
		warnings = append(warnings, "document looks scanned, some amounts may have been missed")
	}

	contentType := msg.ContentType
	if contentType == "" {
		contentType = "text/plain"
		if documents.IsPDF(msg.Content) {
			contentType = "application/pdf"
		}
	}

	res, err := s.record(ctx, upload{
		user: user,
		sub:  sub,
		scan: &models.Scan{
			Source:     models.SourceDocument,
			Filename:   msg.Filename,
			RowsParsed: len(analysis.Lines),
		},
		content:     msg.Content,
		contentType: contentType,
		findings:    documents.DetectFindings(analysis),
		warnings:    warnings,
		started:     started,
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(res), nil
}

func (s *LeakService) checkUpload(content []byte) error {
	if len(content) == 0 {
		return invalidArgument("file is empty")
	}
	if limit := s.limits.MaxUploadBytes; limit > 0 && int64(len(content)) > limit {
		return invalidArgument("file is larger than %d bytes", limit)
	}
	return nil
}

// admit loads the caller and enforces the monthly scan quota.
func (s *LeakService) admit(ctx context.Context, claims *auth.UserClaims) (*models.User, *auth.SubscriptionInfo, error) {
	user, err := s.loadUser(ctx, claims)
	if err != nil {
		return nil, nil, internalError(s.log, "load user", err)
	}
	sub := subscriptionOf(ctx, user)

	limit := s.scanLimit(sub)
	if limit <= 0 {
		return user, sub, nil
	}
	used, err := s.scansThisMonth(ctx, user.ID)
	if err != nil {
		return nil, nil, internalError(s.log, "count scans", err)
	}
	if used >= limit {
		return nil, nil, connect.NewError(connect.CodeResourceExhausted,
			fmt.Errorf("the free plan includes %d scans per month, upgrade to Pro for more", limit))
	}
	return user, sub, nil
}

type upload struct {
	user        *models.User
	sub         *auth.SubscriptionInfo
	scan        *models.Scan
	content     []byte
	contentType string
	findings    []*models.Finding
	warnings    []string
	started     time.Time
}

// record stores the raw file, the scan, its findings and a new current plan.
// Writes are sequential; a failure part way leaves earlier rows in place.
func (s *LeakService) record(ctx context.Context, u upload) (*AnalyzeResponse, error) {
	user, scan := u.user, u.scan
	now := s.now()

	handle, err := s.files.Put(ctx, user.ID, scan.Filename, u.contentType, u.content)
	if err != nil {
		return nil, internalError(s.log, "store upload", err)
	}

	scan.ID = uuid.New().String()
	scan.UserID = user.ID
	scan.FileHandle = string(handle)
	scan.FindingCount = len(u.findings)
	scan.TotalGainCents = detection.TotalGain(u.findings)
	scan.CreatedAt = now
	scan.Status = models.ScanCompleted
	if len(u.findings) == 0 {
		scan.Status = models.ScanNoFindings
	}

	for _, f := range u.findings {
		f.ID = uuid.New().String()
		f.UserID = user.ID
		f.ScanID = scan.ID
		f.CreatedAt = now
		f.UpdatedAt = now
	}

	if err := s.store.CreateScan(ctx, scan); err != nil {
		return nil, internalError(s.log, "create scan", err)
	}
	res := &AnalyzeResponse{Scan: scan, Findings: u.findings, Warnings: u.warnings}
	if res.Findings == nil {
		res.Findings = []*models.Finding{}
	}
	if len(u.findings) == 0 {
		res.Warnings = append(res.Warnings, "no recurring leak was found in this file")
		s.export(ctx, scan, u.sub, nil, nil, u.started)
		return res, nil
	}

	if err := s.store.CreateFindings(ctx, u.findings); err != nil {
		return nil, internalError(s.log, "create findings", err)
	}

	builder := s.freePlans
	if u.sub.IsPro() {
		builder = s.proPlans
	}
	items := builder.Build(ctx, u.findings)

	p := &models.Plan{
		UserID:         user.ID,
		ScanID:         scan.ID,
		Version:        user.CurrentPlanVersion + 1,
		TotalGainCents: scan.TotalGainCents,
		CreatedAt:      now,
	}
	if err := s.store.CreatePlan(ctx, p, items); err != nil {
		return nil, internalError(s.log, "create plan", err)
	}

	user.CurrentPlanID = p.ID
	user.CurrentPlanVersion = p.Version
	user.UpdatedAt = now
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, internalError(s.log, "update current plan", err)
	}
	res.Plan = &PlanView{Plan: p, Items: items}

	s.indexFindings(ctx, u.findings)
	s.export(ctx, scan, u.sub, u.findings, items, u.started)
	return res, nil
}

// indexFindings is best effort.
func (s *LeakService) indexFindings(ctx context.Context, findings []*models.Finding) {
	if s.index == nil || len(findings) == 0 {
		return
	}
	if err := s.index.IndexFindings(ctx, findings); err != nil {
		s.log.Warn().Err(err).Int("findings", len(findings)).Msg("failed to index findings")
	}
}

// export is best effort.
func (s *LeakService) export(ctx context.Context, scan *models.Scan, sub *auth.SubscriptionInfo, findings []*models.Finding, items []*models.PlanItem, started time.Time) {
	run := analytics.NewScanRun(scan, sub.Tier, findings, items, s.now().Sub(started))
	if err := s.analytics.RecordScan(ctx, run); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn().Err(err).Str("scan_id", scan.ID).Msg("failed to export scan run")
	}
}
