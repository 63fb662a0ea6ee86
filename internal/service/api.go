package service

import (
	"time"

	"github.com/castlemilk/leakfinder/backend/internal/csvimport"
	"github.com/castlemilk/leakfinder/backend/internal/models"
	"github.com/castlemilk/leakfinder/backend/internal/search"
)

// Procedure names served by NewHandler.
const (
	ServiceName = "leakfinder.v1.LeakService"

	PreviewCSVProcedure            = "/" + ServiceName + "/PreviewCSV"
	AnalyzeCSVProcedure            = "/" + ServiceName + "/AnalyzeCSV"
	AnalyzeDocumentProcedure       = "/" + ServiceName + "/AnalyzeDocument"
	GetScanProcedure               = "/" + ServiceName + "/GetScan"
	ListScansProcedure             = "/" + ServiceName + "/ListScans"
	ListFindingsProcedure          = "/" + ServiceName + "/ListFindings"
	UpdateFindingStatusProcedure   = "/" + ServiceName + "/UpdateFindingStatus"
	GetCurrentPlanProcedure        = "/" + ServiceName + "/GetCurrentPlan"
	UpdatePlanItemStatusProcedure  = "/" + ServiceName + "/UpdatePlanItemStatus"
	SearchFindingsProcedure        = "/" + ServiceName + "/SearchFindings"
	CreateCheckoutSessionProcedure = "/" + ServiceName + "/CreateCheckoutSession"
	GetSubscriptionProcedure       = "/" + ServiceName + "/GetSubscription"
	CancelSubscriptionProcedure    = "/" + ServiceName + "/CancelSubscription"
)

type PreviewCSVRequest struct {
	Filename  string `json:"filename"`
	Content   []byte `json:"content"`
	HasHeader bool   `json:"has_header"`
}

type PreviewCSVResponse struct {
	Header      []string   `json:"header,omitempty"`
	Rows        [][]string `json:"rows"`
	Delimiter   string     `json:"delimiter"`
	ColumnCount int        `json:"column_count"`
	Truncated   bool       `json:"truncated"`
}

type AnalyzeCSVRequest struct {
	Filename  string                  `json:"filename"`
	Content   []byte                  `json:"content"`
	HasHeader bool                    `json:"has_header"`
	Mapping   csvimport.ColumnMapping `json:"mapping"`
}

type AnalyzeDocumentRequest struct {
	Filename    string `json:"filename"`
	Content     []byte `json:"content"`
	ContentType string `json:"content_type,omitempty"`
}

// PlanView is a plan with its items in rank order.
type PlanView struct {
	Plan  *models.Plan       `json:"plan"`
	Items []*models.PlanItem `json:"items"`
}

// AnalyzeResponse is shared by AnalyzeCSV and AnalyzeDocument. Plan is nil when
// nothing was found.
type AnalyzeResponse struct {
	Scan     *models.Scan      `json:"scan"`
	Findings []*models.Finding `json:"findings"`
	Plan     *PlanView         `json:"plan,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

type GetScanRequest struct {
	ScanID string `json:"scan_id"`
}

type GetScanResponse struct {
	Scan     *models.Scan      `json:"scan"`
	Findings []*models.Finding `json:"findings"`
}

type ListScansRequest struct {
	PageSize  int32  `json:"page_size"`
	PageToken string `json:"page_token,omitempty"`
}

type ListScansResponse struct {
	Scans         []*models.Scan `json:"scans"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

type ListFindingsRequest struct {
	ScanID    string                 `json:"scan_id,omitempty"`
	Status    models.FindingStatus   `json:"status,omitempty"`
	Category  models.FindingCategory `json:"category,omitempty"`
	PageSize  int32                  `json:"page_size"`
	PageToken string                 `json:"page_token,omitempty"`
}

type ListFindingsResponse struct {
	Findings      []*models.Finding `json:"findings"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

type UpdateFindingStatusRequest struct {
	FindingID string               `json:"finding_id"`
	Status    models.FindingStatus `json:"status"`
}

type UpdateFindingStatusResponse struct {
	Finding *models.Finding `json:"finding"`
}

type GetCurrentPlanRequest struct{}

// GetCurrentPlanResponse has a nil Plan when the user never got one.
type GetCurrentPlanResponse struct {
	Plan *PlanView `json:"plan,omitempty"`
}

type UpdatePlanItemStatusRequest struct {
	ItemID string                `json:"item_id"`
	Status models.PlanItemStatus `json:"status"`
}

type UpdatePlanItemStatusResponse struct {
	Item *models.PlanItem `json:"item"`
}

type SearchFindingsRequest struct {
	Query    string                 `json:"query"`
	Category models.FindingCategory `json:"category,omitempty"`
	Status   models.FindingStatus   `json:"status,omitempty"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}

type SearchFindingsResponse struct {
	Hits       []*search.FindingHit `json:"hits"`
	TotalCount int                  `json:"total_count"`
	TotalPages int                  `json:"total_pages"`
	Page       int                  `json:"page"`
}

type CreateCheckoutSessionRequest struct{}

type CreateCheckoutSessionResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

type GetSubscriptionRequest struct{}

type GetSubscriptionResponse struct {
	Tier              models.SubscriptionTier   `json:"tier"`
	Status            models.SubscriptionStatus `json:"status"`
	CurrentPeriodEnd  *time.Time                `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool                      `json:"cancel_at_period_end"`
	ScansThisMonth    int                       `json:"scans_this_month"`
	// ScanLimit is zero when scans are unlimited.
	ScanLimit int `json:"scan_limit"`
}

type CancelSubscriptionRequest struct{}

type CancelSubscriptionResponse struct {
	CurrentPeriodEnd  *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
}
