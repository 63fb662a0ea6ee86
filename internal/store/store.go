package store

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/castlemilk/leakfinder/backend/internal/models"
)

//go:generate mockgen -source=store.go -destination=store_mock.go -package=store

// ErrNotFound is returned (wrapped) when a record does not exist or belongs to another user.
var ErrNotFound = errors.New("not found")

// DefaultPageSize applies when a list call passes pageSize <= 0.
const DefaultPageSize = 50

// FindingFilter narrows ListFindings. Zero values match everything.
type FindingFilter struct {
	ScanID   string
	Status   models.FindingStatus
	Category models.FindingCategory
}

// Matches reports whether f passes the filter.
func (ff FindingFilter) Matches(f *models.Finding) bool {
	if ff.ScanID != "" && f.ScanID != ff.ScanID {
		return false
	}
	if ff.Status != "" && f.Status != ff.Status {
		return false
	}
	if ff.Category != "" && f.Category != ff.Category {
		return false
	}
	return true
}

// Store defines the interface for all database operations used by the service.
// Every read is scoped to a user; a record owned by someone else is reported as ErrNotFound.
type Store interface {
	// User operations
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	GetUserByStripeCustomer(ctx context.Context, customerID string) (*models.User, error)

	// Scan operations
	CreateScan(ctx context.Context, scan *models.Scan) error
	GetScan(ctx context.Context, userID, scanID string) (*models.Scan, error)
	ListScans(ctx context.Context, userID string, pageSize int32, pageToken string) ([]*models.Scan, string, error)
	CountScansSince(ctx context.Context, userID string, since time.Time) (int, error)

	// Finding operations
	CreateFindings(ctx context.Context, findings []*models.Finding) error
	GetFinding(ctx context.Context, userID, findingID string) (*models.Finding, error)
	UpdateFinding(ctx context.Context, finding *models.Finding) error
	ListFindings(ctx context.Context, userID string, filter FindingFilter, pageSize int32, pageToken string) ([]*models.Finding, string, error)

	// Plan operations. Plan and items are written one row at a time.
	CreatePlan(ctx context.Context, plan *models.Plan, items []*models.PlanItem) error
	GetPlan(ctx context.Context, userID, planID string) (*models.Plan, error)
	ListPlanItems(ctx context.Context, userID, planID string) ([]*models.PlanItem, error)
	GetPlanItem(ctx context.Context, userID, itemID string) (*models.PlanItem, error)
	UpdatePlanItem(ctx context.Context, item *models.PlanItem) error
}

// EncodePageToken encodes a document ID into a page token.
func EncodePageToken(docID string) string {
	if docID == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(docID))
}

// DecodePageToken decodes a page token back to a document ID.
func DecodePageToken(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// MonthStart returns midnight UTC on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
