// Package analytics exports one row per analysis run for product reporting.
package analytics

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/castlemilk/leakfinder/backend/internal/models"
)

// ScanRunsTable is the table analysis runs are appended to.
const ScanRunsTable = "scan_runs"

// ScanRun is one row of <dataset>.scan_runs.
type ScanRun struct {
	ScanID         string              `bigquery:"scan_id"` // REQUIRED
	UserID         string              `bigquery:"user_id"` // REQUIRED
	Source         string              `bigquery:"source"`  // csv | document
	Tier           string              `bigquery:"tier"`
	Status         string              `bigquery:"status"`
	RowsParsed     int64               `bigquery:"rows_parsed"`
	RowsDropped    int64               `bigquery:"rows_dropped"`
	FindingCount   int64               `bigquery:"finding_count"`
	TotalGainCents int64               `bigquery:"total_gain_cents"`
	Categories     []string            `bigquery:"categories"` // REPEATED
	StepsSource    bigquery.NullString `bigquery:"steps_source"`
	DurationMillis int64               `bigquery:"duration_ms"`
	CreatedTS      time.Time           `bigquery:"created_ts"`
}

// NewScanRun builds the analytics row for a finished scan.
func NewScanRun(scan *models.Scan, tier models.SubscriptionTier, findings []*models.Finding, items []*models.PlanItem, took time.Duration) *ScanRun {
	run := &ScanRun{
		ScanID:         scan.ID,
		UserID:         scan.UserID,
		Source:         string(scan.Source),
		Tier:           string(tier),
		Status:         string(scan.Status),
		RowsParsed:     int64(scan.RowsParsed),
		RowsDropped:    int64(scan.RowsDropped),
		FindingCount:   int64(len(findings)),
		TotalGainCents: scan.TotalGainCents,
		DurationMillis: took.Milliseconds(),
		CreatedTS:      scan.CreatedAt,
	}

	seen := make(map[models.FindingCategory]bool)
	for _, f := range findings {
		if !seen[f.Category] {
			seen[f.Category] = true
			run.Categories = append(run.Categories, string(f.Category))
		}
	}

	// "ai" if any item got generated steps
	for _, item := range items {
		run.StepsSource = bigquery.NullString{StringVal: string(models.StepsFromTemplate), Valid: true}
		if item.StepsSource == models.StepsFromAI {
			run.StepsSource.StringVal = string(models.StepsFromAI)
			break
		}
	}
	return run
}

// Sink receives scan runs. Implementations must be safe for concurrent use.
type Sink interface {
	RecordScan(ctx context.Context, run *ScanRun) error
}

// NopSink drops every row. Used when no dataset is configured.
type NopSink struct{}

func (NopSink) RecordScan(context.Context, *ScanRun) error { return nil }

// rowPutter is satisfied by *bigquery.Inserter.
type rowPutter interface {
	Put(ctx context.Context, src interface{}) error
}

// BigQuerySink appends scan runs with the streaming inserter.
type BigQuerySink struct {
	inserter rowPutter
}

// NewBigQuerySink writes to <datasetID>.scan_runs. The caller owns the client.
func NewBigQuerySink(client *bigquery.Client, datasetID string) *BigQuerySink {
	return &BigQuerySink{inserter: client.Dataset(datasetID).Table(ScanRunsTable).Inserter()}
}

// RecordScan inserts one row.
func (s *BigQuerySink) RecordScan(ctx context.Context, run *ScanRun) error {
	if run == nil || run.ScanID == "" {
		return fmt.Errorf("scan run requires a scan id")
	}
	if err := s.inserter.Put(ctx, run); err != nil {
		return fmt.Errorf("failed to insert scan run: %w", err)
	}
	return nil
}
