// Package search indexes findings in Algolia so users can search across their scans.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/algolia/algoliasearch-client-go/v4/algolia/search"
	"github.com/castlemilk/leakfinder/backend/internal/models"
)

// ErrMissingUser is returned when a search has no user to scope it to.
var ErrMissingUser = errors.New("search requires a user id")

// Config holds Algolia configuration.
type Config struct {
	AppID     string
	APIKey    string // Write key; searches are always filtered by user
	IndexName string
}

// SearchParams defines the input for an Algolia search.
type SearchParams struct {
	Query    string
	UserID   string
	Category models.FindingCategory
	Status   models.FindingStatus
	// Pagination (offset-based)
	Page     int
	PageSize int
}

// FindingHit is one search result.
type FindingHit struct {
	ID                       string                 `json:"id"`
	ScanID                   string                 `json:"scan_id"`
	Title                    string                 `json:"title"`
	Brand                    string                 `json:"brand,omitempty"`
	Category                 models.FindingCategory `json:"category"`
	Status                   models.FindingStatus   `json:"status"`
	GainEstimatedYearlyCents int64                  `json:"gain_estimated_yearly_cents"`
	CreatedAt                time.Time              `json:"created_at"`
}

// SearchResponse holds results from Algolia.
type SearchResponse struct {
	Hits       []*FindingHit
	TotalCount int
	TotalPages int
	Page       int
}

// AlgoliaClient wraps the Algolia search API client.
type AlgoliaClient struct {
	client    *search.APIClient
	indexName string
}

// NewAlgoliaClient creates a new Algolia search client.
func NewAlgoliaClient(cfg Config) (*AlgoliaClient, error) {
	if cfg.AppID == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("algolia AppID and APIKey are required")
	}
	if cfg.IndexName == "" {
		cfg.IndexName = "findings"
	}

	client, err := search.NewClient(cfg.AppID, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("creating algolia client: %w", err)
	}

	return &AlgoliaClient{
		client:    client,
		indexName: cfg.IndexName,
	}, nil
}

// IndexFindings saves one record per finding, replacing records with the same objectID.
// It stops at the first failure.
func (c *AlgoliaClient) IndexFindings(ctx context.Context, findings []*models.Finding) error {
	for _, f := range findings {
		if f.ID == "" {
			continue
		}
		if _, err := c.client.SaveObject(c.client.NewApiSaveObjectRequest(c.indexName, findingRecord(f))); err != nil {
			return fmt.Errorf("algolia save finding %s: %w", f.ID, err)
		}
	}
	return nil
}

// Search performs a full-text search via Algolia.
func (c *AlgoliaClient) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	if params.UserID == "" {
		return nil, ErrMissingUser
	}

	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = 25
	}
	if pageSize > 100 {
		pageSize = 100
	}

	page := params.Page
	if page < 0 {
		page = 0
	}

	searchParams := search.SearchParamsObjectAsSearchParams(
		search.NewSearchParamsObject().
			SetQuery(params.Query).
			SetHitsPerPage(int32(pageSize)).
			SetPage(int32(page)).
			SetFilters(buildFilters(params)),
	)

	resp, err := c.client.SearchSingleIndex(c.client.NewApiSearchSingleIndexRequest(c.indexName).WithSearchParams(searchParams))
	if err != nil {
		return nil, fmt.Errorf("algolia search: %w", err)
	}

	hits := make([]*FindingHit, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		props := hit.AdditionalProperties
		if props == nil {
			props = map[string]any{}
		}
		if _, ok := props["objectID"]; !ok {
			props["objectID"] = hit.ObjectID
		}
		if h := hitToFinding(props); h != nil {
			hits = append(hits, h)
		}
	}

	totalCount := 0
	if resp.NbHits != nil {
		totalCount = int(*resp.NbHits)
	}
	totalPages := 0
	if resp.NbPages != nil {
		totalPages = int(*resp.NbPages)
	}

	return &SearchResponse{
		Hits:       hits,
		TotalCount: totalCount,
		TotalPages: totalPages,
		Page:       page,
	}, nil
}

// findingRecord is the Algolia record for a finding.
func findingRecord(f *models.Finding) map[string]any {
	return map[string]any{
		"objectID":        f.ID,
		"UserId":          f.UserID,
		"ScanId":          f.ScanID,
		"Title":           f.Title,
		"Description":     f.Description,
		"Brand":           f.Brand,
		"GroupKey":        f.GroupKey,
		"Category":        string(f.Category),
		"Status":          string(f.Status),
		"GainYearlyCents": f.GainEstimatedYearlyCents,
		"CreatedAtUnix":   f.CreatedAt.Unix(),
	}
}

// buildFilters constructs Algolia filter string from search params.
// UserId is always enforced for security.
func buildFilters(params SearchParams) string {
	parts := []string{fmt.Sprintf("UserId:%q", params.UserID)}

	if params.Category != "" {
		parts = append(parts, fmt.Sprintf("Category:%q", string(params.Category)))
	}
	if params.Status != "" {
		parts = append(parts, fmt.Sprintf("Status:%q", string(params.Status)))
	}

	return strings.Join(parts, " AND ")
}

// hitToFinding converts an Algolia hit to a FindingHit. Hits without an objectID are skipped.
func hitToFinding(props map[string]any) *FindingHit {
	hit := &FindingHit{}

	if v, ok := props["objectID"].(string); ok {
		hit.ID = v
	}
	if hit.ID == "" {
		return nil
	}
	if v, ok := props["ScanId"].(string); ok {
		hit.ScanID = v
	}
	if v, ok := props["Title"].(string); ok {
		hit.Title = v
	}
	if v, ok := props["Brand"].(string); ok {
		hit.Brand = v
	}
	if v, ok := props["Category"].(string); ok {
		hit.Category = models.FindingCategory(v)
	}
	if v, ok := props["Status"].(string); ok {
		hit.Status = models.FindingStatus(v)
	}
	// JSON numbers decode as float64
	if v, ok := props["GainYearlyCents"].(float64); ok {
		hit.GainEstimatedYearlyCents = int64(v)
	}
	if v, ok := props["CreatedAtUnix"].(float64); ok && v > 0 {
		hit.CreatedAt = time.Unix(int64(v), 0).UTC()
	}

	return hit
}
