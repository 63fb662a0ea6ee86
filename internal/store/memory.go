package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/castlemilk/leakfinder/backend/internal/models"
	"github.com/google/uuid"
)

// MemoryStore implements Store interface with in-memory storage
type MemoryStore struct {
	mu sync.RWMutex

	users     map[string]*models.User
	scans     map[string]*models.Scan
	findings  map[string]*models.Finding
	plans     map[string]*models.Plan
	planItems map[string]*models.PlanItem
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]*models.User),
		scans:     make(map[string]*models.Scan),
		findings:  make(map[string]*models.Finding),
		plans:     make(map[string]*models.Plan),
		planItems: make(map[string]*models.PlanItem),
	}
}

// paginate applies cursor-based pagination to an already ordered slice.
// The cursor is the ID of the last element of the previous page.
func paginate[T any](items []T, idOf func(T) string, pageSize int32, pageToken string) ([]T, string) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	startIdx := 0
	if pageToken != "" {
		cursorID, err := DecodePageToken(pageToken)
		if err == nil {
			startIdx = -1
			for i, item := range items {
				if idOf(item) == cursorID {
					startIdx = i + 1
					break
				}
			}
			// Cursor no longer exists
			if startIdx < 0 {
				return nil, ""
			}
		}
	}

	items = items[startIdx:]

	var nextToken string
	if int32(len(items)) > pageSize {
		items = items[:pageSize]
		nextToken = EncodePageToken(idOf(items[pageSize-1]))
	}
	return items, nextToken
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// User operations

func (m *MemoryStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[userID]
	if !ok {
		return nil, notFound("user", userID)
	}
	cp := *user
	return &cp, nil
}

func (m *MemoryStore) UpdateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return fmt.Errorf("user id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MemoryStore) GetUserByStripeCustomer(ctx context.Context, customerID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if customerID != "" && user.StripeCustomerID == customerID {
			cp := *user
			return &cp, nil
		}
	}
	return nil, notFound("user with stripe customer", customerID)
}

// Scan operations

func (m *MemoryStore) CreateScan(ctx context.Context, scan *models.Scan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if scan.ID == "" {
		scan.ID = uuid.New().String()
	}
	cp := *scan
	m.scans[scan.ID] = &cp
	return nil
}

func (m *MemoryStore) GetScan(ctx context.Context, userID, scanID string) (*models.Scan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scan, ok := m.scans[scanID]
	if !ok || scan.UserID != userID {
		return nil, notFound("scan", scanID)
	}
	cp := *scan
	return &cp, nil
}

// ListScans returns the user's scans, newest first.
func (m *MemoryStore) ListScans(ctx context.Context, userID string, pageSize int32, pageToken string) ([]*models.Scan, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matching []*models.Scan
	for _, scan := range m.scans {
		if scan.UserID == userID {
			cp := *scan
			matching = append(matching, &cp)
		}
	}
	sort.Slice(matching, func(i, j int) bool {
		if !matching[i].CreatedAt.Equal(matching[j].CreatedAt) {
			return matching[i].CreatedAt.After(matching[j].CreatedAt)
		}
		return matching[i].ID < matching[j].ID
	})

	page, next := paginate(matching, func(s *models.Scan) string { return s.ID }, pageSize, pageToken)
	return page, next, nil
}

func (m *MemoryStore) CountScansSince(ctx context.Context, userID string, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, scan := range m.scans {
		if scan.UserID == userID && !scan.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// Finding operations

func (m *MemoryStore) CreateFindings(ctx context.Context, findings []*models.Finding) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range findings {
		if f.ID == "" {
			f.ID = uuid.New().String()
		}
		cp := *f
		m.findings[f.ID] = &cp
	}
	return nil
}

func (m *MemoryStore) GetFinding(ctx context.Context, userID, findingID string) (*models.Finding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.findings[findingID]
	if !ok || f.UserID != userID {
		return nil, notFound("finding", findingID)
	}
	cp := *f
	return &cp, nil
}

func (m *MemoryStore) UpdateFinding(ctx context.Context, finding *models.Finding) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.findings[finding.ID]
	if !ok || existing.UserID != finding.UserID {
		return notFound("finding", finding.ID)
	}
	cp := *finding
	m.findings[finding.ID] = &cp
	return nil
}

// ListFindings returns matching findings by yearly gain, highest first.
func (m *MemoryStore) ListFindings(ctx context.Context, userID string, filter FindingFilter, pageSize int32, pageToken string) ([]*models.Finding, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matching []*models.Finding
	for _, f := range m.findings {
		if f.UserID == userID && filter.Matches(f) {
			cp := *f
			matching = append(matching, &cp)
		}
	}
	sort.Slice(matching, func(i, j int) bool {
		if matching[i].GainEstimatedYearlyCents != matching[j].GainEstimatedYearlyCents {
			return matching[i].GainEstimatedYearlyCents > matching[j].GainEstimatedYearlyCents
		}
		return matching[i].ID < matching[j].ID
	})

	page, next := paginate(matching, func(f *models.Finding) string { return f.ID }, pageSize, pageToken)
	return page, next, nil
}

// Plan operations

func (m *MemoryStore) CreatePlan(ctx context.Context, plan *models.Plan, items []*models.PlanItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	cp := *plan
	m.plans[plan.ID] = &cp

	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.PlanID = plan.ID
		itemCopy := *item
		m.planItems[item.ID] = &itemCopy
	}
	return nil
}

func (m *MemoryStore) GetPlan(ctx context.Context, userID, planID string) (*models.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plan, ok := m.plans[planID]
	if !ok || plan.UserID != userID {
		return nil, notFound("plan", planID)
	}
	cp := *plan
	return &cp, nil
}

// ListPlanItems returns the plan's items by rank.
func (m *MemoryStore) ListPlanItems(ctx context.Context, userID, planID string) ([]*models.PlanItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]*models.PlanItem, 0)
	for _, item := range m.planItems {
		if item.PlanID == planID && item.UserID == userID {
			cp := *item
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Rank < items[j].Rank })
	return items, nil
}

func (m *MemoryStore) GetPlanItem(ctx context.Context, userID, itemID string) (*models.PlanItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.planItems[itemID]
	if !ok || item.UserID != userID {
		return nil, notFound("plan item", itemID)
	}
	cp := *item
	return &cp, nil
}

func (m *MemoryStore) UpdatePlanItem(ctx context.Context, item *models.PlanItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.planItems[item.ID]
	if !ok || existing.UserID != item.UserID {
		return notFound("plan item", item.ID)
	}
	cp := *item
	m.planItems[item.ID] = &cp
	return nil
}
