package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/castlemilk/leakfinder/backend/internal/models"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection     = "users"
	scansCollection     = "scans"
	findingsCollection  = "findings"
	plansCollection     = "plans"
	planItemsCollection = "planItems"
)

// FirestoreStore implements the Store interface using Firestore
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store
func NewFirestoreStore(client *firestore.Client) Store {
	return &FirestoreStore{
		client: client,
	}
}

// applyOrderedPagination orders by field then document ID and starts after the cursor.
// Firestore needs the cursor's field value too, so the cursor document is fetched.
// It fetches pageSize+1 docs so the caller can detect whether a next page exists.
func (s *FirestoreStore) applyOrderedPagination(ctx context.Context, query firestore.Query, collection, field string, dir firestore.Direction, pageSize int32, pageToken string) (firestore.Query, error) {
	query = query.OrderBy(field, dir).OrderBy(firestore.DocumentID, firestore.Asc)

	if pageToken != "" {
		docID, err := DecodePageToken(pageToken)
		if err != nil {
			return query, fmt.Errorf("invalid page token: %w", err)
		}
		cursorDoc, err := s.client.Collection(collection).Doc(docID).Get(ctx)
		if err != nil {
			return query, fmt.Errorf("failed to fetch cursor document: %w", err)
		}
		query = query.StartAfter(cursorDoc.Data()[field], docID)
	}

	query = query.Limit(int(normalizePageSize(pageSize)) + 1)
	return query, nil
}

func normalizePageSize(pageSize int32) int32 {
	if pageSize <= 0 {
		return DefaultPageSize
	}
	return pageSize
}

// getErr maps a Firestore NotFound to ErrNotFound.
func getErr(err error, kind, id string) error {
	if status.Code(err) == codes.NotFound {
		return notFound(kind, id)
	}
	return fmt.Errorf("failed to get %s %s: %w", kind, id, err)
}

// User operations

func (s *FirestoreStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	doc, err := s.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		return nil, getErr(err, "user", userID)
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	return &user, nil
}

func (s *FirestoreStore) UpdateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return fmt.Errorf("user id is required")
	}
	_, err := s.client.Collection(usersCollection).Doc(user.ID).Set(ctx, user)
	return err
}

func (s *FirestoreStore) GetUserByStripeCustomer(ctx context.Context, customerID string) (*models.User, error) {
	docs, err := s.client.Collection(usersCollection).
		Where("stripe_customer_id", "==", customerID).
		Limit(1).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	if len(docs) == 0 {
		return nil, notFound("user with stripe customer", customerID)
	}

	var user models.User
	if err := docs[0].DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	return &user, nil
}

// Scan operations

func (s *FirestoreStore) CreateScan(ctx context.Context, scan *models.Scan) error {
	if scan.ID == "" {
		scan.ID = uuid.New().String()
	}
	_, err := s.client.Collection(scansCollection).Doc(scan.ID).Set(ctx, scan)
	return err
}

func (s *FirestoreStore) GetScan(ctx context.Context, userID, scanID string) (*models.Scan, error) {
	doc, err := s.client.Collection(scansCollection).Doc(scanID).Get(ctx)
	if err != nil {
		return nil, getErr(err, "scan", scanID)
	}

	var scan models.Scan
	if err := doc.DataTo(&scan); err != nil {
		return nil, fmt.Errorf("failed to parse scan: %w", err)
	}
	if scan.UserID != userID {
		return nil, notFound("scan", scanID)
	}
	return &scan, nil
}

func (s *FirestoreStore) ListScans(ctx context.Context, userID string, pageSize int32, pageToken string) ([]*models.Scan, string, error) {
	query := s.client.Collection(scansCollection).Where("user_id", "==", userID)
	query, err := s.applyOrderedPagination(ctx, query, scansCollection, "created_at", firestore.Desc, pageSize, pageToken)
	if err != nil {
		return nil, "", err
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list scans: %w", err)
	}

	// Detect next page
	pageSize = normalizePageSize(pageSize)
	var nextPageToken string
	if len(docs) > int(pageSize) {
		docs = docs[:pageSize]
		nextPageToken = EncodePageToken(docs[pageSize-1].Ref.ID)
	}

	scans := make([]*models.Scan, 0, len(docs))
	for _, doc := range docs {
		var scan models.Scan
		if err := doc.DataTo(&scan); err != nil {
			return nil, "", fmt.Errorf("failed to parse scan: %w", err)
		}
		scans = append(scans, &scan)
	}
	return scans, nextPageToken, nil
}

func (s *FirestoreStore) CountScansSince(ctx context.Context, userID string, since time.Time) (int, error) {
	docs, err := s.client.Collection(scansCollection).
		Where("user_id", "==", userID).
		Where("created_at", ">=", since).
		Select().
		Documents(ctx).GetAll()
	if err != nil {
		return 0, fmt.Errorf("failed to count scans: %w", err)
	}
	return len(docs), nil
}

// Finding operations

func (s *FirestoreStore) CreateFindings(ctx context.Context, findings []*models.Finding) error {
	for _, f := range findings {
		if f.ID == "" {
			f.ID = uuid.New().String()
		}
		if _, err := s.client.Collection(findingsCollection).Doc(f.ID).Set(ctx, f); err != nil {
			return fmt.Errorf("failed to create finding %s: %w", f.ID, err)
		}
	}
	return nil
}

func (s *FirestoreStore) GetFinding(ctx context.Context, userID, findingID string) (*models.Finding, error) {
	doc, err := s.client.Collection(findingsCollection).Doc(findingID).Get(ctx)
	if err != nil {
		return nil, getErr(err, "finding", findingID)
	}

	var f models.Finding
	if err := doc.DataTo(&f); err != nil {
		return nil, fmt.Errorf("failed to parse finding: %w", err)
	}
	if f.UserID != userID {
		return nil, notFound("finding", findingID)
	}
	return &f, nil
}

func (s *FirestoreStore) UpdateFinding(ctx context.Context, finding *models.Finding) error {
	if _, err := s.GetFinding(ctx, finding.UserID, finding.ID); err != nil {
		return err
	}
	_, err := s.client.Collection(findingsCollection).Doc(finding.ID).Set(ctx, finding)
	return err
}

func (s *FirestoreStore) ListFindings(ctx context.Context, userID string, filter FindingFilter, pageSize int32, pageToken string) ([]*models.Finding, string, error) {
	query := s.client.Collection(findingsCollection).Where("user_id", "==", userID)
	if filter.ScanID != "" {
		query = query.Where("scan_id", "==", filter.ScanID)
	}
	if filter.Status != "" {
		query = query.Where("status", "==", string(filter.Status))
	}
	if filter.Category != "" {
		query = query.Where("category", "==", string(filter.Category))
	}

	query, err := s.applyOrderedPagination(ctx, query, findingsCollection, "gain_estimated_yearly_cents", firestore.Desc, pageSize, pageToken)
	if err != nil {
		return nil, "", err
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list findings: %w", err)
	}

	pageSize = normalizePageSize(pageSize)
	var nextPageToken string
	if len(docs) > int(pageSize) {
		docs = docs[:pageSize]
		nextPageToken = EncodePageToken(docs[pageSize-1].Ref.ID)
	}

	findings := make([]*models.Finding, 0, len(docs))
	for _, doc := range docs {
		var f models.Finding
		if err := doc.DataTo(&f); err != nil {
			return nil, "", fmt.Errorf("failed to parse finding: %w", err)
		}
		findings = append(findings, &f)
	}
	return findings, nextPageToken, nil
}

// Plan operations

// CreatePlan writes the plan then each item. A failure part way leaves earlier rows in place.
func (s *FirestoreStore) CreatePlan(ctx context.Context, plan *models.Plan, items []*models.PlanItem) error {
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	if _, err := s.client.Collection(plansCollection).Doc(plan.ID).Set(ctx, plan); err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.PlanID = plan.ID
		if _, err := s.client.Collection(planItemsCollection).Doc(item.ID).Set(ctx, item); err != nil {
			return fmt.Errorf("failed to create plan item %s: %w", item.ID, err)
		}
	}
	return nil
}

func (s *FirestoreStore) GetPlan(ctx context.Context, userID, planID string) (*models.Plan, error) {
	doc, err := s.client.Collection(plansCollection).Doc(planID).Get(ctx)
	if err != nil {
		return nil, getErr(err, "plan", planID)
	}

	var plan models.Plan
	if err := doc.DataTo(&plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	if plan.UserID != userID {
		return nil, notFound("plan", planID)
	}
	return &plan, nil
}

func (s *FirestoreStore) ListPlanItems(ctx context.Context, userID, planID string) ([]*models.PlanItem, error) {
	docs, err := s.client.Collection(planItemsCollection).
		Where("plan_id", "==", planID).
		Where("user_id", "==", userID).
		OrderBy("rank", firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list plan items: %w", err)
	}

	items := make([]*models.PlanItem, 0, len(docs))
	for _, doc := range docs {
		var item models.PlanItem
		if err := doc.DataTo(&item); err != nil {
			return nil, fmt.Errorf("failed to parse plan item: %w", err)
		}
		items = append(items, &item)
	}
	return items, nil
}

func (s *FirestoreStore) GetPlanItem(ctx context.Context, userID, itemID string) (*models.PlanItem, error) {
	doc, err := s.client.Collection(planItemsCollection).Doc(itemID).Get(ctx)
	if err != nil {
		return nil, getErr(err, "plan item", itemID)
	}

	var item models.PlanItem
	if err := doc.DataTo(&item); err != nil {
		return nil, fmt.Errorf("failed to parse plan item: %w", err)
	}
	if item.UserID != userID {
		return nil, notFound("plan item", itemID)
	}
	return &item, nil
}

func (s *FirestoreStore) UpdatePlanItem(ctx context.Context, item *models.PlanItem) error {
	if _, err := s.GetPlanItem(ctx, item.UserID, item.ID); err != nil {
		return err
	}
	_, err := s.client.Collection(planItemsCollection).Doc(item.ID).Set(ctx, item)
	return err
}
