// Package models holds the domain records shared by the pipeline, the store and the API.
package models

import (
	"errors"
	"fmt"
	"time"
)

// Transaction is one normalized bank row. Negative amounts are debits.
type Transaction struct {
	OccurredOn      time.Time `json:"occurred_on" firestore:"occurred_on"`
	RawLabel        string    `json:"raw_label" firestore:"raw_label"`
	NormalizedLabel string    `json:"normalized_label" firestore:"normalized_label"`
	AmountCents     int64     `json:"amount_cents" firestore:"amount_cents"`
}

// IsDebit reports whether the transaction takes money out of the account.
func (t Transaction) IsDebit() bool {
	return t.AmountCents < 0
}

// FindingCategory identifies what kind of leak a finding describes.
type FindingCategory string

const (
	CategorySubscription FindingCategory = "subscription"
	CategoryBankFee      FindingCategory = "bank_fee"
	CategoryEnergy       FindingCategory = "energy"
	CategoryInsurance    FindingCategory = "insurance"
	CategoryTax          FindingCategory = "tax"
)

// Valid reports whether c is a known category.
func (c FindingCategory) Valid() bool {
	switch c {
	case CategorySubscription, CategoryBankFee, CategoryEnergy, CategoryInsurance, CategoryTax:
		return true
	}
	return false
}

// FindingStatus is changed by the user only.
type FindingStatus string

const (
	FindingOpen     FindingStatus = "open"
	FindingSnoozed  FindingStatus = "snoozed"
	FindingResolved FindingStatus = "resolved"
)

// Valid reports whether s is a known finding status.
func (s FindingStatus) Valid() bool {
	switch s {
	case FindingOpen, FindingSnoozed, FindingResolved:
		return true
	}
	return false
}

// RiskLevel describes how risky acting on a finding is for the user.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Explain is rendered as-is by the UI next to a finding.
type Explain struct {
	CalcSteps      []string `json:"calc_steps" firestore:"calc_steps"`
	Assumptions    []string `json:"assumptions" firestore:"assumptions"`
	Recommendation string   `json:"recommendation" firestore:"recommendation"`
}

// Finding is a detected recurring leak with its yearly cost.
type Finding struct {
	ID                       string          `json:"id" firestore:"id"`
	UserID                   string          `json:"user_id" firestore:"user_id"`
	ScanID                   string          `json:"scan_id" firestore:"scan_id"`
	Category                 FindingCategory `json:"category" firestore:"category"`
	Title                    string          `json:"title" firestore:"title"`
	Description              string          `json:"description" firestore:"description"`
	Brand                    string          `json:"brand,omitempty" firestore:"brand"`
	GroupKey                 string          `json:"group_key,omitempty" firestore:"group_key"`
	GainEstimatedYearlyCents int64           `json:"gain_estimated_yearly_cents" firestore:"gain_estimated_yearly_cents"`
	EffortMinutes            int             `json:"effort_minutes" firestore:"effort_minutes"`
	RiskLevel                RiskLevel       `json:"risk_level" firestore:"risk_level"`
	Confidence               float64         `json:"confidence" firestore:"confidence"`
	Explain                  Explain         `json:"explain" firestore:"explain"`
	Evidence                 []Transaction   `json:"evidence" firestore:"evidence"`
	Status                   FindingStatus   `json:"status" firestore:"status"`
	CreatedAt                time.Time       `json:"created_at" firestore:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at" firestore:"updated_at"`
}

// ScanSource tells which kind of upload produced a scan.
type ScanSource string

const (
	SourceCSV      ScanSource = "csv"
	SourceDocument ScanSource = "document"
)

// ScanStatus is the outcome of one analysis run.
type ScanStatus string

const (
	ScanCompleted  ScanStatus = "completed"
	ScanNoFindings ScanStatus = "no_findings"
)

// Scan records one analysis run over one uploaded file.
type Scan struct {
	ID             string     `json:"id" firestore:"id"`
	UserID         string     `json:"user_id" firestore:"user_id"`
	Source         ScanSource `json:"source" firestore:"source"`
	Filename       string     `json:"filename" firestore:"filename"`
	FileHandle     string     `json:"file_handle" firestore:"file_handle"`
	RowsParsed     int        `json:"rows_parsed" firestore:"rows_parsed"`
	RowsDropped    int        `json:"rows_dropped" firestore:"rows_dropped"`
	FindingCount   int        `json:"finding_count" firestore:"finding_count"`
	TotalGainCents int64      `json:"total_gain_cents" firestore:"total_gain_cents"`
	Status         ScanStatus `json:"status" firestore:"status"`
	CreatedAt      time.Time  `json:"created_at" firestore:"created_at"`
}

// Plan groups the plan items produced from one scan. Version increases per user.
type Plan struct {
	ID             string    `json:"id" firestore:"id"`
	UserID         string    `json:"user_id" firestore:"user_id"`
	ScanID         string    `json:"scan_id" firestore:"scan_id"`
	Version        int       `json:"version" firestore:"version"`
	TotalGainCents int64     `json:"total_gain_cents" firestore:"total_gain_cents"`
	CreatedAt      time.Time `json:"created_at" firestore:"created_at"`
}

// PlanItemStatus tracks user progress on a plan item.
type PlanItemStatus string

const (
	PlanItemTodo    PlanItemStatus = "todo"
	PlanItemDoing   PlanItemStatus = "doing"
	PlanItemDone    PlanItemStatus = "done"
	PlanItemSkipped PlanItemStatus = "skipped"
)

// StepsSource tells whether steps came from the text generator or the local template.
type StepsSource string

const (
	StepsFromAI       StepsSource = "ai"
	StepsFromTemplate StepsSource = "template"
)

// ErrInvalidTransition is returned for status changes the state machine forbids.
var ErrInvalidTransition = errors.New("invalid status transition")

var planItemTransitions = map[PlanItemStatus][]PlanItemStatus{
	PlanItemTodo:    {PlanItemDoing, PlanItemDone, PlanItemSkipped},
	PlanItemDoing:   {PlanItemTodo, PlanItemDone, PlanItemSkipped},
	PlanItemDone:    {PlanItemTodo},
	PlanItemSkipped: {PlanItemTodo},
}

// Valid reports whether s is a known plan item status.
func (s PlanItemStatus) Valid() bool {
	_, ok := planItemTransitions[s]
	return ok
}

// CanTransition checks from -> to against the plan item state machine.
// Setting the current status again is allowed and changes nothing.
func (from PlanItemStatus) CanTransition(to PlanItemStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	if from == to {
		return nil
	}
	for _, next := range planItemTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// PlanItem is the user-actionable wrapper around a finding.
type PlanItem struct {
	ID                       string          `json:"id" firestore:"id"`
	PlanID                   string          `json:"plan_id" firestore:"plan_id"`
	UserID                   string          `json:"user_id" firestore:"user_id"`
	FindingID                string          `json:"finding_id" firestore:"finding_id"`
	Category                 FindingCategory `json:"category" firestore:"category"`
	Title                    string          `json:"title" firestore:"title"`
	Description              string          `json:"description" firestore:"description"`
	GainEstimatedYearlyCents int64           `json:"gain_estimated_yearly_cents" firestore:"gain_estimated_yearly_cents"`
	EffortMinutes            int             `json:"effort_minutes" firestore:"effort_minutes"`
	Confidence               float64         `json:"confidence" firestore:"confidence"`
	PriorityScore            int64           `json:"priority_score" firestore:"priority_score"`
	Rank                     int             `json:"rank" firestore:"rank"`
	Status                   PlanItemStatus  `json:"status" firestore:"status"`
	Steps                    []string        `json:"steps" firestore:"steps"`
	StepsSource              StepsSource     `json:"steps_source" firestore:"steps_source"`
	CreatedAt                time.Time       `json:"created_at" firestore:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at" firestore:"updated_at"`
}

// SubscriptionTier is the billing tier of a user.
type SubscriptionTier string

const (
	TierFree SubscriptionTier = "FREE"
	TierPro  SubscriptionTier = "PRO"
)

// SubscriptionStatus mirrors the Stripe subscription lifecycle.
type SubscriptionStatus string

const (
	StatusUnspecified SubscriptionStatus = ""
	StatusActive      SubscriptionStatus = "ACTIVE"
	StatusTrialing    SubscriptionStatus = "TRIALING"
	StatusPastDue     SubscriptionStatus = "PAST_DUE"
	StatusCanceled    SubscriptionStatus = "CANCELED"
)

// User is the per-user profile row. CurrentPlanID is the explicit pointer to the
// plan the UI shows; it replaces any "most recent" lookup.
type User struct {
	ID                   string             `json:"id" firestore:"id"`
	Email                string             `json:"email" firestore:"email"`
	DisplayName          string             `json:"display_name" firestore:"display_name"`
	StripeCustomerID     string             `json:"stripe_customer_id,omitempty" firestore:"stripe_customer_id"`
	StripeSubscriptionID string             `json:"stripe_subscription_id,omitempty" firestore:"stripe_subscription_id"`
	SubscriptionTier     SubscriptionTier   `json:"subscription_tier" firestore:"subscription_tier"`
	SubscriptionStatus   SubscriptionStatus `json:"subscription_status" firestore:"subscription_status"`
	CurrentPlanID        string             `json:"current_plan_id,omitempty" firestore:"current_plan_id"`
	CurrentPlanVersion   int                `json:"current_plan_version" firestore:"current_plan_version"`
	CreatedAt            time.Time          `json:"created_at" firestore:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" firestore:"updated_at"`
}
