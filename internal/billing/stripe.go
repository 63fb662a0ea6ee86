// Package billing wraps Stripe for the Pro subscription and keeps user tiers in sync
// with Stripe webhook events.
package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	stripesub "github.com/stripe/stripe-go/v82/subscription"
)

// MetadataUserID is the metadata key carrying our user ID on Stripe objects.
const MetadataUserID = "leakfinder_user_id"

// StripeClient wraps the Stripe API for subscription management.
// stripe.Key must be set before any call.
type StripeClient struct {
	priceID    string
	successURL string
	cancelURL  string
}

// NewStripeClient creates a new Stripe API wrapper.
func NewStripeClient(priceID, successURL, cancelURL string) *StripeClient {
	return &StripeClient{priceID: priceID, successURL: successURL, cancelURL: cancelURL}
}

// GetOrCreateCustomer finds an existing Stripe customer by email or creates a new one.
func (c *StripeClient) GetOrCreateCustomer(ctx context.Context, email, userID string) (string, error) {
	if email != "" {
		params := &stripe.CustomerSearchParams{}
		params.Context = ctx
		params.Query = fmt.Sprintf("email:'%s'", strings.ReplaceAll(email, "'", `\'`))
		iter := customer.Search(params)
		for iter.Next() {
			return iter.Customer().ID, nil
		}
		if err := iter.Err(); err != nil {
			return "", fmt.Errorf("search customers: %w", err)
		}
	}

	createParams := &stripe.CustomerParams{
		Metadata: map[string]string{
			MetadataUserID: userID,
		},
	}
	createParams.Context = ctx
	if email != "" {
		createParams.Email = stripe.String(email)
	}
	cust, err := customer.New(createParams)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return cust.ID, nil
}

// CheckoutResult holds the result of creating a checkout session.
type CheckoutResult struct {
	URL       string
	SessionID string
}

// CreateCheckoutSession creates a Stripe Checkout session for the Pro plan.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, customerID, userID string) (*CheckoutResult, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(c.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.successURL),
		CancelURL:  stripe.String(c.cancelURL),
		Metadata: map[string]string{
			MetadataUserID: userID,
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				MetadataUserID: userID,
			},
		},
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutResult{URL: sess.URL, SessionID: sess.ID}, nil
}

// SubscriptionDetails holds details about a Stripe subscription.
type SubscriptionDetails struct {
	ID                string
	Status            stripe.SubscriptionStatus
	CurrentPeriodEnd  time.Time
	CancelAtPeriodEnd bool
}

// GetSubscription retrieves a Stripe subscription by ID.
func (c *StripeClient) GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionDetails, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := stripesub.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return subscriptionDetails(sub), nil
}

// CancelSubscriptionAtPeriodEnd cancels a subscription at the end of the current period.
func (c *StripeClient) CancelSubscriptionAtPeriodEnd(ctx context.Context, subscriptionID string) (*SubscriptionDetails, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	params.Context = ctx
	sub, err := stripesub.Update(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("cancel subscription: %w", err)
	}
	return subscriptionDetails(sub), nil
}

// In stripe-go v82, CurrentPeriodEnd lives on the subscription items.
func subscriptionDetails(sub *stripe.Subscription) *SubscriptionDetails {
	var periodEnd time.Time
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		periodEnd = time.Unix(sub.Items.Data[0].CurrentPeriodEnd, 0).UTC()
	}
	return &SubscriptionDetails{
		ID:                sub.ID,
		Status:            sub.Status,
		CurrentPeriodEnd:  periodEnd,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
}
