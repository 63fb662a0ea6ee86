package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/castlemilk/leakfinder/backend/internal/logger"
	"github.com/castlemilk/leakfinder/backend/internal/models"
	"github.com/castlemilk/leakfinder/backend/internal/store"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const maxWebhookBody = 65536

// ClaimsSetter pushes subscription changes to the identity provider.
type ClaimsSetter interface {
	SetSubscriptionClaims(ctx context.Context, uid string, tier models.SubscriptionTier, status models.SubscriptionStatus) error
}

// WebhookHandler handles Stripe webhook events
type WebhookHandler struct {
	store         store.Store
	webhookSecret string
	claims        ClaimsSetter
	log           zerolog.Logger
	now           func() time.Time
}

// NewWebhookHandler creates a new Stripe webhook handler. claims may be nil.
func NewWebhookHandler(s store.Store, webhookSecret string, claims ClaimsSetter, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		store:         s,
		webhookSecret: webhookSecret,
		claims:        claims,
		log:           logger.Component(log, "stripe"),
		now:           time.Now,
	}
}

// ServeHTTP verifies the Stripe signature and applies the event.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	event, err := webhook.ConstructEvent(body, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		h.log.Warn().Err(err).Msg("webhook signature verification failed")
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	if err := h.HandleEvent(r.Context(), event); err != nil {
		// Non-2xx makes Stripe redeliver the event
		h.log.Error().Err(err).Str("event_type", string(event.Type)).Str("event_id", event.ID).Msg("webhook processing failed")
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"received": true}`)
}

// eventObject covers the fields we read from sessions, subscriptions and invoices.
type eventObject struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata"`
}

// HandleEvent applies one verified event. Unknown event types are ignored.
// Events for users we cannot resolve are logged and acknowledged.
func (h *WebhookHandler) HandleEvent(ctx context.Context, event stripe.Event) error {
	var obj eventObject
	if event.Data == nil {
		return fmt.Errorf("event %s has no data", event.ID)
	}
	if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
		return fmt.Errorf("parse %s: %w", event.Type, err)
	}

	switch event.Type {
	case "checkout.session.completed":
		return h.handleCheckoutCompleted(ctx, obj)
	case "customer.subscription.updated":
		return h.updateUser(ctx, obj, func(u *models.User) {
			u.SubscriptionStatus = MapStripeStatus(obj.Status)
			if u.SubscriptionStatus == models.StatusCanceled {
				u.SubscriptionTier = models.TierFree
			}
		})
	case "customer.subscription.deleted":
		return h.updateUser(ctx, obj, func(u *models.User) {
			u.SubscriptionTier = models.TierFree
			u.SubscriptionStatus = models.StatusCanceled
		})
	case "invoice.payment_failed":
		return h.updateUser(ctx, obj, func(u *models.User) {
			u.SubscriptionStatus = models.StatusPastDue
		})
	default:
		h.log.Debug().Str("event_type", string(event.Type)).Msg("unhandled event type")
		return nil
	}
}

// handleCheckoutCompleted reads the user ID from metadata and upgrades the user to PRO.
func (h *WebhookHandler) handleCheckoutCompleted(ctx context.Context, session eventObject) error {
	userID := session.Metadata[MetadataUserID]
	if userID == "" {
		h.log.Warn().Str("customer", session.Customer).Msg("checkout.session.completed without user metadata")
		return nil
	}

	user, err := h.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		user = &models.User{ID: userID, CreatedAt: h.now()}
	} else if err != nil {
		return fmt.Errorf("get user %s: %w", userID, err)
	}

	user.StripeCustomerID = session.Customer
	user.StripeSubscriptionID = session.Subscription
	user.SubscriptionTier = models.TierPro
	user.SubscriptionStatus = models.StatusActive
	return h.save(ctx, user)
}

// updateUser resolves the user from metadata, then from the Stripe customer, and applies mutate.
func (h *WebhookHandler) updateUser(ctx context.Context, obj eventObject, mutate func(*models.User)) error {
	var (
		user *models.User
		err  error
	)
	if userID := obj.Metadata[MetadataUserID]; userID != "" {
		user, err = h.store.GetUser(ctx, userID)
	} else if obj.Customer != "" {
		user, err = h.store.GetUserByStripeCustomer(ctx, obj.Customer)
	} else {
		err = store.ErrNotFound
	}
	if errors.Is(err, store.ErrNotFound) {
		h.log.Warn().Str("object", obj.ID).Str("customer", obj.Customer).Msg("no user for stripe event")
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}

	mutate(user)
	return h.save(ctx, user)
}

func (h *WebhookHandler) save(ctx context.Context, user *models.User) error {
	user.UpdatedAt = h.now()
	if err := h.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("update user %s: %w", user.ID, err)
	}

	h.log.Info().
		Str("user_id", user.ID).
		Str("tier", string(user.SubscriptionTier)).
		Str("status", string(user.SubscriptionStatus)).
		Msg("subscription updated")

	if h.claims != nil {
		if err := h.claims.SetSubscriptionClaims(ctx, user.ID, user.SubscriptionTier, user.SubscriptionStatus); err != nil {
			h.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to set custom claims")
		}
	}
	return nil
}

// MapStripeStatus converts a Stripe subscription status string to ours.
func MapStripeStatus(status string) models.SubscriptionStatus {
	switch stripe.SubscriptionStatus(status) {
	case stripe.SubscriptionStatusActive:
		return models.StatusActive
	case stripe.SubscriptionStatusPastDue:
		return models.StatusPastDue
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusUnpaid:
		return models.StatusCanceled
	case stripe.SubscriptionStatusTrialing:
		return models.StatusTrialing
	default:
		return models.StatusUnspecified
	}
}
