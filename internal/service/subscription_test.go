package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/castlemilk/leakfinder/backend/internal/billing"
	"github.com/castlemilk/leakfinder/backend/internal/models"
	"github.com/castlemilk/leakfinder/backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCheckoutSession(t *testing.T) {
	t.Run("billing not configured", func(t *testing.T) {
		svc := NewLeakService(store.NewMemoryStore(), failingFiles{})
		_, err := svc.CreateCheckoutSession(testContextWithUser("user-1"), connect.NewRequest(&CreateCheckoutSessionRequest{}))
		assert.Equal(t, connect.CodeUnimplemented, connect.CodeOf(err))
	})

	t.Run("creates and remembers the customer", func(t *testing.T) {
		st := store.NewMemoryStore()
		payments := &fakePayments{}
		svc := NewLeakService(st, failingFiles{}, WithPayments(payments))
		ctx := testContextWithUser("user-1")

		resp, err := svc.CreateCheckoutSession(ctx, connect.NewRequest(&CreateCheckoutSessionRequest{}))
		require.NoError(t, err)
		assert.Equal(t, "https://checkout.stripe.test/user-1", resp.Msg.URL)
		assert.Equal(t, "cs_test_1", resp.Msg.SessionID)
		assert.Equal(t, "cus_user-1", payments.checkoutFor)

		user, err := st.GetUser(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, "cus_user-1", user.StripeCustomerID)

		_, err = svc.CreateCheckoutSession(ctx, connect.NewRequest(&CreateCheckoutSessionRequest{}))
		require.NoError(t, err)
		assert.Equal(t, 1, payments.customerCalls)
	})

	t.Run("already pro", func(t *testing.T) {
		svc := NewLeakService(store.NewMemoryStore(), failingFiles{}, WithPayments(&fakePayments{}))
		_, err := svc.CreateCheckoutSession(testContextWithPro("user-1"), connect.NewRequest(&CreateCheckoutSessionRequest{}))
		assert.Equal(t, connect.CodeAlreadyExists, connect.CodeOf(err))
	})

	t.Run("provider failure", func(t *testing.T) {
		svc := NewLeakService(store.NewMemoryStore(), failingFiles{}, WithPayments(&fakePayments{err: errors.New("stripe down")}))
		_, err := svc.CreateCheckoutSession(testContextWithUser("user-1"), connect.NewRequest(&CreateCheckoutSessionRequest{}))
		assert.Equal(t, connect.CodeUnavailable, connect.CodeOf(err))
	})
}

func TestGetSubscription(t *testing.T) {
	t.Run("free user sees quota usage", func(t *testing.T) {
		svc := NewLeakService(store.NewMemoryStore(), newTestFiles(t), WithClock(func() time.Time { return testNow }))
		analyzed(t, svc, "user-1")

		resp, err := svc.GetSubscription(testContextWithUser("user-1"), connect.NewRequest(&GetSubscriptionRequest{}))
		require.NoError(t, err)
		assert.Equal(t, models.TierFree, resp.Msg.Tier)
		assert.Equal(t, 1, resp.Msg.ScansThisMonth)
		assert.Equal(t, 3, resp.Msg.ScanLimit)
		assert.Nil(t, resp.Msg.CurrentPeriodEnd)
	})

	t.Run("pro user has period details", func(t *testing.T) {
		st := store.NewMemoryStore()
		require.NoError(t, st.UpdateUser(context.Background(), &models.User{
			ID:                   "user-1",
			StripeCustomerID:     "cus_1",
			StripeSubscriptionID: "sub_1",
			SubscriptionTier:     models.TierPro,
			SubscriptionStatus:   models.StatusActive,
		}))
		periodEnd := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		payments := &fakePayments{details: &billing.SubscriptionDetails{ID: "sub_1", CurrentPeriodEnd: periodEnd}}
		svc := NewLeakService(st, failingFiles{}, WithPayments(payments))

		resp, err := svc.GetSubscription(testContextWithUser("user-1"), connect.NewRequest(&GetSubscriptionRequest{}))
		require.NoError(t, err)
		assert.Equal(t, models.TierPro, resp.Msg.Tier)
		assert.Equal(t, models.StatusActive, resp.Msg.Status)
		assert.Equal(t, 0, resp.Msg.ScanLimit)
		require.NotNil(t, resp.Msg.CurrentPeriodEnd)
		assert.Equal(t, periodEnd, *resp.Msg.CurrentPeriodEnd)

		cancel, err := svc.CancelSubscription(testContextWithUser("user-1"), connect.NewRequest(&CancelSubscriptionRequest{}))
		require.NoError(t, err)
		assert.True(t, cancel.Msg.CancelAtPeriodEnd)
		assert.Equal(t, "sub_1", payments.canceled)
	})

	t.Run("cancel without subscription", func(t *testing.T) {
		st := store.NewMemoryStore()
		require.NoError(t, st.UpdateUser(context.Background(), &models.User{ID: "user-1"}))
		svc := NewLeakService(st, failingFiles{}, WithPayments(&fakePayments{}))
		_, err := svc.CancelSubscription(testContextWithUser("user-1"), connect.NewRequest(&CancelSubscriptionRequest{}))
		assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
	})
}
