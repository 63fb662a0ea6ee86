package service

import (
	"context"
	"fmt"

	"connectrpc.com/connect"
	"github.com/castlemilk/leakfinder/backend/internal/auth"
	"github.com/castlemilk/leakfinder/backend/internal/models"
)

func (s *LeakService) requirePayments() error {
	if s.payments == nil {
		return connect.NewError(connect.CodeUnimplemented, fmt.Errorf("billing is not configured"))
	}
	return nil
}

// CreateCheckoutSession starts a Pro subscription checkout for the caller.
func (s *LeakService) CreateCheckoutSession(ctx context.Context, req *connect.Request[CreateCheckoutSessionRequest]) (*connect.Response[CreateCheckoutSessionResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.requirePayments(); err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, claims)
	if err != nil {
		return nil, internalError(s.log, "load user", err)
	}
	if subscriptionOf(ctx, user).IsPro() {
		return nil, connect.NewError(connect.CodeAlreadyExists, fmt.Errorf("you already have an active Pro subscription"))
	}

	if user.StripeCustomerID == "" {
		customerID, err := s.payments.GetOrCreateCustomer(ctx, user.Email, user.ID)
		if err != nil {
			s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to create stripe customer")
			return nil, connect.NewError(connect.CodeUnavailable, fmt.Errorf("billing is temporarily unavailable"))
		}
		user.StripeCustomerID = customerID
		user.UpdatedAt = s.now()
		if err := s.store.UpdateUser(ctx, user); err != nil {
			return nil, internalError(s.log, "save stripe customer", err)
		}
	}

	session, err := s.payments.CreateCheckoutSession(ctx, user.StripeCustomerID, user.ID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to create checkout session")
		return nil, connect.NewError(connect.CodeUnavailable, fmt.Errorf("billing is temporarily unavailable"))
	}

	return connect.NewResponse(&CreateCheckoutSessionResponse{
		URL:       session.URL,
		SessionID: session.SessionID,
	}), nil
}

// GetSubscription reports the caller's tier and how much of the monthly quota is used.
// It works without a billing provider; period details are then left empty.
func (s *LeakService) GetSubscription(ctx context.Context, req *connect.Request[GetSubscriptionRequest]) (*connect.Response[GetSubscriptionResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, claims)
	if err != nil {
		return nil, internalError(s.log, "load user", err)
	}
	sub := subscriptionOf(ctx, user)

	used, err := s.scansThisMonth(ctx, user.ID)
	if err != nil {
		return nil, internalError(s.log, "count scans", err)
	}

	tier := sub.Tier
	if tier == "" {
		tier = models.TierFree
	}
	res := &GetSubscriptionResponse{
		Tier:           tier,
		Status:         sub.Status,
		ScansThisMonth: used,
		ScanLimit:      s.scanLimit(sub),
	}

	if s.payments != nil && user.StripeSubscriptionID != "" {
		details, err := s.payments.GetSubscription(ctx, user.StripeSubscriptionID)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to fetch stripe subscription")
		} else {
			if !details.CurrentPeriodEnd.IsZero() {
				end := details.CurrentPeriodEnd
				res.CurrentPeriodEnd = &end
			}
			res.CancelAtPeriodEnd = details.CancelAtPeriodEnd
		}
	}

	return connect.NewResponse(res), nil
}

// CancelSubscription stops renewal; Pro access lasts until the period ends.
func (s *LeakService) CancelSubscription(ctx context.Context, req *connect.Request[CancelSubscriptionRequest]) (*connect.Response[CancelSubscriptionResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.requirePayments(); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, claims.UID)
	if err != nil {
		return nil, storeError(s.log, "get user", "subscription", err)
	}
	if user.StripeSubscriptionID == "" {
		return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("no active subscription"))
	}

	details, err := s.payments.CancelSubscriptionAtPeriodEnd(ctx, user.StripeSubscriptionID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to cancel subscription")
		return nil, connect.NewError(connect.CodeUnavailable, fmt.Errorf("billing is temporarily unavailable"))
	}

	res := &CancelSubscriptionResponse{CancelAtPeriodEnd: details.CancelAtPeriodEnd}
	if !details.CurrentPeriodEnd.IsZero() {
		end := details.CurrentPeriodEnd
		res.CurrentPeriodEnd = &end
	}
	return connect.NewResponse(res), nil
}
