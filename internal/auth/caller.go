package auth

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/castlemilk/leakfinder/backend/internal/models"
)

// Scan and finding listings are paged in these sizes.
const (
	defaultPageSize int32 = 50
	maxPageSize     int32 = 200
)

// UserClaims identifies the caller of a request.
type UserClaims struct {
	UID         string
	Email       string
	DisplayName string
	Picture     string
	Verified    bool
}

// SubscriptionInfo is the plan the caller was on when the request was authenticated.
type SubscriptionInfo struct {
	Tier   models.SubscriptionTier
	Status models.SubscriptionStatus
}

// IsPro reports whether AI steps and unlimited scans are unlocked.
func (s *SubscriptionInfo) IsPro() bool {
	if s == nil || s.Tier != models.TierPro {
		return false
	}
	switch s.Status {
	case models.StatusActive, models.StatusTrialing:
		return true
	}
	return false
}

type (
	claimsKey       struct{}
	subscriptionKey struct{}
)

// WithUserClaims attaches the caller to ctx.
func WithUserClaims(ctx context.Context, claims *UserClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// GetUserClaims returns the caller attached by one of the interceptors.
func GetUserClaims(ctx context.Context) (*UserClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*UserClaims)
	return claims, ok && claims != nil
}

func WithSubscription(ctx context.Context, info *SubscriptionInfo) context.Context {
	return context.WithValue(ctx, subscriptionKey{}, info)
}

// GetSubscription never returns nil; a request without subscription info is on the Free tier.
func GetSubscription(ctx context.Context) *SubscriptionInfo {
	if info, _ := ctx.Value(subscriptionKey{}).(*SubscriptionInfo); info != nil {
		return info
	}
	return &SubscriptionInfo{Tier: models.TierFree}
}

// RequireAuth returns the caller or a CodeUnauthenticated error.
func RequireAuth(ctx context.Context) (*UserClaims, error) {
	claims, ok := GetUserClaims(ctx)
	if !ok || claims.UID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("user not authenticated"))
	}
	return claims, nil
}

// NormalizePageSize clamps a requested page size to (0, 200], defaulting to 50.
func NormalizePageSize(pageSize int32) int32 {
	switch {
	case pageSize <= 0:
		return defaultPageSize
	case pageSize > maxPageSize:
		return maxPageSize
	default:
		return pageSize
	}
}
