package auth

import "github.com/castlemilk/leakfinder/backend/internal/models"

// Custom claim keys carried in the Firebase ID token.
const (
	claimTier   = "subscription_tier"
	claimStatus = "subscription_status"
)

// SubscriptionClaims builds the custom claims stored on the Firebase user. Anything
// other than Pro is written as Free.
func SubscriptionClaims(tier models.SubscriptionTier, status models.SubscriptionStatus) map[string]interface{} {
	if tier != models.TierPro {
		tier = models.TierFree
	}
	return map[string]interface{}{
		claimTier:   string(tier),
		claimStatus: string(status),
	}
}

// GetSubscriptionClaimsFromToken reads the subscription back out of token claims.
// Missing or unknown values fall back to Free with an unspecified status.
func GetSubscriptionClaimsFromToken(claims map[string]interface{}) *SubscriptionInfo {
	info := &SubscriptionInfo{Tier: models.TierFree, Status: models.StatusUnspecified}

	if tier, _ := claims[claimTier].(string); models.SubscriptionTier(tier) == models.TierPro {
		info.Tier = models.TierPro
	}
	status, _ := claims[claimStatus].(string)
	switch s := models.SubscriptionStatus(status); s {
	case models.StatusActive, models.StatusTrialing, models.StatusPastDue, models.StatusCanceled:
		info.Status = s
	}
	return info
}
