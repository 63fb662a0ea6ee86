package auth

import (
	"context"
	"errors"
	"strings"

	"connectrpc.com/connect"
	"github.com/castlemilk/leakfinder/backend/internal/logger"
	"github.com/castlemilk/leakfinder/backend/internal/models"
)

const (
	headerImpersonateUser = "X-Debug-Impersonate-User"
	headerDebugTier       = "X-Debug-Subscription-Tier"
)

// LocalDevUserID is the user every request runs as under LocalDevInterceptor.
const LocalDevUserID = "local-dev-user"

// AuthInterceptor verifies the bearer ID token on every non-public procedure and
// attaches the caller and the subscription carried in the token's custom claims.
func AuthInterceptor(verifier TokenVerifier) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if isPublicEndpoint(req.Spec().Procedure) {
				return next(ctx, req)
			}
			// Set by DebugAuthInterceptor
			if _, ok := GetUserClaims(ctx); ok {
				return next(ctx, req)
			}

			token, err := bearerToken(req.Header().Get("Authorization"))
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			claims, raw, err := verifier.VerifyToken(ctx, token)
			if err != nil {
				log := logger.FromContext(ctx)
				log.Debug().Err(err).Str("component", "auth").Msg("token rejected")
				return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("invalid token"))
			}

			ctx = WithUserClaims(ctx, claims)
			ctx = WithSubscription(ctx, GetSubscriptionClaimsFromToken(raw))
			return next(ctx, req)
		}
	}
}

// DebugAuthInterceptor lets a request pick its user and tier through the X-Debug-*
// headers. It does nothing unless skipAuth is set, and must never be enabled in production.
func DebugAuthInterceptor(skipAuth bool) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			uid := req.Header().Get(headerImpersonateUser)
			if !skipAuth || uid == "" {
				return next(ctx, req)
			}

			tier := models.TierFree
			if models.SubscriptionTier(req.Header().Get(headerDebugTier)) == models.TierPro {
				tier = models.TierPro
			}
			ctx = WithUserClaims(ctx, &UserClaims{UID: uid, Email: uid + "@debug.local"})
			ctx = WithSubscription(ctx, &SubscriptionInfo{Tier: tier, Status: models.StatusActive})
			return next(ctx, req)
		}
	}
}

// LocalDevInterceptor runs every request as LocalDevUserID on the given tier, unless
// DebugAuthInterceptor already picked a user.
func LocalDevInterceptor(tier models.SubscriptionTier) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if _, ok := GetUserClaims(ctx); ok || isPublicEndpoint(req.Spec().Procedure) {
				return next(ctx, req)
			}

			ctx = WithUserClaims(ctx, &UserClaims{
				UID:         LocalDevUserID,
				Email:       "dev@localhost",
				DisplayName: "Local Dev User",
				Verified:    true,
			})
			ctx = WithSubscription(ctx, &SubscriptionInfo{Tier: tier, Status: models.StatusActive})
			return next(ctx, req)
		}
	}
}

func isPublicEndpoint(procedure string) bool {
	return procedure == "/health" || procedure == "/ping"
}

// bearerToken pulls the token out of an Authorization header value.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header is required")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", errors.New("authorization header must be a Bearer token")
	}
	return token, nil
}
