package auth

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/castlemilk/leakfinder/backend/internal/logger"
	"github.com/castlemilk/leakfinder/backend/internal/models"
	"google.golang.org/api/option"
)

// TokenVerifier checks an ID token and returns the caller plus the token's raw claims.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, idToken string) (*UserClaims, map[string]interface{}, error)
}

// FirebaseAuth verifies Firebase ID tokens and keeps the subscription custom claims
// in sync with billing.
type FirebaseAuth struct {
	client *fbauth.Client
}

// NewFirebaseAuth connects to Firebase Auth. An empty projectID is resolved by the SDK
// from the environment.
func NewFirebaseAuth(ctx context.Context, projectID string) (*FirebaseAuth, error) {
	var opts []option.ClientOption
	if path := credentialsFile(); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}

	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth client: %w", err)
	}
	return &FirebaseAuth{client: client}, nil
}

func (f *FirebaseAuth) VerifyToken(ctx context.Context, idToken string) (*UserClaims, map[string]interface{}, error) {
	token, err := f.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, nil, fmt.Errorf("verify id token: %w", err)
	}
	return claimsFromToken(token.UID, token.Claims), token.Claims, nil
}

// SetSubscriptionClaims writes the tier and status onto the Firebase user. They show up
// in the user's next ID token.
func (f *FirebaseAuth) SetSubscriptionClaims(ctx context.Context, uid string, tier models.SubscriptionTier, status models.SubscriptionStatus) error {
	claims := SubscriptionClaims(tier, status)
	if err := f.client.SetCustomUserClaims(ctx, uid, claims); err != nil {
		return fmt.Errorf("set custom claims for user %s: %w", uid, err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("component", "auth").
		Str("user_id", uid).
		Interface("claims", claims).
		Msg("subscription claims updated")
	return nil
}

func claimsFromToken(uid string, raw map[string]interface{}) *UserClaims {
	str := func(key string) string {
		s, _ := raw[key].(string)
		return s
	}
	verified, _ := raw["email_verified"].(bool)
	return &UserClaims{
		UID:         uid,
		Email:       str("email"),
		DisplayName: str("name"),
		Picture:     str("picture"),
		Verified:    verified,
	}
}

// credentialsFile returns a service account key path for local runs. On Cloud Run
// the default credentials are used.
func credentialsFile() string {
	if path := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); path != "" {
		return path
	}
	return os.Getenv("FIREBASE_SERVICE_ACCOUNT_KEY")
}
