package auth

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"connectrpc.com/connect"
	"github.com/castlemilk/leakfinder/backend/internal/logger"
	"github.com/castlemilk/leakfinder/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header    string
		wantToken string
		wantErr   string
	}{
		{header: "", wantErr: "is required"},
		{header: "token123", wantErr: "Bearer token"},
		{header: "Basic token123", wantErr: "Bearer token"},
		{header: "Bearer", wantErr: "Bearer token"},
		{header: "Bearer ", wantErr: "Bearer token"},
		{header: "Bearer mytoken123", wantToken: "mytoken123"},
		{header: "bearer mytoken456", wantToken: "mytoken456"},
		{header: "BEARER mytoken789", wantToken: "mytoken789"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			token, err := bearerToken(tt.header)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Empty(t, token)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestIsPublicEndpoint(t *testing.T) {
	assert.True(t, isPublicEndpoint("/health"))
	assert.True(t, isPublicEndpoint("/ping"))
	assert.False(t, isPublicEndpoint("/leakfinder.v1.LeakService/AnalyzeCSV"))
	assert.False(t, isPublicEndpoint(""))
}

type fakeVerifier struct {
	claims *UserClaims
	raw    map[string]interface{}
	err    error
	token  string
}

func (f *fakeVerifier) VerifyToken(ctx context.Context, idToken string) (*UserClaims, map[string]interface{}, error) {
	f.token = idToken
	return f.claims, f.raw, f.err
}

// captureNext records the context the wrapped handler ran with.
func captureNext(seen *context.Context) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		*seen = ctx
		return connect.NewResponse(&struct{}{}), nil
	}
}

func callerOf(t *testing.T, ctx context.Context) string {
	t.Helper()
	claims, ok := GetUserClaims(ctx)
	require.True(t, ok)
	return claims.UID
}

func TestAuthInterceptor(t *testing.T) {
	t.Run("missing header is unauthenticated", func(t *testing.T) {
		var seen context.Context
		_, err := AuthInterceptor(&fakeVerifier{})(captureNext(&seen))(context.Background(), connect.NewRequest(&struct{}{}))
		require.Error(t, err)
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
		assert.Nil(t, seen)
	})

	t.Run("rejected token hides the cause", func(t *testing.T) {
		var seen context.Context
		req := connect.NewRequest(&struct{}{})
		req.Header().Set("Authorization", "Bearer tok")

		_, err := AuthInterceptor(&fakeVerifier{err: errors.New("token expired")})(captureNext(&seen))(context.Background(), req)
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
		assert.NotContains(t, err.Error(), "expired")
	})

	t.Run("rejected token is logged on the request logger", func(t *testing.T) {
		buf := &bytes.Buffer{}
		ctx := logger.WithContext(context.Background(), logger.NewWithWriter(buf))
		req := connect.NewRequest(&struct{}{})
		req.Header().Set("Authorization", "Bearer tok")

		var seen context.Context
		_, err := AuthInterceptor(&fakeVerifier{err: errors.New("token expired")})(captureNext(&seen))(ctx, req)
		require.Error(t, err)
		assert.Contains(t, buf.String(), "token rejected")
		assert.Contains(t, buf.String(), `"component":"auth"`)
		assert.Contains(t, buf.String(), "token expired")
	})

	t.Run("valid token attaches caller and subscription", func(t *testing.T) {
		verifier := &fakeVerifier{
			claims: &UserClaims{UID: "user-1", Email: "a@b.c"},
			raw:    map[string]interface{}{"subscription_tier": "PRO", "subscription_status": "ACTIVE"},
		}
		var seen context.Context
		req := connect.NewRequest(&struct{}{})
		req.Header().Set("Authorization", "Bearer tok-123")

		_, err := AuthInterceptor(verifier)(captureNext(&seen))(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "tok-123", verifier.token)
		assert.Equal(t, "user-1", callerOf(t, seen))
		assert.True(t, GetSubscription(seen).IsPro())
	})
}

func TestDebugAuthInterceptor(t *testing.T) {
	req := connect.NewRequest(&struct{}{})
	req.Header().Set("X-Debug-Impersonate-User", "alice")
	req.Header().Set("X-Debug-Subscription-Tier", "PRO")

	t.Run("impersonates when auth is skipped", func(t *testing.T) {
		var seen context.Context
		_, err := DebugAuthInterceptor(true)(captureNext(&seen))(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "alice", callerOf(t, seen))
		assert.Equal(t, models.TierPro, GetSubscription(seen).Tier)

		var after context.Context
		_, err = AuthInterceptor(&fakeVerifier{})(captureNext(&after))(seen, req)
		require.NoError(t, err)
		assert.Equal(t, "alice", callerOf(t, after))

		_, err = LocalDevInterceptor(models.TierFree)(captureNext(&after))(seen, req)
		require.NoError(t, err)
		assert.Equal(t, "alice", callerOf(t, after))
	})

	t.Run("ignored when auth is enforced", func(t *testing.T) {
		var seen context.Context
		_, err := DebugAuthInterceptor(false)(captureNext(&seen))(context.Background(), req)
		require.NoError(t, err)
		_, ok := GetUserClaims(seen)
		assert.False(t, ok)
	})
}

func TestLocalDevInterceptor(t *testing.T) {
	var seen context.Context
	_, err := LocalDevInterceptor(models.TierPro)(captureNext(&seen))(context.Background(), connect.NewRequest(&struct{}{}))
	require.NoError(t, err)

	assert.Equal(t, LocalDevUserID, callerOf(t, seen))
	assert.True(t, GetSubscription(seen).IsPro())
}
