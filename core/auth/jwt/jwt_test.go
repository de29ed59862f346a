package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator(t *testing.T, now *time.Time, opts ...Option) *Authenticator {
	t.Helper()
	opts = append(opts, WithClock(func() time.Time { return *now }))
	a, err := New(Config{Secret: "test-secret", Issuer: "phoneshop"}, opts...)
	require.NoError(t, err)
	return a
}

func TestGenerateAndVerify(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	a := newTestAuthenticator(t, &now)
	ctx := context.Background()

	pair, err := a.Generate(ctx, UserClaims{UserID: 42, Email: "an@example.com", Roles: []string{"ADMIN"}})
	require.NoError(t, err)
	assert.Equal(t, int64(900), pair.AccessTTL)
	assert.Equal(t, int64(7*24*3600), pair.RefreshTTL)

	claims, err := a.Verify(ctx, pair.AccessToken, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.True(t, claims.HasRole("ADMIN"))
	assert.False(t, claims.HasRole("USER"))

	_, err = a.Verify(ctx, pair.AccessToken, TokenRefresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = a.Verify(ctx, pair.AccessToken+"x", TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpired(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	a := newTestAuthenticator(t, &now)

	pair, err := a.Generate(context.Background(), UserClaims{UserID: 1})
	require.NoError(t, err)

	now = now.Add(16 * time.Minute)
	_, err = a.Verify(context.Background(), pair.AccessToken, TokenAccess)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = a.Verify(context.Background(), pair.RefreshToken, TokenRefresh)
	assert.NoError(t, err)
}

func TestRefreshRotates(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	a := newTestAuthenticator(t, &now)
	ctx := context.Background()

	pair, err := a.Generate(ctx, UserClaims{UserID: 7, Email: "u@example.com"})
	require.NoError(t, err)

	next, claims, err := a.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, _, err = a.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = a.Verify(ctx, next.AccessToken, TokenAccess)
	assert.NoError(t, err)
}

func TestRevoke(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	a := newTestAuthenticator(t, &now)
	ctx := context.Background()

	pair, err := a.Generate(ctx, UserClaims{UserID: 3})
	require.NoError(t, err)

	require.NoError(t, a.Revoke(ctx, pair.AccessToken))
	_, err = a.Verify(ctx, pair.AccessToken, TokenAccess)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	assert.NoError(t, a.Revoke(ctx, "garbage"))
}

func TestPeek(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	a := newTestAuthenticator(t, &now)

	token, err := a.SignAccess(UserClaims{UserID: 9, Roles: []string{"USER"}}, 10*time.Minute)
	require.NoError(t, err)

	exp, err := ExpiresAt(token)
	require.NoError(t, err)
	assert.True(t, exp.Equal(now.Add(10*time.Minute)))

	claims, err := Peek(token)
	require.NoError(t, err)
	assert.Equal(t, TokenAccess, claims.Type)

	_, err = ExpiresAt("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestRedisBlacklist(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	bl := NewRedisBlacklist(rdb, "")
	ctx := context.Background()

	require.NoError(t, bl.Add(ctx, "jti-1", time.Minute))
	require.NoError(t, bl.Add(ctx, "jti-expired", 0))

	ok, err := bl.Contains(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = bl.Contains(ctx, "jti-expired")
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = bl.Contains(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryBlacklistExpires(t *testing.T) {
	now := time.Now()
	bl := NewMemoryBlacklist()
	bl.now = func() time.Time { return now }

	require.NoError(t, bl.Add(context.Background(), "a", time.Minute))
	ok, _ := bl.Contains(context.Background(), "a")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, _ = bl.Contains(context.Background(), "a")
	assert.False(t, ok)
}
