package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRevocations(t *testing.T) (*RedisRevocationStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRevocationStore(client), mr
}

func TestRedisRevocationStore(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisRevocations(t)

	revoked, err := store.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "tok", time.Minute))
	revoked, err = store.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)

	// raw tokens never become keys
	assert.False(t, mr.Exists(getRevokedKey("tok")))
	assert.True(t, mr.Exists(getRevokedKey(hashToken("tok"))))

	mr.FastForward(time.Minute)
	revoked, err = store.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "old", 0))
	assert.False(t, mr.Exists(getRevokedKey(hashToken("old"))))
}

func TestSessionsLifecycle(t *testing.T) {
	ctx := context.Background()
	tokens, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)
	revocations, _ := newRedisRevocations(t)
	sessions := NewSessions(tokens, revocations, time.Hour, false)

	userID := uuid.New()
	token, err := tokens.CreateToken(userID, "ann@x.com", time.Hour)
	require.NoError(t, err)

	got, err := sessions.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	require.NoError(t, sessions.Revoke(ctx, token))
	_, err = sessions.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrRevokedToken)

	// garbage is ignored on logout
	assert.NoError(t, sessions.Revoke(ctx, "garbage"))
}

func TestAuthCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	SetAuthCookie(rec, "tok", true, time.Hour)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, TokenCookieName, c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.WithinDuration(t, time.Now().Add(time.Hour), c.Expires, 5*time.Second)

	rec = httptest.NewRecorder()
	ClearAuthCookie(rec, false)
	cleared := rec.Result().Cookies()[0]
	assert.Empty(t, cleared.Value)
	assert.True(t, cleared.Expires.Before(time.Now()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetTokenFromCookie(req)
	assert.Error(t, err)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "abc"})
	got, err := GetTokenFromCookie(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}
