package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/todo-api/internal/config"
)

var testPasetoKey = []byte("0123456789abcdef0123456789abcdef")

func TestTokenServices(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.AuthConfig
	}{
		{name: "paseto", cfg: config.AuthConfig{TokenFormat: config.TokenPaseto, PasetoKey: testPasetoKey}},
		{name: "jwt", cfg: config.AuthConfig{TokenFormat: config.TokenJWT, JWTSecret: []byte("s3cret")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewTokenService(tt.cfg)
			require.NoError(t, err)

			userID := uuid.New()
			token, err := svc.CreateToken(userID, "ann@x.com", time.Hour)
			require.NoError(t, err)

			claims, err := svc.VerifyToken(token)
			require.NoError(t, err)
			assert.Equal(t, userID.String(), claims.UserID)
			assert.Equal(t, "ann@x.com", claims.Email)
			assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)

			_, err = svc.VerifyToken(token + "x")
			assert.Error(t, err)

			expired, err := svc.CreateToken(userID, "ann@x.com", -time.Minute)
			require.NoError(t, err)
			_, err = svc.VerifyToken(expired)
			assert.Error(t, err)
		})
	}
}

func TestNewTokenServiceErrors(t *testing.T) {
	_, err := NewTokenService(config.AuthConfig{TokenFormat: config.TokenPaseto, PasetoKey: []byte("short")})
	assert.Error(t, err)

	_, err = NewTokenService(config.AuthConfig{TokenFormat: config.TokenJWT})
	assert.Error(t, err)

	_, err = NewTokenService(config.AuthConfig{TokenFormat: "saml"})
	assert.Error(t, err)
}

func TestJWTExpiredToken(t *testing.T) {
	svc, err := NewJWTService([]byte("s3cret"))
	require.NoError(t, err)

	token, err := svc.CreateToken(uuid.New(), "ann@x.com", -time.Minute)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestPasetoExpiredToken(t *testing.T) {
	svc, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)

	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	token, err := svc.CreateToken(uuid.New(), "ann@x.com", time.Hour)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(59 * time.Minute) }
	_, err = svc.VerifyToken(token)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(time.Hour) }
	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestPasetoRejectsOtherKey(t *testing.T) {
	a, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)
	b, err := NewPasetoService([]byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, err)

	token, err := a.CreateToken(uuid.New(), "ann@x.com", time.Hour)
	require.NoError(t, err)

	_, err = b.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTRejectsOtherSecret(t *testing.T) {
	a, err := NewJWTService([]byte("one"))
	require.NoError(t, err)
	b, err := NewJWTService([]byte("two"))
	require.NoError(t, err)

	token, err := a.CreateToken(uuid.New(), "ann@x.com", time.Hour)
	require.NoError(t, err)

	_, err = b.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
