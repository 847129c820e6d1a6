package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/todo-api/internal/media"
)

// TokenService defines the interface for token creation and validation.
// Implementations include PasetoService (PASETO v4.local) and JWTService (HS256).
type TokenService interface {
	CreateToken(userID uuid.UUID, email string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// Mailer delivers one-time codes by email
type Mailer interface {
	SendVerificationOTP(ctx context.Context, toEmail string, otp int) error
	SendPasswordResetOTP(ctx context.Context, toEmail string, otp int) error
}

// ImageStore uploads and deletes avatar images on the external image host
type ImageStore interface {
	Upload(ctx context.Context, localPath, folder string) (media.Image, error)
	Destroy(ctx context.Context, publicID string) error
}

// RevocationStore remembers session tokens that were logged out before they expired
type RevocationStore interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// RateLimiter throttles unauthenticated endpoints per client IP and per email
type RateLimiter interface {
	CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error
	CheckEmailCooldown(ctx context.Context, email string) (bool, error)
	SetEmailCooldown(ctx context.Context, email string) error
}
