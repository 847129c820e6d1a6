package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/todo-api/internal/httputil"
	"github.com/redmonkez12/todo-api/internal/user"
)

// SessionResponse is the body of every token-issuing response
type SessionResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	User    *user.User `json:"user"`
}

// Sessions issues, checks and revokes session tokens
type Sessions struct {
	tokens       TokenService
	revoked      RevocationStore
	duration     time.Duration
	isProduction bool
}

func NewSessions(tokens TokenService, revoked RevocationStore, duration time.Duration, isProduction bool) *Sessions {
	return &Sessions{
		tokens:       tokens,
		revoked:      revoked,
		duration:     duration,
		isProduction: isProduction,
	}
}

// Issue signs a token for u, sets it as the session cookie and writes
// {success: true, message, user} with the given status
func (s *Sessions) Issue(w http.ResponseWriter, u *user.User, statusCode int, message string) {
	token, err := s.tokens.CreateToken(u.ID, u.Email, s.duration)
	if err != nil {
		httputil.RespondInternalError(w, fmt.Errorf("failed to create session token: %w", err))
		return
	}

	SetAuthCookie(w, token, s.isProduction, s.duration)
	httputil.RespondJSON(w, SessionResponse{
		Success: true,
		Message: message,
		User:    u,
	}, statusCode)
}

// Authenticate verifies a token and returns the user id it was issued for
func (s *Sessions) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		return uuid.Nil, err
	}

	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, token)
		if err != nil {
			return uuid.Nil, err
		}
		if revoked {
			return uuid.Nil, ErrRevokedToken
		}
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return userID, nil
}

// Revoke invalidates a still valid token until its natural expiry
func (s *Sessions) Revoke(ctx context.Context, token string) error {
	if s.revoked == nil {
		return nil
	}

	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		// expired or forged tokens cannot be used anyway
		return nil
	}

	return s.revoked.Revoke(ctx, token, time.Until(claims.ExpiresAt))
}

// ClearCookie expires the session cookie on the client
func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	ClearAuthCookie(w, s.isProduction)
}
