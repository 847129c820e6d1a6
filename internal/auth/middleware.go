package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/redmonkez12/todo-api/internal/httputil"
	"github.com/redmonkez12/todo-api/internal/logging"
)

// ErrRevokedToken is returned for a session token that was logged out
var ErrRevokedToken = errors.New("token has been revoked")

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const UserIDContextKey ContextKey = "user_id"

const msgLoginFirst = "Please login first"

// Middleware handles authentication for protected routes
type Middleware struct {
	sessions *Sessions
}

func NewMiddleware(sessions *Sessions) *Middleware {
	return &Middleware{sessions: sessions}
}

// RequireAuth resolves the caller from the Authorization header or the
// token cookie and rejects the request with 401 when neither is valid
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		token := tokenFromRequest(r)
		if token == "" {
			httputil.RespondError(w, msgLoginFirst, http.StatusUnauthorized)
			return
		}

		userID, err := m.sessions.Authenticate(r.Context(), token)
		if err != nil {
			if !errors.Is(err, ErrInvalidToken) && !errors.Is(err, ErrExpiredToken) && !errors.Is(err, ErrRevokedToken) {
				logger.Error("failed to authenticate session", "error", err.Error())
			}
			httputil.RespondError(w, msgLoginFirst, http.StatusUnauthorized)
			return
		}

		ctx := WithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// tokenFromRequest prefers a bearer token over the cookie
func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	token, err := GetTokenFromCookie(r)
	if err != nil {
		return ""
	}
	return token
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(uuid.UUID)
	return userID, ok
}

// WithUserID returns a context carrying an authenticated user id
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDContextKey, userID)
}
