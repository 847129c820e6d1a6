package auth

import (
	"fmt"

	"github.com/redmonkez12/todo-api/internal/config"
)

// NewTokenService builds the token service selected by TOKEN_FORMAT
func NewTokenService(cfg config.AuthConfig) (TokenService, error) {
	switch cfg.TokenFormat {
	case config.TokenPaseto:
		svc, err := NewPasetoService(cfg.PasetoKey)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case config.TokenJWT:
		svc, err := NewJWTService(cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unsupported token format %q", cfg.TokenFormat)
	}
}
