package auth

import (
	"github.com/campuslostfound/lostfound/internal/config"
)

// AuthorizerFactory creates the appropriate Authorizer based on environment
type AuthorizerFactory struct {
	config *config.Config
}

func NewAuthorizerFactory(cfg *config.Config) *AuthorizerFactory {
	return &AuthorizerFactory{config: cfg}
}

// CreateAuthorizer returns the dev authorizer in development mode and the JWT
// authorizer otherwise. Outside dev mode a JWT secret is mandatory.
func (f *AuthorizerFactory) CreateAuthorizer() (Authorizer, error) {
	if f.config.IsDevMode() {
		return NewDevAuthorizer(), nil
	}
	if f.config.JWTSecret == "" {
		return nil, ErrNoSecret
	}
	return NewJWTAuthorizer(f.config.JWTSecret, ""), nil
}

// IsDevMode returns true if development mode is enabled
func (f *AuthorizerFactory) IsDevMode() bool {
	return f.config.IsDevMode()
}
