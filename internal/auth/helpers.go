package auth

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey struct{}

// ExtractBearerToken extracts the token from the Authorization header.
func ExtractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingToken
	}

	// Expect "Bearer <token>" format
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrMissingToken
	}
	return parts[1], nil
}

// WithActor stores the caller on ctx.
func WithActor(ctx context.Context, a *ActorInfo) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// ActorFromContext returns the caller stored by WithActor.
func ActorFromContext(ctx context.Context) (*ActorInfo, bool) {
	a, ok := ctx.Value(ctxKey{}).(*ActorInfo)
	return a, ok && a != nil
}
